// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	authFailures    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookbag_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookbag_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookbag_auth_failures_total",
			Help: "認証失敗（401）の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.authFailures,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
