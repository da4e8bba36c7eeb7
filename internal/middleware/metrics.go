package middleware

import (
	"net/http"
	"time"
)

// HTTPMetricsRecorder はHTTPリクエストの計測インターフェース。
// metrics.Collectorの部分集合として定義する。
type HTTPMetricsRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
}

// NewMetricsMiddleware はレスポンスのステータスコードと処理時間を
// 記録するミドルウェアを返す。
func NewMetricsMiddleware(recorder HTTPMetricsRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			recorder.RecordHTTPStatus(rec.statusCode)
			recorder.RecordRequestDuration(time.Since(start))
		})
	}
}
