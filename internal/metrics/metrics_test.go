package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)
	c.RecordRequestDuration(10 * time.Millisecond)
	c.RecordAuthFailure()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}

	want := []string{
		"bookbag_http_status_total",
		"bookbag_http_request_duration_seconds",
		"bookbag_auth_failures_total",
	}
	for _, name := range want {
		if !found[name] {
			t.Errorf("metric %q not registered", name)
		}
	}
}

func TestCollector_RecordHTTPStatus_CountsPerStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(401)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	counts := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "bookbag_http_status_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status_code" {
					counts[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}

	if counts["200"] != 2 {
		t.Errorf("status 200 count = %v, want 2", counts["200"])
	}
	if counts["401"] != 1 {
		t.Errorf("status 401 count = %v, want 1", counts["401"])
	}
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordAuthFailure()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "bookbag_auth_failures_total 1") {
		t.Errorf("body does not contain auth failure counter: %s", w.Body.String())
	}
}
