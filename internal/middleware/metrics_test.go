package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// mockMetricsRecorder はHTTPMetricsRecorderのモック実装。
type mockMetricsRecorder struct {
	statuses  []int
	durations []time.Duration
}

func (m *mockMetricsRecorder) RecordHTTPStatus(statusCode int) {
	m.statuses = append(m.statuses, statusCode)
}

func (m *mockMetricsRecorder) RecordRequestDuration(duration time.Duration) {
	m.durations = append(m.durations, duration)
}

func TestMetricsMiddleware_RecordsStatusAndDuration(t *testing.T) {
	recorder := &mockMetricsRecorder{}

	mw := NewMetricsMiddleware(recorder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/books/unknown", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if len(recorder.statuses) != 1 || recorder.statuses[0] != http.StatusNotFound {
		t.Errorf("statuses = %v, want [404]", recorder.statuses)
	}
	if len(recorder.durations) != 1 {
		t.Errorf("durations count = %d, want 1", len(recorder.durations))
	}
}

func TestMetricsMiddleware_DefaultStatusIs200(t *testing.T) {
	recorder := &mockMetricsRecorder{}

	mw := NewMetricsMiddleware(recorder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msg":"welcome"}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if len(recorder.statuses) != 1 || recorder.statuses[0] != http.StatusOK {
		t.Errorf("statuses = %v, want [200]", recorder.statuses)
	}
}
