package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORSMiddleware_SetsHeaders(t *testing.T) {
	mw := NewCORSMiddleware("http://localhost:3000")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want %q", got, "true")
	}
}

// ブラウザクライアントがトークンを送受信できるよう、
// x-authが許可ヘッダーと公開ヘッダーの両方に含まれることを検証
func TestCORSMiddleware_ExposesAuthHeader(t *testing.T) {
	mw := NewCORSMiddleware("http://localhost:3000")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if allowed := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(allowed, AuthHeader) {
		t.Errorf("Allow-Headers = %q, want it to contain %q", allowed, AuthHeader)
	}
	if exposed := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(exposed, AuthHeader) {
		t.Errorf("Expose-Headers = %q, want it to contain %q", exposed, AuthHeader)
	}
}

func TestCORSMiddleware_PreflightReturns204(t *testing.T) {
	mw := NewCORSMiddleware("http://localhost:3000")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run for preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
