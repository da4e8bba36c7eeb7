package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// requestUser は認証ミドルウェアが解決したユーザーIDを
// 外側のログミドルウェアへ運ぶためのホルダー。
// ログミドルウェアは認証より外側で動くため、コンテキスト値を
// 内側から外側へ伝搬するにはポインタ経由の書き込みが必要になる。
type requestUser struct {
	id string
}

var requestUserKey = contextKey("request_user")

// markRequestUser はホルダーが設置済みの場合にユーザーIDを記録する。
// 認証ミドルウェアを経由しないリクエストでは何もしない。
func markRequestUser(ctx context.Context, id string) {
	if h, ok := ctx.Value(requestUserKey).(*requestUser); ok {
		h.id = id
	}
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、user_id（認証済みの場合）を含む。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			holder := &requestUser{}
			r = r.WithContext(context.WithValue(r.Context(), requestUserKey, holder))

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", durationMs),
			}

			// 認証ミドルウェアがユーザーを解決した場合はIDを追加
			if holder.id != "" {
				args = append(args, slog.String("user_id", holder.id))
			}

			// ステータスコードに応じてログレベルを変更
			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
