package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tajud99n/bookbag/internal/metrics"
	"github.com/tajud99n/bookbag/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// 実体はMongoDBクライアントへのPing。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckFunc は関数をHealthCheckerとして使うためのアダプタ。
type HealthCheckFunc func(ctx context.Context) error

// Ping はfを呼び出す。
func (f HealthCheckFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	Authenticator     middleware.TokenAuthenticator

	// メトリクス（nil可。テストでは省略できる）
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	// 運用
	HealthChecker HealthChecker

	// ドメイン
	AuthService AuthServiceInterface
	BookStore   BookStore

	// OwnerScoped がtrueの場合、書籍ルートは認証必須かつ所有者スコープで動作する。
	OwnerScoped bool
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → CORS
//
// 認証ミドルウェアは保護対象のルートグループのみに適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	userHandler := NewUserHandler(deps.AuthService)
	bookHandler := NewBookHandler(deps.BookStore, deps.OwnerScoped)

	var failures middleware.AuthFailureRecorder
	if deps.Metrics != nil {
		failures = deps.Metrics
	}
	authMW := middleware.NewAuthMiddleware(deps.Authenticator, failures)

	// --- 認証不要のルート ---

	r.Get("/", welcomeHandler)
	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// 全書籍一覧はモードを問わず公開
	r.Get("/books/all", bookHandler.ListAll)

	// ユーザー登録・ログイン
	r.Post("/users", userHandler.Register)
	r.Post("/users/login", userHandler.Login)

	// --- 認証が必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(authMW)

		r.Delete("/users/me/token", userHandler.Logout)
		r.Get("/users/me", userHandler.Me)
	})

	// 書籍ルートはオーナースコープモードでのみ認証必須
	bookRoutes := func(r chi.Router) {
		r.Post("/books", bookHandler.Create)
		r.Get("/books", bookHandler.List)
		r.Get("/books/{id}", bookHandler.Get)
		r.Patch("/books/{id}", bookHandler.Update)
		r.Delete("/books/{id}", bookHandler.Delete)
	}

	if deps.OwnerScoped {
		r.Group(func(r chi.Router) {
			r.Use(authMW)
			bookRoutes(r)
		})
	} else {
		r.Group(bookRoutes)
	}

	return r
}

// welcomeHandler はAPIルートの案内レスポンスを返す。
// GET /
func welcomeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"msg": "welcome"})
}

// newHealthHandler はヘルスチェックハンドラーを返す。
// ストアに到達できる場合は200、できない場合は503。
// GET /health
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil || checker.Ping(r.Context()) != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
