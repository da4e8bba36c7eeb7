// Package app はアプリケーションの初期化・ワイヤリング・サーバーライフサイクルを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tajud99n/bookbag/internal/auth"
	"github.com/tajud99n/bookbag/internal/config"
	"github.com/tajud99n/bookbag/internal/database"
	"github.com/tajud99n/bookbag/internal/handler"
	"github.com/tajud99n/bookbag/internal/logger"
	"github.com/tajud99n/bookbag/internal/metrics"
	"github.com/tajud99n/bookbag/internal/repository"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.Port),
		slog.Bool("owner_scoped", cfg.OwnerScoped),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// ストア接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. ストア接続
	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer connectCancel()

	client, err := database.Connect(connectCtx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to open store connection: %w", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			slog.Error("failed to disconnect from store", slog.String("error", err.Error()))
		}
	}()

	if err := database.Ping(connectCtx, client); err != nil {
		return fmt.Errorf("failed to reach store: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)

	if err := database.EnsureIndexes(connectCtx, db); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	slog.Info("store connection established",
		slog.String("database", cfg.MongoDatabase),
	)

	// 2. リポジトリの初期化
	userRepo := repository.NewMongoUserRepo(db)
	bookRepo := repository.NewMongoBookRepo(db)

	// 3. 認証サービスの初期化
	tokenManager := auth.NewTokenManager(cfg.JWTSecret)
	authService := auth.NewService(userRepo, tokenManager)

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Authenticator:     authService,

		Metrics:  collector,
		Gatherer: registry,

		HealthChecker: handler.HealthCheckFunc(func(ctx context.Context) error {
			return database.Ping(ctx, client)
		}),

		AuthService: authService,
		BookStore:   bookRepo,
		OwnerScoped: cfg.OwnerScoped,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
