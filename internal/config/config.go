// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	MongoURI       string
	MongoDatabase  string
	ConnectTimeout time.Duration

	// Auth
	JWTSecret string

	// Books
	// OwnerScoped がtrueの場合、書籍は作成ユーザーに紐づき、
	// 参照・変更もそのユーザーに限定される（オーナースコープモード）。
	// falseの場合は全書籍がグローバルに可視となる。2つのモードは混在しない。
	OwnerScoped bool

	// Server
	Port            string
	ShutdownTimeout time.Duration

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.MongoURI = os.Getenv("MONGODB_URI")
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.MongoDatabase = getEnvString("MONGODB_DATABASE", "bookbag")
	cfg.ConnectTimeout = getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second)
	cfg.OwnerScoped = getEnvBool("BOOKS_OWNER_SCOPED", true)
	cfg.Port = getEnvString("PORT", "8080")
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
