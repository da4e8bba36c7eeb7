// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tajud99n/bookbag/internal/model"
)

// AuthHeader は認証トークンを運ぶリクエストヘッダー名。
const AuthHeader = "x-auth"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userContextKey  = contextKey("auth_user")
	tokenContextKey = contextKey("auth_token")
)

// TokenAuthenticator はトークン文字列からユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, token string) (*model.User, error)
}

// AuthFailureRecorder は認証失敗の計測インターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure()
}

// NewAuthMiddleware はx-authヘッダーのトークンを検証するミドルウェアを返す。
// 解決したユーザーと生のトークン文字列をリクエストコンテキストに注入する。
// ヘッダー欠落・署名不正・失効済みトークンはいずれも401の空ボディで打ち切る。
// recorderはnil可。
func NewAuthMiddleware(authenticator TokenAuthenticator, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	reject := func(w http.ResponseWriter) {
		if recorder != nil {
			recorder.RecordAuthFailure()
		}
		w.WriteHeader(http.StatusUnauthorized)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AuthHeader)
			if token == "" {
				reject(w)
				return
			}

			user, err := authenticator.AuthenticateToken(r.Context(), token)
			if err != nil || user == nil {
				reject(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAuth(r.Context(), user, token)))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("authenticated user not found in context")
	}
	return user, nil
}

// TokenFromContext はリクエストコンテキストから今回提示されたトークンを取得する。
func TokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(tokenContextKey).(string)
	if !ok || token == "" {
		return "", fmt.Errorf("auth token not found in context")
	}
	return token, nil
}

// ContextWithAuth はコンテキストに認証済みユーザーとトークンを注入する。
// 外側のログミドルウェアがユーザーIDを記録できるよう、ホルダーにもIDを書き込む。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAuth(ctx context.Context, user *model.User, token string) context.Context {
	markRequestUser(ctx, user.ID.Hex())
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, tokenContextKey, token)
}
