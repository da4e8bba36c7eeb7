package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tajud99n/bookbag/internal/middleware"
	"github.com/tajud99n/bookbag/internal/model"
)

// AuthServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを作成し、初回トークンを発行する。
	Register(ctx context.Context, email, password string) (*model.User, string, error)
	// Login は資格情報を検証し、新しいトークンを発行する。
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	// Logout は提示されたトークンのみを有効トークン一覧から削除する。
	Logout(ctx context.Context, user *model.User, token string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service AuthServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service AuthServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// credentialsRequest は登録・ログインリクエストのボディ。
// 認識するフィールド以外は無視される。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
// トークンはヘッダーに加えてボディでも返す。
type loginResponse struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Token string `json:"x-auth"`
}

// Register は新規ユーザーを登録する。
// POST /users
// 成功時はx-authヘッダーにトークンを載せ、公開ユーザー情報を返す。
// 検証失敗・メール重複は400とエラーペイロード。
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, token, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: registerErrorMessage(err)})
		return
	}

	w.Header().Set(middleware.AuthHeader, token)
	writeJSON(w, http.StatusOK, user.Public())
}

// Login は資格情報を検証してトークンを発行する。
// POST /users/login
// 成功時はx-authヘッダーとボディの両方でトークンを返す。
// ユーザー不在・パスワード不一致は区別せず400の空ボディ。
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set(middleware.AuthHeader, token)
	writeJSON(w, http.StatusOK, loginResponse{
		ID:    user.ID.Hex(),
		Email: user.Email,
		Token: token,
	})
}

// Logout は今回のリクエストで使用したトークンを失効させる。
// DELETE /users/me/token
// 成功時は200の空ボディ、ストア失敗は400の空ボディ。
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	token, err := middleware.TokenFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), user, token); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Me は認証済みユーザーの公開情報を返す。
// GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}

// registerErrorMessage は登録失敗エラーをペイロード用のメッセージに変換する。
// 内部エラーの詳細はレスポンスに含めない。
func registerErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrDuplicateEmail):
		return model.ErrDuplicateEmail.Error()
	case errors.Is(err, model.ErrValidation):
		return model.ErrValidation.Error()
	default:
		return "registration failed"
	}
}
