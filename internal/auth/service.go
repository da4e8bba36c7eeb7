package auth

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tajud99n/bookbag/internal/model"
	"github.com/tajud99n/bookbag/internal/repository"
)

// Service は登録・ログイン・ログアウト・トークン照合のビジネスロジックを提供する。
type Service struct {
	users  repository.UserRepository
	tokens *TokenManager
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// Register は新規ユーザーを作成し、初回トークンを発行する。
// メールアドレスは正規化後に形状検証し、パスワードはハッシュのみを保存する。
// 一意制約違反はmodel.ErrDuplicateEmail、入力不正はmodel.ErrValidationを返す。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	email = model.NormalizeEmail(email)
	if err := model.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Email:    email,
		Password: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, "", err
	}

	slog.Info("user registered", slog.String("user_id", user.ID.Hex()))
	return user, token, nil
}

// Login は資格情報を検証し、新しいトークンを発行して既存一覧に追加する。
// ユーザー不在とパスワード不一致はどちらもmodel.ErrInvalidCredentialsとなり、
// 呼び出し側からは区別できない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = model.NormalizeEmail(email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || !VerifyPassword(password, user.Password) {
		return nil, "", model.ErrInvalidCredentials
	}

	token, err := s.issueAndStore(ctx, user)
	if err != nil {
		return nil, "", err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID.Hex()))
	return user, token, nil
}

// Logout は今回のリクエストで提示されたトークンのみを一覧から削除する。
// 他のセッションのトークンには影響しない。
func (s *Service) Logout(ctx context.Context, user *model.User, token string) error {
	if err := s.users.RemoveToken(ctx, user.ID, token); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// AuthenticateToken はトークン文字列からユーザーを解決する。
// 署名検証に加えて、永続化された有効トークン一覧との照合を行う。
// 署名が有効でもログアウト済みのトークンはmodel.ErrInvalidTokenとなる。
func (s *Service) AuthenticateToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	user, err := s.users.FindByIDAndToken(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrInvalidToken
	}

	return user, nil
}

// issueAndStore はトークンを発行し、レスポンスへ返す前に永続化する。
// 永続化に失敗した場合はトークンを返さない。
func (s *Service) issueAndStore(ctx context.Context, user *model.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}

	entry := model.UserToken{Access: model.TokenAccessAuth, Token: token}
	if err := s.users.AppendToken(ctx, user.ID, entry); err != nil {
		return "", fmt.Errorf("failed to persist token: %w", err)
	}
	user.Tokens = append(user.Tokens, entry)

	return token, nil
}
