// Package model はドメインモデルを定義する。
package model

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenAccessAuth はトークンのaccess種別。現状は認証用の"auth"のみ。
const TokenAccessAuth = "auth"

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// UserToken はユーザーに紐づく有効なログイントークンを表す。
// ログインごとに1エントリ追加され、ログアウトで該当エントリのみ削除される。
type UserToken struct {
	Access string `bson:"access" json:"access"`
	Token  string `bson:"token" json:"token"`
}

// User はサービス利用ユーザーを表す。
// Passwordはbcryptハッシュのみを保持し、平文は保存しない。
// PasswordとTokensはJSONシリアライズから除外する。
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Tokens    []UserToken        `bson:"tokens" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"-"`
}

// PublicUser はAPIレスポンスとして公開するユーザー情報。
type PublicUser struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// Public は公開用のユーザー情報を返す。
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID.Hex(),
		Email: u.Email,
	}
}

// HasToken は指定トークンが有効なトークン一覧に含まれるかを返す。
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t.Access == TokenAccessAuth && t.Token == token {
			return true
		}
	}
	return false
}

// emailPattern はメールアドレス形状の簡易チェック。
// 厳密なRFC検証は行わず、空白を含まない local@domain.tld 形状のみ確認する。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail はメールアドレスをトリムして小文字化する。
// 保存・検索の前に必ず適用する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail は正規化済みメールアドレスの形状を検証する。
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrValidation
	}
	return nil
}

// ValidatePassword は平文パスワードの最小文字数を検証する。
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrValidation
	}
	return nil
}
