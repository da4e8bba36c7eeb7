// Package auth は資格情報の検証、トークンの発行・失効を提供する。
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword は平文パスワードからbcryptハッシュを生成する。
// ソルトは呼び出しごとに生成されるため、同じ平文でも毎回異なるハッシュとなる。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword は平文パスワードがハッシュと一致するかを返す。
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
