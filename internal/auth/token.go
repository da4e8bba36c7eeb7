package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tajud99n/bookbag/internal/model"
)

// Claims は署名付きトークンに埋め込むクレーム。
// 有効期限は設定しない。失効はユーザーの有効トークン一覧で管理する。
type Claims struct {
	UserID string `json:"user_id"`
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// TokenManager はHMAC署名付きトークンの発行・検証を行う。
type TokenManager struct {
	secret []byte
}

// NewTokenManager はTokenManagerを生成する。
// secretは署名用の共有シークレットで、設定から渡される。
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Issue は指定ユーザーIDのHS256署名トークンを発行する。
// jtiにUUIDを採番するため、同一ユーザーへの発行でも毎回異なる文字列となる。
// ログアウト時の完全一致削除のために重複しないことが必要となる。
func (m *TokenManager) Issue(userID primitive.ObjectID) (string, error) {
	claims := Claims{
		UserID: userID.Hex(),
		Access: model.TokenAccessAuth,
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate は署名とクレーム形状を検証し、クレームを返す。
// 署名不一致・形式不正・access種別の不一致はmodel.ErrInvalidTokenを返す。
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidToken, err)
	}

	if claims.Access != model.TokenAccessAuth || claims.UserID == "" {
		return nil, model.ErrInvalidToken
	}

	return claims, nil
}
