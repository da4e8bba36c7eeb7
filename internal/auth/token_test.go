package auth

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tajud99n/bookbag/internal/model"
)

func TestTokenManager_IssueAndValidate(t *testing.T) {
	m := NewTokenManager("test-secret")
	userID := primitive.NewObjectID()

	token, err := m.Issue(userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if claims.UserID != userID.Hex() {
		t.Errorf("UserID = %q, want %q", claims.UserID, userID.Hex())
	}
	if claims.Access != model.TokenAccessAuth {
		t.Errorf("Access = %q, want %q", claims.Access, model.TokenAccessAuth)
	}
}

// 同一ユーザーへの発行でも毎回異なるトークン文字列となることを検証。
// ログアウト時の完全一致削除が1エントリのみに作用するために必要となる。
func TestTokenManager_Issue_DistinctPerCall(t *testing.T) {
	m := NewTokenManager("test-secret")
	userID := primitive.NewObjectID()

	token1, err := m.Issue(userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	token2, err := m.Issue(userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if token1 == token2 {
		t.Error("expected distinct tokens for consecutive issues")
	}
}

func TestTokenManager_Validate_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a").Issue(primitive.NewObjectID())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = NewTokenManager("secret-b").Validate(token)
	if !errors.Is(err, model.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenManager_Validate_Malformed(t *testing.T) {
	m := NewTokenManager("test-secret")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Validate(token); !errors.Is(err, model.ErrInvalidToken) {
			t.Errorf("Validate(%q) err = %v, want ErrInvalidToken", token, err)
		}
	}
}
