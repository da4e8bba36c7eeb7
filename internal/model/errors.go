// Package model はドメインモデルを定義する。
package model

import "errors"

// ドメイン共通のセンチネルエラー。
// ハンドラー層でHTTPステータスへのマッピングに使用する。
var (
	// ErrValidation は必須フィールドの欠落・形状不正を表す。
	ErrValidation = errors.New("validation failed")

	// ErrNotFound は対象ドキュメントが存在しない、
	// または呼び出しユーザーの所有物でないことを表す。
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken はトークンの署名不正・形式不正・失効を表す。
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials はログイン失敗を表す。
	// ユーザー不在とパスワード不一致は意図的に区別しない。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
	ErrDuplicateEmail = errors.New("email already registered")
)
