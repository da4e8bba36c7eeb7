// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tajud99n/bookbag/internal/model"
)

// UserRepository はユーザードキュメントの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
	// メールアドレスの一意制約違反の場合はmodel.ErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByIDAndToken は指定IDかつ指定トークンが有効トークン一覧に
	// 含まれるユーザーを取得する。見つからない場合はnilを返す。
	// 署名検証とは別に、失効済みトークンを拒否するための照合に使用する。
	FindByIDAndToken(ctx context.Context, id primitive.ObjectID, token string) (*model.User, error)

	// AppendToken はユーザーの有効トークン一覧にトークンを追加して永続化する。
	AppendToken(ctx context.Context, id primitive.ObjectID, token model.UserToken) error

	// RemoveToken は有効トークン一覧から完全一致するトークンのみを削除する。
	RemoveToken(ctx context.Context, id primitive.ObjectID, token string) error
}

// BookRepository は書籍ドキュメントの永続化インターフェース。
// ownerにnil以外を渡すと、該当オーナーが所有するドキュメントに操作が限定される。
// nilはグローバルモード（所有者条件なし）を意味する。
type BookRepository interface {
	// Create は書籍を作成し、採番されたIDをbook.IDに設定する。
	Create(ctx context.Context, book *model.Book) error

	// List は書籍一覧を返す。該当なしの場合は空スライスを返す。
	List(ctx context.Context, owner *primitive.ObjectID) ([]model.Book, error)

	// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*model.Book, error)

	// Update は指定フィールドを1回の$setで適用し、更新後のドキュメントを返す。
	// 対象が見つからない場合はnilを返す。
	Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update model.BookUpdate) (*model.Book, error)

	// Delete は書籍を削除し、削除時点のスナップショットを返す。
	// 対象が見つからない場合はnilを返す。
	Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*model.Book, error)
}
