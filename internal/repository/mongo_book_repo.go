package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tajud99n/bookbag/internal/database"
	"github.com/tajud99n/bookbag/internal/model"
)

// MongoBookRepo はMongoDBを使用した書籍リポジトリ。
type MongoBookRepo struct {
	coll *mongo.Collection
}

// NewMongoBookRepo はMongoBookRepoを生成する。
func NewMongoBookRepo(db *mongo.Database) *MongoBookRepo {
	return &MongoBookRepo{coll: db.Collection(database.CollectionBooks)}
}

// Create は書籍を作成し、採番されたIDをbook.IDに設定する。
func (r *MongoBookRepo) Create(ctx context.Context, book *model.Book) error {
	res, err := r.coll.InsertOne(ctx, book)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted ID type: %T", res.InsertedID)
	}
	book.ID = id

	return nil
}

// List は書籍一覧を返す。ownerがnilの場合は全書籍が対象となる。
func (r *MongoBookRepo) List(ctx context.Context, owner *primitive.ObjectID) ([]model.Book, error) {
	cursor, err := r.coll.Find(ctx, ownerFilter(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer cursor.Close(ctx)

	books := []model.Book{}
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
}

// FindByID は指定IDの書籍を取得する。見つからない場合はnilを返す。
func (r *MongoBookRepo) FindByID(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*model.Book, error) {
	book := &model.Book{}
	err := r.coll.FindOne(ctx, bookFilter(id, owner)).Decode(book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book: %w", err)
	}
	return book, nil
}

// Update は指定フィールドを1回の$setで適用し、更新後のドキュメントを返す。
// 対象が見つからない場合はnilを返す。
func (r *MongoBookRepo) Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update model.BookUpdate) (*model.Book, error) {
	book := &model.Book{}
	err := r.coll.FindOneAndUpdate(ctx,
		bookFilter(id, owner),
		bookUpdateDocument(update),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

// Delete は書籍を削除し、削除時点のスナップショットを返す。
// 対象が見つからない場合はnilを返す。
func (r *MongoBookRepo) Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*model.Book, error) {
	book := &model.Book{}
	err := r.coll.FindOneAndDelete(ctx, bookFilter(id, owner)).Decode(book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete book: %w", err)
	}
	return book, nil
}

// ownerFilter は所有者条件のみのフィルタを構築する。nilは条件なし。
func ownerFilter(owner *primitive.ObjectID) bson.M {
	filter := bson.M{}
	if owner != nil {
		filter["owner"] = *owner
	}
	return filter
}

// bookFilter はID条件に所有者条件を組み合わせたフィルタを構築する。
// 存在チェックと更新・削除が同じフィルタを共有することで、
// 他ユーザー所有のドキュメントはnot foundとして扱われる。
func bookFilter(id primitive.ObjectID, owner *primitive.ObjectID) bson.M {
	filter := ownerFilter(owner)
	filter["_id"] = id
	return filter
}

// bookUpdateDocument は指定済みフィールドのみを$setする更新ドキュメントを構築する。
func bookUpdateDocument(update model.BookUpdate) bson.M {
	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Author != nil {
		set["author"] = *update.Author
	}
	if update.ISBN != nil {
		set["isbn"] = *update.ISBN
	}
	if update.Rating != nil {
		set["rating"] = *update.Rating
	}
	return bson.M{"$set": set}
}

// compile-time interface check
var _ BookRepository = (*MongoBookRepo)(nil)
