package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tajud99n/bookbag/internal/database"
	"github.com/tajud99n/bookbag/internal/model"
)

// MongoUserRepo はMongoDBを使用したユーザーリポジトリ。
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo はMongoUserRepoを生成する。
func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(database.CollectionUsers)}
}

// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
// メールアドレスの一意制約違反の場合はmodel.ErrDuplicateEmailを返す。
func (r *MongoUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.Tokens == nil {
		user.Tokens = []model.UserToken{}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted ID type: %T", res.InsertedID)
	}
	user.ID = id

	return nil
}

// FindByEmail は正規化済みメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByIDAndToken は指定IDかつ指定トークンを保持するユーザーを取得する。
// 見つからない場合はnilを返す。
func (r *MongoUserRepo) FindByIDAndToken(ctx context.Context, id primitive.ObjectID, token string) (*model.User, error) {
	user := &model.User{}
	err := r.coll.FindOne(ctx, userTokenFilter(id, token)).Decode(user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by token: %w", err)
	}
	return user, nil
}

// AppendToken は有効トークン一覧にトークンを追加して永続化する。
func (r *MongoUserRepo) AppendToken(ctx context.Context, id primitive.ObjectID, token model.UserToken) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"tokens": token}},
	)
	if err != nil {
		return fmt.Errorf("failed to append token: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// RemoveToken は有効トークン一覧から完全一致するトークンのみを削除する。
func (r *MongoUserRepo) RemoveToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		tokenPullUpdate(token),
	)
	if err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// userTokenFilter はID・トークン文字列・access種別の3条件で照合するフィルタを構築する。
// 署名が有効でも一覧から削除済みのトークンはここで弾かれる。
func userTokenFilter(id primitive.ObjectID, token string) bson.M {
	return bson.M{
		"_id":           id,
		"tokens.token":  token,
		"tokens.access": model.TokenAccessAuth,
	}
}

// tokenPullUpdate は指定トークン文字列のエントリを一覧から取り除く更新を構築する。
func tokenPullUpdate(token string) bson.M {
	return bson.M{"$pull": bson.M{"tokens": bson.M{"token": token}}}
}

// compile-time interface check
var _ UserRepository = (*MongoUserRepo)(nil)
