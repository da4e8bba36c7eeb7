// Package database はMongoDBへの接続とインデックス管理を提供する。
package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// コレクション名。
const (
	CollectionUsers = "users"
	CollectionBooks = "books"
)

// Connect はMongoDBクライアントを生成して接続する。
// mongoURIは接続URLを指定する（例: "mongodb://localhost:27017"）。
// 実際の到達確認はPingで行うこと。
func Connect(ctx context.Context, mongoURI string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return client, nil
}

// Ping はプライマリノードへの到達性を確認する。
func Ping(ctx context.Context, client *mongo.Client) error {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

// EnsureIndexes はアプリケーションが前提とするインデックスを作成する。
// メールアドレスの一意制約はストア側で強制する。作成済みの場合は何もしない。
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection(CollectionUsers)

	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique email index: %w", err)
	}

	return nil
}
