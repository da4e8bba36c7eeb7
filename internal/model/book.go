// Package model はドメインモデルを定義する。
package model

import (
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxRatingMagnitude は評価値の絶対値の上限（1桁）。
const MaxRatingMagnitude = 9

// Book は登録された書籍を表す。
// Ownerはオーナースコープモードでのみ設定され、
// グローバルモードでは省略される（2つのスキーマ形状は混在しない）。
type Book struct {
	ID     primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Title  string              `bson:"title" json:"title"`
	Author string              `bson:"author" json:"author"`
	ISBN   string              `bson:"isbn" json:"isbn"`
	Rating float64             `bson:"rating" json:"rating"`
	Owner  *primitive.ObjectID `bson:"owner,omitempty" json:"owner,omitempty"`
}

// NewBook は入力値を検証して新しいBookを生成する。
// title/author/isbnはトリム後に非空であること、ratingは指定必須かつ
// 絶対値が1桁であることを要求する。違反時はErrValidationを返す。
func NewBook(title, author, isbn string, rating *float64, owner *primitive.ObjectID) (*Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	isbn = strings.TrimSpace(isbn)

	if title == "" || author == "" || isbn == "" {
		return nil, ErrValidation
	}
	if rating == nil {
		return nil, ErrValidation
	}
	if err := validateRating(*rating); err != nil {
		return nil, err
	}

	return &Book{
		Title:  title,
		Author: author,
		ISBN:   isbn,
		Rating: *rating,
		Owner:  owner,
	}, nil
}

// BookUpdate は部分更新で設定可能なフィールドの集合。
// nilのフィールドは変更しない。
type BookUpdate struct {
	Title  *string
	Author *string
	ISBN   *string
	Rating *float64
}

// Empty は更新対象のフィールドが1つも指定されていないかを返す。
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.ISBN == nil && u.Rating == nil
}

// Normalize は指定済みの文字列フィールドをトリムして検証する。
// トリム後に空となるフィールド、または評価値の桁数違反はErrValidationを返す。
func (u *BookUpdate) Normalize() error {
	for _, f := range []**string{&u.Title, &u.Author, &u.ISBN} {
		if *f == nil {
			continue
		}
		v := strings.TrimSpace(**f)
		if v == "" {
			return ErrValidation
		}
		*f = &v
	}
	if u.Rating != nil {
		if err := validateRating(*u.Rating); err != nil {
			return err
		}
	}
	return nil
}

func validateRating(rating float64) error {
	if math.Abs(rating) > MaxRatingMagnitude {
		return ErrValidation
	}
	return nil
}
