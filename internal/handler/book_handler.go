// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tajud99n/bookbag/internal/middleware"
	"github.com/tajud99n/bookbag/internal/model"
)

// BookStore は書籍ハンドラーが必要とするストアインターフェース。
// repository.BookRepositoryがそのまま実装する。
type BookStore interface {
	Create(ctx context.Context, book *model.Book) error
	List(ctx context.Context, owner *primitive.ObjectID) ([]model.Book, error)
	FindByID(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*model.Book, error)
	Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, update model.BookUpdate) (*model.Book, error)
	Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) (*model.Book, error)
}

// BookHandler は書籍管理のHTTPハンドラー。
// scopedがtrueの場合は全操作が認証ユーザーの所有書籍に限定される。
type BookHandler struct {
	store  BookStore
	scoped bool
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(store BookStore, scoped bool) *BookHandler {
	return &BookHandler{
		store:  store,
		scoped: scoped,
	}
}

// createBookRequest は書籍作成リクエストのボディ。
// 認識するフィールド以外は無視される。
// Ratingはポインタとし、未指定と0を区別する。
type createBookRequest struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	ISBN   string   `json:"isbn"`
	Rating *float64 `json:"rating"`
}

// updateBookRequest は部分更新リクエストのボディ。
// nilのフィールドは更新対象にならない。
type updateBookRequest struct {
	Title  *string  `json:"title"`
	Author *string  `json:"author"`
	ISBN   *string  `json:"isbn"`
	Rating *float64 `json:"rating"`
}

// Create は書籍を作成する。
// POST /books
// 検証失敗・ストア失敗はいずれも400の空ボディ。
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.callerScope(w, r)
	if !ok {
		return
	}

	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	book, err := model.NewBook(req.Title, req.Author, req.ISBN, req.Rating, owner)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.store.Create(r.Context(), book); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// List は書籍一覧を返す。
// GET /books
// オーナースコープモードでは認証ユーザーの所有書籍のみ、
// グローバルモードでは全書籍を返す。
// ストア失敗は404とエラーペイロード（互換性のため500にはしない）。
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.callerScope(w, r)
	if !ok {
		return
	}

	books, err := h.store.List(r.Context(), owner)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, booksResponse{Books: books})
}

// ListAll は所有者を問わず全書籍を返す。認証不要。
// GET /books/all
func (h *BookHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.List(r.Context(), nil)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, booksResponse{Books: books})
}

// Get は指定IDの書籍を返す。
// GET /books/{id}
// ID形状不正・対象なし・他ユーザー所有はいずれも404の空ボディ。
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.callerScope(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	book, err := h.store.FindByID(r.Context(), id, owner)
	if err != nil || book == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, bookResponse{Book: book})
}

// Update は書籍を部分更新する。
// PATCH /books/{id}
// 認識するフィールド（title/author/isbn/rating）のうち指定されたものを
// すべて1回の更新で適用し、更新後のドキュメントを返す。
// ID形状不正・対象なしは404、検証失敗・更新失敗は400の空ボディ。
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.callerScope(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	update := model.BookUpdate{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Rating: req.Rating,
	}
	if err := update.Normalize(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// 存在チェックと更新の間の並行変更は許容する（楽観ロックなし）
	existing, err := h.store.FindByID(r.Context(), id, owner)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if existing == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if update.Empty() {
		writeJSON(w, http.StatusOK, bookResponse{Book: existing})
		return
	}

	book, err := h.store.Update(r.Context(), id, owner, update)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if book == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, bookResponse{Book: book})
}

// Delete は書籍を削除し、削除したドキュメントのスナップショットを返す。
// DELETE /books/{id}
// ID形状不正・対象なしは404、ストア失敗は400の空ボディ。
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.callerScope(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	book, err := h.store.Delete(r.Context(), id, owner)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if book == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, bookResponse{Book: book})
}

// callerScope は操作の所有者条件を解決する。
// オーナースコープモードでは認証ユーザーのIDを返し、
// 未認証の場合は401を書き込んでfalseを返す。
// グローバルモードでは常にnil（条件なし）を返す。
func (h *BookHandler) callerScope(w http.ResponseWriter, r *http.Request) (*primitive.ObjectID, bool) {
	if !h.scoped {
		return nil, true
	}

	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	id := user.ID
	return &id, true
}

// booksResponse は書籍一覧のAPIレスポンス。
type booksResponse struct {
	Books []model.Book `json:"books"`
}

// bookResponse は単一書籍のAPIレスポンス。
type bookResponse struct {
	Book *model.Book `json:"book"`
}

// errorResponse はエラーペイロード付きレスポンス。
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
