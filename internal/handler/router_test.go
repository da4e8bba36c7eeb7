package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tajud99n/bookbag/internal/middleware"
	"github.com/tajud99n/bookbag/internal/model"
)

// mockAuthenticator はTokenAuthenticatorのモック実装。
type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockAuthenticator) AuthenticateToken(ctx context.Context, token string) (*model.User, error) {
	return m.authenticateFn(ctx, token)
}

// newTestRouter は既定の依存関係でルーターを組み立てる。
func newTestRouter(t *testing.T, mutate func(deps *RouterDeps)) http.Handler {
	t.Helper()

	user := &model.User{ID: primitive.NewObjectID(), Email: "reader@example.com"}

	deps := &RouterDeps{
		Authenticator: &mockAuthenticator{
			authenticateFn: func(ctx context.Context, token string) (*model.User, error) {
				if token == "valid-token" {
					return user, nil
				}
				return nil, model.ErrInvalidToken
			},
		},
		HealthChecker: HealthCheckFunc(func(ctx context.Context) error {
			return nil
		}),
		AuthService: &mockAuthService{
			registerFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
				return user, "issued-token", nil
			},
			loginFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
				return user, "issued-token", nil
			},
			logoutFn: func(ctx context.Context, u *model.User, token string) error {
				return nil
			},
		},
		BookStore: &mockBookStore{
			listFn: func(ctx context.Context, owner *primitive.ObjectID) ([]model.Book, error) {
				return []model.Book{}, nil
			},
		},
		OwnerScoped: true,
	}
	if mutate != nil {
		mutate(deps)
	}

	return NewRouter(deps)
}

func TestRouter_RootReturnsWelcome(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["msg"] != "welcome" {
		t.Errorf("msg = %q, want %q", got["msg"], "welcome")
	}
}

func TestRouter_HealthReflectsStoreReachability(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
	}{
		{name: "到達可能", pingErr: nil, wantStatus: http.StatusOK},
		{name: "到達不可", pingErr: errors.New("no reachable servers"), wantStatus: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, func(deps *RouterDeps) {
				deps.HealthChecker = HealthCheckFunc(func(ctx context.Context) error {
					return tt.pingErr
				})
			})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		method string
		target string
	}{
		{method: http.MethodGet, target: "/users/me"},
		{method: http.MethodDelete, target: "/users/me/token"},
		{method: http.MethodPost, target: "/books"},
		{method: http.MethodGet, target: "/books"},
		{method: http.MethodGet, target: "/books/" + primitive.NewObjectID().Hex()},
		{method: http.MethodPatch, target: "/books/" + primitive.NewObjectID().Hex()},
		{method: http.MethodDelete, target: "/books/" + primitive.NewObjectID().Hex()},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader("{}"))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRouter_ValidTokenReachesProtectedRoute(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(middleware.AuthHeader, "valid-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_BooksAllIsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/books/all", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_UnscopedBooksRoutesAreOpen(t *testing.T) {
	router := newTestRouter(t, func(deps *RouterDeps) {
		deps.OwnerScoped = false
	})

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_RegisterAndLoginArePublic(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, target := range []string{"/users", "/users/login"} {
		t.Run(target, func(t *testing.T) {
			body := `{"email":"reader@example.com","password":"secret1"}`
			req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
			if got := w.Header().Get(middleware.AuthHeader); got != "issued-token" {
				t.Errorf("x-auth header = %q, want %q", got, "issued-token")
			}
		})
	}
}

func TestRouter_RequestLogIncludesAuthenticatedUserID(t *testing.T) {
	var buf bytes.Buffer
	user := &model.User{ID: primitive.NewObjectID(), Email: "reader@example.com"}

	router := newTestRouter(t, func(deps *RouterDeps) {
		deps.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
		deps.Authenticator = &mockAuthenticator{
			authenticateFn: func(ctx context.Context, token string) (*model.User, error) {
				return user, nil
			},
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set(middleware.AuthHeader, "valid-token")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output: %v\nraw output: %s", err, buf.String())
	}
	if entry["user_id"] != user.ID.Hex() {
		t.Errorf("user_id = %v, want %q", entry["user_id"], user.ID.Hex())
	}
}

func TestRouter_CORSHeadersExposed(t *testing.T) {
	router := newTestRouter(t, func(deps *RouterDeps) {
		deps.CORSAllowedOrigin = "http://localhost:3000"
	})

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, middleware.AuthHeader) {
		t.Errorf("Expose-Headers = %q, want to contain %q", got, middleware.AuthHeader)
	}
}
