package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/dverhoef/taskhive/internal/handler"
	"github.com/dverhoef/taskhive/internal/repository/sqlite"
	"github.com/dverhoef/taskhive/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests"

type testEnv struct {
	mux  *http.ServeMux
	auth *service.AuthService
	db   *sqlite.DB
}

func newTestEnv(t *testing.T) *testEnv {
	// Generous limiter so unrelated tests never trip it.
	return newTestEnvWithLimiter(t, service.NewTokenBucket(100, 1000))
}

func newTestEnvWithLimiter(t *testing.T, limiter *service.TokenBucket) *testEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Use cost 4 for fast tests.
	auth := service.NewAuthService(db.Users(), testJWTSecret, 4)
	users := service.NewUserService(db.Users(), 4)
	tasks := service.NewTaskService(db.Tasks())
	avatars := service.NewAvatarService(db.Users(), db.Avatars())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, users, tasks, avatars, limiter)

	return &testEnv{mux: mux, auth: auth, db: db}
}

// doJSON performs a request against the mux with an optional JSON body and
// bearer token.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

type userEnvelope struct {
	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Age   int64  `json:"age"`
	} `json:"user"`
	Token string `json:"token"`
}

type taskBody struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Owner       int64  `json:"owner"`
}

// signup registers a user through the HTTP surface and returns its id and
// session token.
func (e *testEnv) signup(t *testing.T, name, email, password string) (int64, string) {
	t.Helper()
	rec := e.doJSON(t, http.MethodPost, "/users", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp userEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	return resp.User.ID, resp.Token
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
