package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/fridgly/internal/auth"
	"github.com/dukerupert/fridgly/internal/database"
	"github.com/dukerupert/fridgly/internal/identity"
	"github.com/dukerupert/fridgly/internal/inventory"
	"github.com/dukerupert/fridgly/internal/model"
	"github.com/dukerupert/fridgly/internal/session"
	"github.com/dukerupert/fridgly/internal/store"
)

const testSecret = "middleware-test-secret"

type authFixture struct {
	auth  *Authenticator
	dev   *identity.DevVerifier
	cache *session.MemoryCache
	users *store.UserStore
}

func setupAuthenticator(t *testing.T) *authFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	dev := identity.NewDevVerifier(testSecret)
	cache := session.NewMemoryCache(time.Hour)
	return &authFixture{
		auth:  NewAuthenticator(dev, inventory.NewDirectory(users), cache, slog.Default()),
		dev:   dev,
		cache: cache,
		users: users,
	}
}

func (f *authFixture) token(t *testing.T, id identity.Identity) string {
	t.Helper()
	tok, err := f.dev.Issue(id, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestRequireAuthNoToken(t *testing.T) {
	f := setupAuthenticator(t)

	handler := f.auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := errorBody(t, rec); got != ErrMissingToken.Error() {
		t.Errorf("error = %q, want %q", got, ErrMissingToken.Error())
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	f := setupAuthenticator(t)

	handler := f.auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	f := setupAuthenticator(t)
	tok := f.token(t, identity.Identity{ID: "uid-ann", DisplayName: "Ann"})

	var gotAC auth.AuthContext
	handler := f.auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.IdentityID != "uid-ann" {
		t.Errorf("IdentityID = %q, want %q", gotAC.IdentityID, "uid-ann")
	}

	u, err := f.users.GetByID(context.Background(), "uid-ann")
	if err != nil || u == nil {
		t.Fatalf("expected user to be created, got %v, %v", u, err)
	}
	if gotAC.GroupID != u.Groups[0] {
		t.Errorf("GroupID = %q, want %q", gotAC.GroupID, u.Groups[0])
	}

	cached, _ := f.cache.Load(context.Background(), "uid-ann")
	if cached == nil {
		t.Error("expected user to be cached after first request")
	}
}

type unreachableVerifier struct{}

func (unreachableVerifier) Verify(context.Context, string) (identity.Identity, error) {
	return identity.Identity{}, errors.New("verify id token: dial tcp: connection refused")
}

func TestRequireAuthVerifierUnavailable(t *testing.T) {
	f := setupAuthenticator(t)
	a := NewAuthenticator(unreachableVerifier{}, f.auth.groups, f.cache, slog.Default())

	handler := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestAuthenticateUsesCache(t *testing.T) {
	f := setupAuthenticator(t)
	ctx := context.Background()
	tok := f.token(t, identity.Identity{ID: "uid-bob"})

	// A cached record wins over the directory.
	f.cache.Save(ctx, &model.User{ID: "uid-bob", Groups: []string{"cached-group"}})

	ac, err := f.auth.Authenticate(ctx, tok)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if ac.GroupID != "cached-group" {
		t.Errorf("GroupID = %q, want %q", ac.GroupID, "cached-group")
	}
	if u, _ := f.users.GetByID(ctx, "uid-bob"); u != nil {
		t.Error("directory should not be consulted on a cache hit")
	}
}

func TestSignInBypassesCache(t *testing.T) {
	f := setupAuthenticator(t)
	ctx := context.Background()
	tok := f.token(t, identity.Identity{ID: "uid-cleo", DisplayName: "Cleo"})

	f.cache.Save(ctx, &model.User{ID: "uid-cleo", Groups: []string{"stale-group"}})

	_, m, err := f.auth.SignIn(ctx, tok)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !m.Created {
		t.Error("expected first sign-in to create the group")
	}
	cached, _ := f.cache.Load(ctx, "uid-cleo")
	if cached == nil || cached.Groups[0] != m.GroupID {
		t.Errorf("cache = %+v, want group %s", cached, m.GroupID)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
		ok     bool
	}{
		{"bearer", "Bearer abc", "", "abc", true},
		{"lowercase scheme", "bearer abc", "", "abc", true},
		{"basic", "Basic abc", "", "", false},
		{"empty bearer", "Bearer ", "", "", false},
		{"query", "", "abc", "abc", true},
		{"missing", "", "", "", false},
	}
	for _, tt := range tests {
		url := "/"
		if tt.query != "" {
			url += "?access_token=" + tt.query
		}
		req := httptest.NewRequest("GET", url, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, err := BearerToken(req)
		if (err == nil) != tt.ok {
			t.Errorf("%s: err = %v, want ok=%v", tt.name, err, tt.ok)
		}
		if got != tt.want {
			t.Errorf("%s: token = %q, want %q", tt.name, got, tt.want)
		}
	}
}
