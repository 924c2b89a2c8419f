package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gestimmo/internal/domain/auth"
)

func TestAuthSetsUserContext(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{
		UserID: "u1", RoleID: "r1", RoleName: auth.RoleHR, SessionID: "s1",
	}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var got auth.UserContext
	var found bool
	handler := Auth(secret)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, found = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("user context not set")
	}
	if got.UserID != "u1" || got.RoleName != auth.RoleHR || got.SessionID != "s1" {
		t.Fatalf("unexpected user context: %+v", got)
	}
}

func TestAuthIgnoresBadToken(t *testing.T) {
	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		handler := Auth("secret")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			if _, ok := GetUser(r.Context()); ok {
				t.Fatalf("header %q should not authenticate", header)
			}
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

type fakePermStore struct {
	allowed map[string]bool
	err     error
}

func (f *fakePermStore) HasPermission(_ context.Context, _, permission string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[permission], nil
}

func TestRequirePermission(t *testing.T) {
	store := &fakePermStore{allowed: map[string]bool{auth.PermPayrollRead: true}}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// No user in context.
	w := httptest.NewRecorder()
	RequirePermission(auth.PermPayrollRead, store)(next).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Authenticated but missing the permission.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", RoleID: "r1"}))
	w = httptest.NewRecorder()
	RequirePermission(auth.PermFinancePay, store)(next).ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	// Authenticated with the permission.
	w = httptest.NewRecorder()
	RequirePermission(auth.PermPayrollRead, store)(next).ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}
