package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

type stubResolver struct {
	sessions map[string]*domain.Session
}

func (r *stubResolver) Restore(_ context.Context, token string) (*domain.Session, error) {
	session, ok := r.sessions[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func newAuthTestContext(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthInjectsSession(t *testing.T) {
	resolver := &stubResolver{sessions: map[string]*domain.Session{
		"valid-token": {
			ID:   "sess-1",
			User: &domain.User{ID: "user-1", Role: domain.RoleAdmin},
		},
	}}

	c, _ := newAuthTestContext(t, "Bearer valid-token")

	var got *domain.Session
	next := func(c echo.Context) error {
		got, _ = c.Get(SessionKey).(*domain.Session)
		return nil
	}

	if err := Auth(resolver)(next)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if got == nil || got.ID != "sess-1" {
		t.Errorf("session not injected, got %+v", got)
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	resolver := &stubResolver{sessions: map[string]*domain.Session{}}
	c, _ := newAuthTestContext(t, "")

	err := Auth(resolver)(func(echo.Context) error {
		t.Fatal("next must not run")
		return nil
	})(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
}

func TestAuthRejectsRevokedToken(t *testing.T) {
	resolver := &stubResolver{sessions: map[string]*domain.Session{}}
	c, _ := newAuthTestContext(t, "Bearer revoked-token")

	err := Auth(resolver)(func(echo.Context) error {
		t.Fatal("next must not run")
		return nil
	})(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"standard", "Bearer abc123", "abc123", false},
		{"lowercase scheme", "bearer abc123", "abc123", false},
		{"missing header", "", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"no token", "Bearer", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newAuthTestContext(t, tt.header)
			got, err := BearerToken(c)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got token %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("token %q, want %q", got, tt.want)
			}
		})
	}
}
