package ports

import (
	"context"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// SignupInput carries the data needed to create a new account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Company  string
}

// ResetRequest is returned by RequestPasswordReset. ResetURL is populated only
// when the email mapped to a known account; callers decide whether to expose
// it (the HTTP layer only does so in development).
type ResetRequest struct {
	ResetURL string
}

// AuthService owns the session lifecycle and the password-reset flow.
//
// The supersedes argument on Login and Signup is the bearer token the caller
// presented, if any. A guest session presented there is revoked before the
// authenticated session is minted, so there is no direct guest-to-authenticated
// transition.
type AuthService interface {
	Login(ctx context.Context, email, password, supersedes string) (*domain.Session, error)
	Signup(ctx context.Context, input SignupInput, supersedes string) (*domain.Session, error)
	Logout(ctx context.Context, token string) error
	ContinueAsGuest(ctx context.Context) (*domain.Session, error)
	TransitionFromGuest(ctx context.Context, token string) error
	Restore(ctx context.Context, token string) (*domain.Session, error)
	RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}
