package ports

import (
	"context"
	"time"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// SessionStore holds the authoritative session records. A token is only valid
// while its record exists; deleting the record revokes the token.
type SessionStore interface {
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Find(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// ResetStore holds password-reset entries. Put supersedes any live entry for
// the same email; Delete makes a token single-use.
type ResetStore interface {
	Put(ctx context.Context, entry *domain.PasswordResetEntry) error
	Find(ctx context.Context, token string) (*domain.PasswordResetEntry, error)
	Delete(ctx context.Context, token string) error
}
