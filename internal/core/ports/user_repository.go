package ports

import (
	"context"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// UserRepository defines the persistence interface for accounts.
// Email lookups are case-insensitive: implementations store and match the
// normalized (lowercased) address.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context) ([]domain.User, error)
}
