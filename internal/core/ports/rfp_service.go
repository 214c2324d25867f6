package ports

import (
	"context"
	"time"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// CreateRFPInput carries all data needed to register a new RFP.
type CreateRFPInput struct {
	Title       string
	ClientName  string
	Description string
	DueDate     time.Time
}

// UpdateRFPInput carries the mutable fields of an RFP. Status changes go
// through UpdateStatus, not here.
type UpdateRFPInput struct {
	Title       *string
	ClientName  *string
	Description *string
	DueDate     *time.Time
}

// RFPService defines use-case operations for RFPs.
type RFPService interface {
	List(ctx context.Context) ([]domain.RFP, error)
	Get(ctx context.Context, id string) (*domain.RFP, error)
	Create(ctx context.Context, actor *domain.Session, input CreateRFPInput) (*domain.RFP, error)
	Update(ctx context.Context, actor *domain.Session, id string, input UpdateRFPInput) (*domain.RFP, error)
	UpdateStatus(ctx context.Context, actor *domain.Session, id string, next domain.RFPStatus, notes string) (*domain.RFP, error)
	Delete(ctx context.Context, actor *domain.Session, id string) error
}

// RFPRepository defines the persistence interface for RFPs.
type RFPRepository interface {
	Create(ctx context.Context, rfp *domain.RFP) error
	FindByID(ctx context.Context, id string) (*domain.RFP, error)
	List(ctx context.Context) ([]domain.RFP, error)
	Update(ctx context.Context, rfp *domain.RFP) error
	UpdateStatus(ctx context.Context, id string, next domain.RFPStatus, entry domain.StatusHistoryEntry) error
	Delete(ctx context.Context, id string) error
}
