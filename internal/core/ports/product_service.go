package ports

import (
	"context"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// CreateProductInput carries all data needed to create a catalog product.
// The owner is the acting session's user, never caller-supplied.
type CreateProductInput struct {
	Name        string
	Description string
	Category    string
	SKU         string
	Price       float64
	Currency    string
}

// UpdateProductInput carries the mutable fields of a product. Nil pointers
// leave the stored value untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	SKU         *string
	Price       *float64
	Currency    *string
}

// ProductService defines use-case operations for the product catalog.
// Reads are open to any session including guests; mutations are gated by the
// acting session's capability predicates.
type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, actor *domain.Session, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, actor *domain.Session, id string, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, actor *domain.Session, id string) error
}

// ProductRepository defines the persistence interface for products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}
