package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bidgate/rfp-platform/internal/core/domain"
	"github.com/bidgate/rfp-platform/internal/core/ports"
)

// ProductService implements catalog CRUD with ownership enforcement. Every
// mutation is gated by the acting session's capability predicates; reads are
// open to any session, guests included.
type ProductService struct {
	repo  ports.ProductRepository
	audit ports.AuditSink
	log   zerolog.Logger
}

func NewProductService(repo ports.ProductRepository, audit ports.AuditSink, log zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, audit: audit, log: log}
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// Create records a new product owned by the acting user.
func (s *ProductService) Create(ctx context.Context, actor *domain.Session, input ports.CreateProductInput) (*domain.Product, error) {
	if !actor.CanCreate() {
		return nil, domain.ErrPermissionDenied
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.NewString(),
		OwnerID:     actor.User.ID,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		SKU:         input.SKU,
		Price:       input.Price,
		Currency:    input.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   actor.User.ID,
		Action:    "product_created",
		Resource:  product.ID,
		Timestamp: now,
	})
	s.log.Info().Str("product_id", product.ID).Str("owner_id", product.OwnerID).Msg("product created")

	return product, nil
}

// Update mutates a product. Permission is checked against the stored owner,
// not anything the caller supplied.
func (s *ProductService) Update(ctx context.Context, actor *domain.Session, id string, input ports.UpdateProductInput) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(product.OwnerID) {
		return nil, domain.ErrPermissionDenied
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.SKU != nil {
		product.SKU = *input.SKU
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Currency != nil {
		product.Currency = *input.Currency
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   actor.User.ID,
		Action:    "product_updated",
		Resource:  product.ID,
		Timestamp: product.UpdatedAt,
	})

	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, actor *domain.Session, id string) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanDelete(product.OwnerID) {
		return domain.ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   actor.User.ID,
		Action:    "product_deleted",
		Resource:  id,
		Timestamp: time.Now().UTC(),
	})
	s.log.Info().Str("product_id", id).Msg("product deleted")

	return nil
}
