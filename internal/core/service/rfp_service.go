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

// RFPService implements RFP CRUD and the status lifecycle. New RFPs start in
// draft; transitions are validated against the domain state machine.
type RFPService struct {
	repo  ports.RFPRepository
	audit ports.AuditSink
	log   zerolog.Logger
}

func NewRFPService(repo ports.RFPRepository, audit ports.AuditSink, log zerolog.Logger) *RFPService {
	return &RFPService{repo: repo, audit: audit, log: log}
}

func (s *RFPService) List(ctx context.Context) ([]domain.RFP, error) {
	return s.repo.List(ctx)
}

func (s *RFPService) Get(ctx context.Context, id string) (*domain.RFP, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *RFPService) Create(ctx context.Context, actor *domain.Session, input ports.CreateRFPInput) (*domain.RFP, error) {
	if !actor.CanCreate() {
		return nil, domain.ErrPermissionDenied
	}

	now := time.Now().UTC()
	rfp := &domain.RFP{
		ID:          uuid.NewString(),
		OwnerID:     actor.User.ID,
		Title:       input.Title,
		ClientName:  input.ClientName,
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      domain.StatusDraft,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusDraft, Timestamp: now, ActorID: actor.User.ID},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, rfp); err != nil {
		return nil, fmt.Errorf("create rfp: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   actor.User.ID,
		Action:    "rfp_created",
		Resource:  rfp.ID,
		Timestamp: now,
	})
	s.log.Info().Str("rfp_id", rfp.ID).Str("owner_id", rfp.OwnerID).Msg("rfp created")

	return rfp, nil
}

func (s *RFPService) Update(ctx context.Context, actor *domain.Session, id string, input ports.UpdateRFPInput) (*domain.RFP, error) {
	rfp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(rfp.OwnerID) {
		return nil, domain.ErrPermissionDenied
	}

	if input.Title != nil {
		rfp.Title = *input.Title
	}
	if input.ClientName != nil {
		rfp.ClientName = *input.ClientName
	}
	if input.Description != nil {
		rfp.Description = *input.Description
	}
	if input.DueDate != nil {
		rfp.DueDate = *input.DueDate
	}
	rfp.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, rfp); err != nil {
		return nil, fmt.Errorf("update rfp: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   actor.User.ID,
		Action:    "rfp_updated",
		Resource:  rfp.ID,
		Timestamp: rfp.UpdatedAt,
	})

	return rfp, nil
}

// UpdateStatus advances the RFP through its lifecycle. The transition is
// validated before anything is written; the history entry records who moved it.
func (s *RFPService) UpdateStatus(ctx context.Context, actor *domain.Session, id string, next domain.RFPStatus, notes string) (*domain.RFP, error) {
	rfp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(rfp.OwnerID) {
		return nil, domain.ErrPermissionDenied
	}
	if !rfp.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, rfp.Status, next)
	}

	entry := domain.StatusHistoryEntry{
		Status:    next,
		Timestamp: time.Now().UTC(),
		ActorID:   actor.User.ID,
		Notes:     notes,
	}
	if err := s.repo.UpdateStatus(ctx, id, next, entry); err != nil {
		return nil, fmt.Errorf("update rfp status: %w", err)
	}

	rfp.Status = next
	rfp.StatusHistory = append(rfp.StatusHistory, entry)
	rfp.UpdatedAt = entry.Timestamp

	s.audit.Record(domain.AuditEvent{
		ActorID:   actor.User.ID,
		Action:    "rfp_status_changed",
		Resource:  rfp.ID,
		Detail:    string(next),
		Timestamp: entry.Timestamp,
	})
	s.log.Info().Str("rfp_id", rfp.ID).Str("status", string(next)).Msg("rfp status changed")

	return rfp, nil
}

func (s *RFPService) Delete(ctx context.Context, actor *domain.Session, id string) error {
	rfp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanDelete(rfp.OwnerID) {
		return domain.ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete rfp: %w", err)
	}

	s.audit.Record(domain.AuditEvent{
		ActorID:   actor.User.ID,
		Action:    "rfp_deleted",
		Resource:  id,
		Timestamp: time.Now().UTC(),
	})
	s.log.Info().Str("rfp_id", id).Msg("rfp deleted")

	return nil
}
