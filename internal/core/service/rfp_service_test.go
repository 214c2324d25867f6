package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bidgate/rfp-platform/internal/core/domain"
	"github.com/bidgate/rfp-platform/internal/core/ports"
)

type stubRFPRepo struct {
	rfps map[string]*domain.RFP
}

func newStubRFPRepo() *stubRFPRepo {
	return &stubRFPRepo{rfps: map[string]*domain.RFP{}}
}

func (r *stubRFPRepo) Create(_ context.Context, rfp *domain.RFP) error {
	r.rfps[rfp.ID] = rfp
	return nil
}

func (r *stubRFPRepo) FindByID(_ context.Context, id string) (*domain.RFP, error) {
	rfp, ok := r.rfps[id]
	if !ok {
		return nil, domain.ErrRFPNotFound
	}
	cp := *rfp
	return &cp, nil
}

func (r *stubRFPRepo) List(_ context.Context) ([]domain.RFP, error) {
	out := make([]domain.RFP, 0, len(r.rfps))
	for _, rfp := range r.rfps {
		out = append(out, *rfp)
	}
	return out, nil
}

func (r *stubRFPRepo) Update(_ context.Context, rfp *domain.RFP) error {
	if _, ok := r.rfps[rfp.ID]; !ok {
		return domain.ErrRFPNotFound
	}
	r.rfps[rfp.ID] = rfp
	return nil
}

func (r *stubRFPRepo) UpdateStatus(_ context.Context, id string, next domain.RFPStatus, entry domain.StatusHistoryEntry) error {
	rfp, ok := r.rfps[id]
	if !ok {
		return domain.ErrRFPNotFound
	}
	rfp.Status = next
	rfp.StatusHistory = append(rfp.StatusHistory, entry)
	rfp.UpdatedAt = entry.Timestamp
	return nil
}

func (r *stubRFPRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rfps[id]; !ok {
		return domain.ErrRFPNotFound
	}
	delete(r.rfps, id)
	return nil
}

func newRFPFixture() (*RFPService, *stubRFPRepo, *stubAudit) {
	repo := newStubRFPRepo()
	audit := &stubAudit{}
	return NewRFPService(repo, audit, zerolog.Nop()), repo, audit
}

func TestRFPCreateStartsInDraft(t *testing.T) {
	svc, _, audit := newRFPFixture()
	ctx := context.Background()

	rfp, err := svc.Create(ctx, actorSession(domain.RoleUser, "user-2"), ports.CreateRFPInput{
		Title:      "Cloud migration",
		ClientName: "Acme Corp",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rfp.Status != domain.StatusDraft {
		t.Errorf("status %q, want draft", rfp.Status)
	}
	if rfp.OwnerID != "user-2" {
		t.Errorf("owner %q, want user-2", rfp.OwnerID)
	}
	if len(rfp.StatusHistory) != 1 || rfp.StatusHistory[0].Status != domain.StatusDraft {
		t.Errorf("unexpected initial history: %+v", rfp.StatusHistory)
	}
	if !audit.has("rfp_created") {
		t.Error("missing rfp_created audit event")
	}
}

func TestRFPCreateDeniedForReadOnlySessions(t *testing.T) {
	svc, _, _ := newRFPFixture()
	ctx := context.Background()

	for _, actor := range []*domain.Session{
		actorSession(domain.RoleViewer, "user-3"),
		guestActor(),
	} {
		if _, err := svc.Create(ctx, actor, ports.CreateRFPInput{Title: "x"}); !errors.Is(err, domain.ErrPermissionDenied) {
			t.Errorf("actor %+v: got %v, want ErrPermissionDenied", actor, err)
		}
	}
}

func TestRFPStatusLifecycle(t *testing.T) {
	svc, repo, audit := newRFPFixture()
	ctx := context.Background()
	owner := actorSession(domain.RoleUser, "user-2")
	repo.rfps["rfp-1"] = &domain.RFP{
		ID:      "rfp-1",
		OwnerID: "user-2",
		Status:  domain.StatusDraft,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.StatusDraft, ActorID: "user-2"},
		},
	}

	for _, next := range []domain.RFPStatus{domain.StatusSubmitted, domain.StatusInReview, domain.StatusWon} {
		rfp, err := svc.UpdateStatus(ctx, owner, "rfp-1", next, "")
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if rfp.Status != next {
			t.Errorf("status %q, want %q", rfp.Status, next)
		}
	}

	stored := repo.rfps["rfp-1"]
	if len(stored.StatusHistory) != 4 {
		t.Errorf("history length %d, want 4", len(stored.StatusHistory))
	}
	if last := stored.StatusHistory[len(stored.StatusHistory)-1]; last.ActorID != "user-2" {
		t.Errorf("history actor %q, want user-2", last.ActorID)
	}
	if !audit.has("rfp_status_changed") {
		t.Error("missing rfp_status_changed audit event")
	}
}

func TestRFPStatusRejectsInvalidTransition(t *testing.T) {
	svc, repo, _ := newRFPFixture()
	ctx := context.Background()
	owner := actorSession(domain.RoleUser, "user-2")
	repo.rfps["rfp-1"] = &domain.RFP{ID: "rfp-1", OwnerID: "user-2", Status: domain.StatusDraft}

	// Draft cannot jump straight to won.
	if _, err := svc.UpdateStatus(ctx, owner, "rfp-1", domain.StatusWon, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
	// Nothing was written.
	if repo.rfps["rfp-1"].Status != domain.StatusDraft {
		t.Errorf("status changed despite invalid transition: %q", repo.rfps["rfp-1"].Status)
	}
}

func TestRFPStatusRequiresEditPermission(t *testing.T) {
	svc, repo, _ := newRFPFixture()
	ctx := context.Background()
	repo.rfps["rfp-1"] = &domain.RFP{ID: "rfp-1", OwnerID: "user-2", Status: domain.StatusDraft}

	// A different member cannot move someone else's RFP.
	if _, err := svc.UpdateStatus(ctx, actorSession(domain.RoleUser, "user-9"), "rfp-1", domain.StatusSubmitted, ""); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("non-owner: got %v, want ErrPermissionDenied", err)
	}
	// Admin can.
	if _, err := svc.UpdateStatus(ctx, actorSession(domain.RoleAdmin, "user-1"), "rfp-1", domain.StatusSubmitted, "looks ready"); err != nil {
		t.Errorf("admin: %v", err)
	}
	if last := repo.rfps["rfp-1"].StatusHistory[len(repo.rfps["rfp-1"].StatusHistory)-1]; last.Notes != "looks ready" {
		t.Errorf("notes %q, want %q", last.Notes, "looks ready")
	}
}

func TestRFPUpdateAndDelete(t *testing.T) {
	svc, repo, _ := newRFPFixture()
	ctx := context.Background()
	repo.rfps["rfp-1"] = &domain.RFP{ID: "rfp-1", OwnerID: "user-2", Title: "Original"}

	title := "Amended"
	if _, err := svc.Update(ctx, guestActor(), "rfp-1", ports.UpdateRFPInput{Title: &title}); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("guest update: got %v, want ErrPermissionDenied", err)
	}

	updated, err := svc.Update(ctx, actorSession(domain.RoleUser, "user-2"), "rfp-1", ports.UpdateRFPInput{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "Amended" {
		t.Errorf("title %q, want Amended", updated.Title)
	}

	if err := svc.Delete(ctx, actorSession(domain.RoleUser, "user-9"), "rfp-1"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("non-owner delete: got %v, want ErrPermissionDenied", err)
	}
	if err := svc.Delete(ctx, actorSession(domain.RoleUser, "user-2"), "rfp-1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, ok := repo.rfps["rfp-1"]; ok {
		t.Error("rfp still present after delete")
	}
}

func TestRFPNotFound(t *testing.T) {
	svc, _, _ := newRFPFixture()
	ctx := context.Background()

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, domain.ErrRFPNotFound) {
		t.Errorf("get: got %v, want ErrRFPNotFound", err)
	}
	if _, err := svc.UpdateStatus(ctx, actorSession(domain.RoleAdmin, "user-1"), "missing", domain.StatusSubmitted, ""); !errors.Is(err, domain.ErrRFPNotFound) {
		t.Errorf("update status: got %v, want ErrRFPNotFound", err)
	}
}
