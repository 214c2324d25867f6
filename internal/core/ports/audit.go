package ports

import (
	"context"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// AuditSink accepts audit events for asynchronous recording. Record never
// blocks the caller beyond queue capacity and never returns an error; audit
// failures must not fail the action being audited.
type AuditSink interface {
	Record(event domain.AuditEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	ListByActor(ctx context.Context, actorID string, limit int64) ([]domain.AuditEvent, error)
}
