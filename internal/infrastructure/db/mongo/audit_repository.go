package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

const collectionAudit = "audit_events"

// AuditRepository persists audit events. Insert-only; entries are never
// updated or deleted by the application.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	doc := bson.M{
		"actor_id":  event.ActorID,
		"action":    event.Action,
		"timestamp": event.Timestamp.UTC(),
	}
	if event.Resource != "" {
		doc["resource"] = event.Resource
	}
	if event.Detail != "" {
		doc["detail"] = event.Detail
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *AuditRepository) ListByActor(ctx context.Context, actorID string, limit int64) ([]domain.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"actor_id": actorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []domain.AuditEvent
	for cur.Next(ctx) {
		var doc struct {
			ActorID   string    `bson:"actor_id"`
			Action    string    `bson:"action"`
			Resource  string    `bson:"resource,omitempty"`
			Detail    string    `bson:"detail,omitempty"`
			Timestamp time.Time `bson:"timestamp"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		events = append(events, domain.AuditEvent{
			ActorID:   doc.ActorID,
			Action:    doc.Action,
			Resource:  doc.Resource,
			Detail:    doc.Detail,
			Timestamp: doc.Timestamp,
		})
	}
	return events, cur.Err()
}
