package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

const collectionRFPs = "rfps"

// RFPRepository implements ports.RFPRepository using MongoDB.
type RFPRepository struct {
	col *mongo.Collection
}

func NewRFPRepository(db *mongo.Database) *RFPRepository {
	return &RFPRepository{col: db.Collection(collectionRFPs)}
}

func (r *RFPRepository) Create(ctx context.Context, rfp *domain.RFP) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, rfp)
	return err
}

func (r *RFPRepository) FindByID(ctx context.Context, id string) (*domain.RFP, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rfp domain.RFP
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rfp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRFPNotFound
		}
		return nil, err
	}
	return &rfp, nil
}

func (r *RFPRepository) List(ctx context.Context) ([]domain.RFP, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rfps []domain.RFP
	if err := cur.All(ctx, &rfps); err != nil {
		return nil, err
	}
	return rfps, nil
}

func (r *RFPRepository) Update(ctx context.Context, rfp *domain.RFP) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": rfp.ID}, rfp)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrRFPNotFound
	}
	return nil
}

// UpdateStatus atomically sets the RFP status and appends a history entry.
func (r *RFPRepository) UpdateStatus(ctx context.Context, id string, next domain.RFPStatus, entry domain.StatusHistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":     string(next),
			"updated_at": entry.Timestamp,
		},
		"$push": bson.M{"status_history": entry},
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrRFPNotFound
	}
	return nil
}

func (r *RFPRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrRFPNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes used by owner and status queries.
func (r *RFPRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
