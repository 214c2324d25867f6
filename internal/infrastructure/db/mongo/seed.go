package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/bidgate/rfp-platform/internal/core/domain"
)

// demoPassword is the well-known credential for the seeded demo accounts.
const demoPassword = "Password123"

// SeedDemoData inserts the demo accounts and sample catalog used by the demo
// environment. Safe to call repeatedly; existing documents are left alone.
// Not intended for production databases.
func SeedDemoData(ctx context.Context, db *mongo.Database) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed: hash demo password: %w", err)
	}

	now := time.Now().UTC()
	users := []domain.User{
		{ID: "user-1", Name: "John Anderson", Email: "john@example.com", Company: "Acme Corp", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now},
		{ID: "user-2", Name: "Jane Smith", Email: "jane@example.com", Company: "TechFlow Inc", Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now},
		{ID: "user-3", Name: "Mike Chen", Email: "mike@example.com", Company: "DataSys Ltd", Role: domain.RoleViewer, CreatedAt: now, UpdatedAt: now},
	}

	userCol := db.Collection(collectionUsers)
	for _, u := range users {
		u.PasswordHash = string(hash)
		if err := insertIfAbsent(ctx, userCol, u.ID, toUserDoc(&u)); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	products := []domain.Product{
		{ID: "prod-1", OwnerID: "user-1", Name: "Enterprise CRM Suite", Category: "software", SKU: "CRM-ENT-01", Price: 24000, Currency: "USD", CreatedAt: now, UpdatedAt: now},
		{ID: "prod-2", OwnerID: "user-2", Name: "Cloud Migration Service", Category: "services", SKU: "SVC-MIG-02", Price: 8500, Currency: "USD", CreatedAt: now, UpdatedAt: now},
		{ID: "prod-3", OwnerID: "user-1", Name: "Analytics Dashboard", Category: "software", SKU: "ANL-DSH-03", Price: 5600, Currency: "USD", CreatedAt: now, UpdatedAt: now},
	}

	productCol := db.Collection(collectionProducts)
	for _, p := range products {
		if err := insertIfAbsent(ctx, productCol, p.ID, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}

	rfps := []domain.RFP{
		{
			ID: "rfp-1", OwnerID: "user-2", Title: "ERP Replacement Program",
			ClientName: "Northwind Logistics", Status: domain.StatusSubmitted,
			DueDate: now.AddDate(0, 1, 0),
			StatusHistory: []domain.StatusHistoryEntry{
				{Status: domain.StatusDraft, Timestamp: now.Add(-48 * time.Hour), ActorID: "user-2"},
				{Status: domain.StatusSubmitted, Timestamp: now, ActorID: "user-2"},
			},
			CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now,
		},
		{
			ID: "rfp-2", OwnerID: "user-1", Title: "Data Platform Modernisation",
			ClientName: "Globex Retail", Status: domain.StatusDraft,
			DueDate: now.AddDate(0, 2, 0),
			StatusHistory: []domain.StatusHistoryEntry{
				{Status: domain.StatusDraft, Timestamp: now, ActorID: "user-1"},
			},
			CreatedAt: now, UpdatedAt: now,
		},
	}

	rfpCol := db.Collection(collectionRFPs)
	for _, r := range rfps {
		if err := insertIfAbsent(ctx, rfpCol, r.ID, r); err != nil {
			return fmt.Errorf("seed rfp %s: %w", r.ID, err)
		}
	}

	return nil
}

func insertIfAbsent(ctx context.Context, col *mongo.Collection, id string, doc any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err = col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}
