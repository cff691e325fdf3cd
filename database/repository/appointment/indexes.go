// FILE: database/repository/appointment/indexes.go
package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureCollection creates the appointments collection and its indexes.
func (r *mongoAppointmentRepo) EnsureCollection(ctx context.Context, collectionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := r.collectionExists(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("failed to inspect collection %s: %w", collectionID, err)
	}
	if !exists {
		if err := r.db.CreateCollection(ctx, collectionID); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collectionID, err)
		}
		r.logger.Info("created collection", zap.String("collection", collectionID))
	}

	indexModels := []mongo.IndexModel{
		// Unique index on appointment ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Listing order
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetName("date_idx"),
		},
	}

	if _, err := r.db.Collection(collectionID).Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}
	return nil
}
