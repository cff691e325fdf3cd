// File: database/repository/appointment/crud.go
package appointmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"arctech/models"
)

func (r *mongoAppointmentRepo) collectionExists(ctx context.Context, collectionID string) (bool, error) {
	names, err := r.db.ListCollectionNames(ctx, bson.M{"name": collectionID})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

func (r *mongoAppointmentRepo) ListDocuments(ctx context.Context, collectionID, orderBy string) ([]models.AppointmentDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := r.collectionExists(ctx, collectionID)
	if err != nil {
		return nil, mapError(err, "list collections of %q", r.db.Name())
	}
	if !exists {
		return nil, models.NewNotFound("collection %q does not exist in database %q", collectionID, r.db.Name())
	}

	opts := options.Find()
	if orderBy != "" {
		opts.SetSort(bson.D{{Key: orderBy, Value: 1}})
	}
	cursor, err := r.db.Collection(collectionID).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mapError(err, "find in %q", collectionID)
	}
	defer cursor.Close(ctx)

	var docs []models.AppointmentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapError(err, "decode %q", collectionID)
	}
	return docs, nil
}

func (r *mongoAppointmentRepo) CreateDocument(ctx context.Context, collectionID, id string, record models.AppointmentRecord) (models.AppointmentDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := models.AppointmentDocument{ID: id, AppointmentRecord: record}
	if _, err := r.db.Collection(collectionID).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.AppointmentDocument{}, models.NewValidationError("appointment %q already exists", id)
		}
		return models.AppointmentDocument{}, mapError(err, "insert into %q", collectionID)
	}
	r.publish(ctx, models.ChangeEvent{Type: models.ChangeCreate, ID: id, Collection: collectionID})
	return doc, nil
}

func (r *mongoAppointmentRepo) DeleteDocument(ctx context.Context, collectionID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.db.Collection(collectionID).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return mapError(err, "delete from %q", collectionID)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFound("appointment %q does not exist in %q", id, collectionID)
	}
	r.publish(ctx, models.ChangeEvent{Type: models.ChangeDelete, ID: id, Collection: collectionID})
	return nil
}

// publish is best effort: the write has already succeeded.
func (r *mongoAppointmentRepo) publish(ctx context.Context, ev models.ChangeEvent) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, ev); err != nil {
		r.logger.Warn("failed to publish change", zap.String("id", ev.ID), zap.Error(err))
	}
}

// mapError turns driver failures into the service taxonomy. Anything other
// than a missing document means the database could not serve the request.
func mapError(err error, format string, args ...interface{}) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFound(format, args...)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return models.NewRemoteUnavailable(err, format, args...)
	}
	return models.NewRemoteUnavailable(fmt.Errorf("mongo: %w", err), format, args...)
}
