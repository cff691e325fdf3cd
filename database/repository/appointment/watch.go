// File: database/repository/appointment/watch.go
package appointmentRepo

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"arctech/models"
)

type changeStreamEvent struct {
	OperationType string                      `bson:"operationType"`
	FullDocument  *models.AppointmentDocument `bson:"fullDocument"`
}

// Subscribe relays change notifications for collectionID through the change
// feed when one is configured, otherwise through a MongoDB change stream.
func (r *mongoAppointmentRepo) Subscribe(ctx context.Context, collectionID string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error) {
	if r.feed != nil {
		return r.feed.Subscribe(ctx, r.feed.Channel(collectionID), onEvent, onError)
	}
	return r.watchCollection(ctx, collectionID, onEvent, onError)
}

func (r *mongoAppointmentRepo) watchCollection(ctx context.Context, collectionID string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}}}}},
	}
	stream, err := r.db.Collection(collectionID).Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, mapError(err, "watch %q", collectionID)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stream.Close(context.Background())
		for stream.Next(watchCtx) {
			var raw changeStreamEvent
			if err := stream.Decode(&raw); err != nil {
				r.logger.Warn("undecodable change stream event", zap.Error(err))
				continue
			}
			onEvent(toChangeEvent(raw, collectionID))
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil && onError != nil {
			onError(mapError(err, "change stream on %q", collectionID))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func toChangeEvent(raw changeStreamEvent, collectionID string) models.ChangeEvent {
	ev := models.ChangeEvent{Type: models.ChangeUpdate, Collection: collectionID}
	switch raw.OperationType {
	case "insert":
		ev.Type = models.ChangeCreate
	case "delete":
		ev.Type = models.ChangeDelete
	}
	if raw.FullDocument != nil {
		ev.ID = raw.FullDocument.ID
	}
	return ev
}
