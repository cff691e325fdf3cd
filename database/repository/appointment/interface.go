// File: database/repository/appointment/interface.go
package appointmentRepo

import (
	"arctech/models"
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AppointmentRepository is the document service backed by MongoDB.
type AppointmentRepository interface {
	ListDocuments(ctx context.Context, collectionID, orderBy string) ([]models.AppointmentDocument, error)
	CreateDocument(ctx context.Context, collectionID, id string, record models.AppointmentRecord) (models.AppointmentDocument, error)
	DeleteDocument(ctx context.Context, collectionID, id string) error
	Subscribe(ctx context.Context, collectionID string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error)
	EnsureCollection(ctx context.Context, collectionID string) error
}

// ChangeFeed relays change events between instances.
type ChangeFeed interface {
	Channel(collection string) string
	Publish(ctx context.Context, ev models.ChangeEvent) error
	Subscribe(ctx context.Context, channel string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error)
}

type mongoAppointmentRepo struct {
	db     *mongo.Database
	feed   ChangeFeed
	logger *zap.Logger
}

// NewMongoAppointmentRepo constructs the MongoDB repository. With a nil feed
// realtime updates come from MongoDB change streams.
func NewMongoAppointmentRepo(client *mongo.Client, dbName string, feed ChangeFeed, logger *zap.Logger) AppointmentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &mongoAppointmentRepo{
		db:     client.Database(dbName),
		feed:   feed,
		logger: logger,
	}
}
