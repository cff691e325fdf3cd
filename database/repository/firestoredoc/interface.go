// File: database/repository/firestoredoc/interface.go
package firestoreRepo

import (
	"arctech/models"
	"context"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
)

// AppointmentRepository is the document service backed by Cloud Firestore.
type AppointmentRepository interface {
	ListDocuments(ctx context.Context, collectionID, orderBy string) ([]models.AppointmentDocument, error)
	CreateDocument(ctx context.Context, collectionID, id string, record models.AppointmentRecord) (models.AppointmentDocument, error)
	DeleteDocument(ctx context.Context, collectionID, id string) error
	Subscribe(ctx context.Context, collectionID string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error)
	Close() error
}

type firestoreAppointmentRepo struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreAppointmentRepo wraps an initialized Firestore client.
func NewFirestoreAppointmentRepo(client *firestore.Client, logger *zap.Logger) AppointmentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &firestoreAppointmentRepo{client: client, logger: logger}
}
