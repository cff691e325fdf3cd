// File: database/repository/firestoredoc/crud.go
package firestoreRepo

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"arctech/models"
)

func (r *firestoreAppointmentRepo) ListDocuments(ctx context.Context, collectionID, orderBy string) ([]models.AppointmentDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := r.client.Collection(collectionID).Query
	if orderBy != "" {
		query = query.OrderBy(orderBy, firestore.Asc)
	}
	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapError(err, "list %q", collectionID)
	}
	return decodeAll(snaps), nil
}

func (r *firestoreAppointmentRepo) CreateDocument(ctx context.Context, collectionID, id string, record models.AppointmentRecord) (models.AppointmentDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.client.Collection(collectionID).Doc(id).Create(ctx, record); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return models.AppointmentDocument{}, models.NewValidationError("appointment %q already exists", id)
		}
		return models.AppointmentDocument{}, mapError(err, "create %q in %q", id, collectionID)
	}
	return models.AppointmentDocument{ID: id, AppointmentRecord: record}, nil
}

func (r *firestoreAppointmentRepo) DeleteDocument(ctx context.Context, collectionID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.client.Collection(collectionID).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapError(err, "appointment %q in %q", id, collectionID)
	}
	return nil
}

func (r *firestoreAppointmentRepo) Close() error {
	return r.client.Close()
}

func decodeAll(snaps []*firestore.DocumentSnapshot) []models.AppointmentDocument {
	docs := make([]models.AppointmentDocument, 0, len(snaps))
	for _, snap := range snaps {
		var rec models.AppointmentRecord
		if err := snap.DataTo(&rec); err != nil {
			// keep the id so the store can report the malformed record
			rec = models.AppointmentRecord{}
		}
		docs = append(docs, models.AppointmentDocument{ID: snap.Ref.ID, AppointmentRecord: rec})
	}
	return docs
}

// mapError turns gRPC statuses into the service taxonomy.
func mapError(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	switch status.Code(err) {
	case codes.NotFound:
		return models.NewNotFound("%s does not exist", msg)
	case codes.InvalidArgument, codes.FailedPrecondition:
		return models.NewValidationError("%s: %v", msg, err)
	}
	return models.NewRemoteUnavailable(err, "%s", msg)
}
