// File: database/repository/firestoredoc/watch.go
package firestoreRepo

import (
	"context"
	"errors"
	"sync"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"arctech/models"
)

// Subscribe attaches a query snapshot listener to collectionID. The listen
// target is only registered on the first read, after Subscribe returns, so
// the first snapshot is reported as a whole-collection update.
func (r *firestoreAppointmentRepo) Subscribe(ctx context.Context, collectionID string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error) {
	watchCtx, cancel := context.WithCancel(ctx)
	it := r.client.Collection(collectionID).Snapshots(watchCtx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer it.Stop()
		first := true
		for {
			snap, err := it.Next()
			if err != nil {
				if watchCtx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				if onError != nil {
					onError(mapError(err, "snapshot listener on %q", collectionID))
				}
				return
			}
			events := snapshotEvents(snap, collectionID, first)
			first = false
			for _, ev := range events {
				onEvent(ev)
			}
		}
	}()

	r.logger.Info("listening for appointment changes", zap.String("collection", collectionID))
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// snapshotEvents maps a snapshot to notifications. The baseline snapshot
// lists every document as added; it collapses into one update.
func snapshotEvents(snap *firestore.QuerySnapshot, collectionID string, baseline bool) []models.ChangeEvent {
	if baseline {
		return []models.ChangeEvent{{Type: models.ChangeUpdate, Collection: collectionID}}
	}
	return changeEvents(snap, collectionID)
}

func changeEvents(snap *firestore.QuerySnapshot, collectionID string) []models.ChangeEvent {
	if snap == nil || len(snap.Changes) == 0 {
		return []models.ChangeEvent{{Type: models.ChangeUpdate, Collection: collectionID}}
	}
	events := make([]models.ChangeEvent, 0, len(snap.Changes))
	for _, ch := range snap.Changes {
		events = append(events, models.ChangeEvent{
			Type:       changeType(ch.Kind),
			ID:         ch.Doc.Ref.ID,
			Collection: collectionID,
		})
	}
	return events
}

func changeType(kind firestore.DocumentChangeKind) models.ChangeType {
	switch kind {
	case firestore.DocumentAdded:
		return models.ChangeCreate
	case firestore.DocumentRemoved:
		return models.ChangeDelete
	default:
		return models.ChangeUpdate
	}
}
