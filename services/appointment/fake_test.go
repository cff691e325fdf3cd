package appointment

import (
	"context"
	"errors"
	"sort"
	"sync"

	"arctech/models"
)

// fakeDocs is an in-memory DocumentService that notifies subscribers after
// every mutation, like a realtime document database would.
type fakeDocs struct {
	mu          sync.Mutex
	docs        map[string]models.AppointmentDocument
	subscribers map[int]func(models.ChangeEvent)
	feedErrors  map[int]func(error)
	nextSub     int

	listErr      error
	subscribeErr error

	listCalls   int
	createCalls int
	deleteCalls int
	unsubCalls  int
}

func newFakeDocs(docs ...models.AppointmentDocument) *fakeDocs {
	f := &fakeDocs{
		docs:        map[string]models.AppointmentDocument{},
		subscribers: map[int]func(models.ChangeEvent){},
		feedErrors:  map[int]func(error){},
	}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func doc(id, title, date string, duration interface{}) models.AppointmentDocument {
	return models.AppointmentDocument{
		ID:                id,
		AppointmentRecord: models.AppointmentRecord{Title: title, Date: date, Duration: duration},
	}
}

func (f *fakeDocs) ListDocuments(_ context.Context, _ string, _ string) ([]models.AppointmentDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.AppointmentDocument, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].ID < out[j].ID
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}

func (f *fakeDocs) CreateDocument(_ context.Context, collection, id string, rec models.AppointmentRecord) (models.AppointmentDocument, error) {
	f.mu.Lock()
	f.createCalls++
	d := models.AppointmentDocument{ID: id, AppointmentRecord: rec}
	f.docs[id] = d
	f.mu.Unlock()
	f.emit(models.ChangeEvent{Type: models.ChangeCreate, ID: id, Collection: collection})
	return d, nil
}

func (f *fakeDocs) DeleteDocument(_ context.Context, collection, id string) error {
	f.mu.Lock()
	f.deleteCalls++
	if _, ok := f.docs[id]; !ok {
		f.mu.Unlock()
		return models.NewNotFound("appointment %q does not exist in %q", id, collection)
	}
	delete(f.docs, id)
	f.mu.Unlock()
	f.emit(models.ChangeEvent{Type: models.ChangeDelete, ID: id, Collection: collection})
	return nil
}

func (f *fakeDocs) Subscribe(_ context.Context, _ string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	id := f.nextSub
	f.nextSub++
	f.subscribers[id] = onEvent
	f.feedErrors[id] = onError
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubCalls++
		delete(f.subscribers, id)
		delete(f.feedErrors, id)
	}, nil
}

// emit delivers an event as if another client had changed the collection.
func (f *fakeDocs) emit(ev models.ChangeEvent) {
	f.mu.Lock()
	subs := make([]func(models.ChangeEvent), 0, len(f.subscribers))
	for _, s := range f.subscribers {
		subs = append(subs, s)
	}
	f.mu.Unlock()
	for _, s := range subs {
		s(ev)
	}
}

func (f *fakeDocs) breakFeed(err error) {
	f.mu.Lock()
	errs := make([]func(error), 0, len(f.feedErrors))
	for _, e := range f.feedErrors {
		errs = append(errs, e)
	}
	f.mu.Unlock()
	for _, e := range errs {
		e(err)
	}
}

// putRemote inserts a document without going through the store, as another
// client would.
func (f *fakeDocs) putRemote(d models.AppointmentDocument) {
	f.mu.Lock()
	f.docs[d.ID] = d
	f.mu.Unlock()
	f.emit(models.ChangeEvent{Type: models.ChangeCreate, ID: d.ID})
}

func (f *fakeDocs) setListErr(err error) {
	f.mu.Lock()
	f.listErr = err
	f.mu.Unlock()
}

func (f *fakeDocs) counts() (list, create, del int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.createCalls, f.deleteCalls
}

func (f *fakeDocs) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:27017: connect: connection refused")

// fakeReminders records reminder calls.
type fakeReminders struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
}

func (r *fakeReminders) Schedule(_ context.Context, appt models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, appt.ID)
	return nil
}

func (r *fakeReminders) Cancel(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, id)
	return nil
}

func (r *fakeReminders) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.scheduled...), append([]string(nil), r.cancelled...)
}
