package appointment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"arctech/models"
	"arctech/utils"
)

// DocumentService is the minimal CRUD + subscribe contract of the backing
// document database.
type DocumentService interface {
	ListDocuments(ctx context.Context, collectionID, orderBy string) ([]models.AppointmentDocument, error)
	CreateDocument(ctx context.Context, collectionID, id string, record models.AppointmentRecord) (models.AppointmentDocument, error)
	DeleteDocument(ctx context.Context, collectionID, id string) error
	// Subscribe delivers change notifications for channel until the returned
	// function is called. onError reports a broken feed.
	Subscribe(ctx context.Context, channel string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error)
}

// RemoteStore is the single source of truth for appointments.
type RemoteStore interface {
	List(ctx context.Context) ([]models.Appointment, error)
	SubscribeToChanges(ctx context.Context, onChange func([]models.Appointment), onError func(error)) Unsubscribe
	Create(ctx context.Context, appt models.Appointment) (models.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// Unsubscribe stops a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

const dateField = "date"

// DefaultRemoteStore implements RemoteStore over a DocumentService.
type DefaultRemoteStore struct {
	Service    DocumentService
	Collection string
	// Channel is the realtime channel; Collection when empty.
	Channel string
	Logger  *zap.Logger
}

// NewRemoteStore wires a store for one collection.
func NewRemoteStore(svc DocumentService, collection string, logger *zap.Logger) *DefaultRemoteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultRemoteStore{Service: svc, Collection: collection, Logger: logger}
}

func (s *DefaultRemoteStore) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultRemoteStore) channel() string {
	if s.Channel != "" {
		return s.Channel
	}
	return s.Collection
}

func (s *DefaultRemoteStore) configured() error {
	if s.Service == nil {
		return models.NewRemoteUnavailable(nil, "document service is not configured")
	}
	if strings.TrimSpace(s.Collection) == "" {
		return models.NewRemoteUnavailable(nil, "appointments collection is not configured")
	}
	return nil
}

// List fetches every appointment, ascending by date. Records whose date
// cannot be parsed are skipped; duplicate ids keep their first occurrence.
func (s *DefaultRemoteStore) List(ctx context.Context) ([]models.Appointment, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	docs, err := s.Service.ListDocuments(ctx, s.Collection, dateField)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", classify(err, "list collection %q", s.Collection))
	}

	seen := make(map[string]struct{}, len(docs))
	out := make([]models.Appointment, 0, len(docs))
	for _, doc := range docs {
		if _, dup := seen[doc.ID]; dup {
			s.logger().Warn("duplicate appointment id in listing", zap.String("id", doc.ID))
			continue
		}
		appt, err := FromDocument(doc)
		if err != nil {
			s.logger().Warn("skipping malformed appointment", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		seen[doc.ID] = struct{}{}
		out = append(out, appt)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Create validates the minimum the store needs, assigns an id and writes
// the record. Local state is not touched; the change feed propagates it.
func (s *DefaultRemoteStore) Create(ctx context.Context, appt models.Appointment) (models.Appointment, error) {
	if strings.TrimSpace(appt.Title) == "" {
		return models.Appointment{}, models.NewValidationError("title is required")
	}
	if appt.Date.IsZero() {
		return models.Appointment{}, models.NewValidationError("date is required")
	}
	if y := appt.Date.UTC().Year(); y < 0 || y > 9999 {
		return models.Appointment{}, models.NewInvalidDate(nil, "year %d cannot be stored as ISO-8601", y)
	}
	if err := s.configured(); err != nil {
		return models.Appointment{}, err
	}

	id := uuid.New().String()
	doc, err := s.Service.CreateDocument(ctx, s.Collection, id, ToRecord(appt))
	if err != nil {
		return models.Appointment{}, fmt.Errorf("create appointment: %w", classify(err, "create in collection %q", s.Collection))
	}
	if doc.ID == "" {
		doc.ID = id
	}
	created, err := FromDocument(doc)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	s.logger().Info("appointment created", zap.String("id", created.ID), zap.Time("date", created.Date))
	return created, nil
}

// Delete removes the appointment with id; NotFound when it does not exist.
func (s *DefaultRemoteStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return models.NewValidationError("appointment id is required")
	}
	if err := s.configured(); err != nil {
		return err
	}
	if err := s.Service.DeleteDocument(ctx, s.Collection, id); err != nil {
		return fmt.Errorf("delete appointment %s: %w", id, classify(err, "delete from collection %q", s.Collection))
	}
	s.logger().Info("appointment deleted", zap.String("id", id))
	return nil
}

// SubscribeToChanges primes onChange with a full listing and re-lists on
// every change notification. Notifications that arrive while a listing is
// in flight collapse into one follow-up listing. Every failure is reported
// to onError once and is not retried. No callback runs after the returned
// Unsubscribe has been called.
func (s *DefaultRemoteStore) SubscribeToChanges(ctx context.Context, onChange func([]models.Appointment), onError func(error)) Unsubscribe {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		store:    s,
		ctx:      subCtx,
		cancel:   cancel,
		onChange: onChange,
		onError:  onError,
		dirty:    make(chan struct{}, 1),
	}
	sub.alive.Store(true)

	if err := s.configured(); err != nil {
		go sub.fail(err)
		return sub.stop
	}

	stopFeed, err := s.Service.Subscribe(subCtx, s.channel(), sub.notify, sub.feedFailed)
	if err != nil {
		go sub.fail(models.NewRemoteUnavailable(err, "subscribe to channel %q", s.channel()))
		return sub.stop
	}
	sub.stopFeed = stopFeed

	sub.notify(models.ChangeEvent{Type: models.ChangeUpdate, Collection: s.Collection})
	go sub.run()
	return sub.stop
}

type subscription struct {
	store    *DefaultRemoteStore
	ctx      context.Context
	cancel   context.CancelFunc
	onChange func([]models.Appointment)
	onError  func(error)
	stopFeed func()

	dirty chan struct{}
	alive atomic.Bool
	once  sync.Once
	// serializes callbacks so listeners see one update at a time
	cbMu sync.Mutex
}

func (sub *subscription) notify(ev models.ChangeEvent) {
	sub.store.logger().Debug("change notification", zap.String("type", string(ev.Type)), zap.String("id", ev.ID))
	select {
	case sub.dirty <- struct{}{}:
	default:
	}
}

func (sub *subscription) feedFailed(err error) {
	sub.fail(models.NewRemoteUnavailable(err, "change feed for %q failed", sub.store.channel()))
}

func (sub *subscription) run() {
	for {
		select {
		case <-sub.ctx.Done():
			return
		case <-sub.dirty:
		}
		list, err := sub.store.List(sub.ctx)
		if !sub.alive.Load() {
			return
		}
		if err != nil {
			sub.fail(err)
			continue
		}
		sub.deliver(list)
	}
}

func (sub *subscription) deliver(list []models.Appointment) {
	sub.cbMu.Lock()
	defer sub.cbMu.Unlock()
	if sub.alive.Load() && sub.onChange != nil {
		sub.onChange(list)
	}
}

func (sub *subscription) fail(err error) {
	sub.cbMu.Lock()
	defer sub.cbMu.Unlock()
	if !sub.alive.Load() {
		return
	}
	sub.store.logger().Error("appointment subscription error", zap.Error(err))
	if sub.onError != nil {
		sub.onError(err)
	}
}

func (sub *subscription) stop() {
	sub.once.Do(func() {
		sub.alive.Store(false)
		sub.cancel()
		if sub.stopFeed != nil {
			sub.stopFeed()
		}
	})
}

// classify keeps taxonomy errors as they are and treats anything else the
// document service returns as the service being unavailable.
func classify(err error, format string, args ...interface{}) error {
	if _, ok := models.ErrorCodeOf(err); ok {
		return err
	}
	return models.NewRemoteUnavailable(err, format, args...)
}

// ToRecord converts an appointment to its persisted shape.
func ToRecord(a models.Appointment) models.AppointmentRecord {
	return models.AppointmentRecord{
		Title:    a.Title,
		Date:     utils.FormatISO(a.Date),
		Duration: a.DurationMinutes,
		Public:   a.IsPublic,
	}
}

// FromDocument parses a stored document back into an appointment.
func FromDocument(doc models.AppointmentDocument) (models.Appointment, error) {
	date, err := utils.ParseDate(doc.Date, nil)
	if err != nil {
		return models.Appointment{}, err
	}
	minutes, err := doc.DurationMinutes()
	if err != nil {
		return models.Appointment{}, models.NewValidationError("appointment %s: %v", doc.ID, err)
	}
	return models.Appointment{
		ID:              doc.ID,
		Title:           doc.Title,
		Date:            date,
		DurationMinutes: minutes,
		IsPublic:        doc.Public,
	}, nil
}
