package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"arctech/models"
	"arctech/services/calendar"
	"arctech/utils"
)

// Status is the load state of the controller.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// ReminderScheduler books and cancels reminders for appointments.
type ReminderScheduler interface {
	Schedule(ctx context.Context, appt models.Appointment) error
	Cancel(ctx context.Context, appointmentID string) error
}

// Announcer tells other devices about appointment changes.
type Announcer interface {
	AppointmentCreated(ctx context.Context, appt models.Appointment) error
	AppointmentDeleted(ctx context.Context, appointmentID string) error
}

// ControllerOptions configures a Controller. Zero values are usable.
type ControllerOptions struct {
	Location  *time.Location
	WeekStart time.Weekday
	Now       func() time.Time
	Reminders ReminderScheduler
	Announcer Announcer
	Logger    *zap.Logger
}

// View is a consistent snapshot of everything a client renders.
type View struct {
	Status       Status                `json:"status"`
	Error        string                `json:"error,omitempty"`
	Notice       string                `json:"notice,omitempty"`
	SelectedDate time.Time             `json:"selectedDate"`
	ViewMode     models.ViewMode       `json:"viewMode"`
	Month        string                `json:"month"`
	Grid         []models.CalendarCell `json:"grid"`
	Appointments []models.Appointment  `json:"appointments"`
	Total        int                   `json:"total"`
	Form         *FormState            `json:"form,omitempty"`
}

// Controller owns the view state and mirrors the remote appointment list.
// The list is never patched locally: every change arrives as a complete
// snapshot from the store subscription and replaces the previous one.
type Controller struct {
	store RemoteStore
	opts  ControllerOptions
	log   *zap.Logger

	mu          sync.RWMutex
	rootCtx     context.Context
	status      Status
	errMessage  string
	notice      string
	selected    time.Time
	mode        models.ViewMode
	form        *FormState
	events      []models.Appointment
	generation  uint64
	unsubscribe Unsubscribe
	closed      bool

	watchers    map[int]chan View
	nextWatcher int
	done        chan struct{}
}

// NewController builds a controller in the Loading state with today selected
// in Month mode.
func NewController(store RemoteStore, opts ControllerOptions) *Controller {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    store,
		opts:     opts,
		log:      logger,
		status:   StatusLoading,
		selected: utils.StartOfDay(opts.Now().In(opts.Location)),
		mode:     models.ViewMonth,
		events:   []models.Appointment{},
		watchers: make(map[int]chan View),
		done:     make(chan struct{}),
	}
}

// Start subscribes to the store. ctx bounds the subscription's lifetime.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.rootCtx != nil {
		c.mu.Unlock()
		return
	}
	c.rootCtx = ctx
	c.mu.Unlock()
	c.subscribe()
}

func (c *Controller) subscribe() {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	ctx := c.rootCtx
	c.status = StatusLoading
	c.errMessage = ""
	c.broadcastLocked()
	c.mu.Unlock()

	unsub := c.store.SubscribeToChanges(ctx,
		func(list []models.Appointment) { c.applySnapshot(gen, list) },
		func(err error) { c.applyError(gen, err) },
	)

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		unsub()
		return
	}
	c.unsubscribe = unsub
	c.mu.Unlock()
}

// Reload drops the current subscription and starts a fresh one. It is the
// only way out of the Error state.
func (c *Controller) Reload() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.NewRemoteUnavailable(nil, "controller is closed")
	}
	if c.rootCtx == nil {
		c.mu.Unlock()
		return models.NewRemoteUnavailable(nil, "controller was never started")
	}
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	c.log.Info("reloading appointments")
	c.subscribe()
	return nil
}

// Close unsubscribes and ends every watcher. Late completions are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.generation++
	unsub := c.unsubscribe
	c.unsubscribe = nil
	for id, ch := range c.watchers {
		close(ch)
		delete(c.watchers, id)
	}
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (c *Controller) applySnapshot(gen uint64, list []models.Appointment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation || c.status == StatusError {
		return
	}
	events := make([]models.Appointment, len(list))
	for i, a := range list {
		a.Date = a.Date.In(c.opts.Location)
		events[i] = a
	}
	c.events = events
	if c.status != StatusReady {
		c.log.Info("appointments loaded", zap.Int("count", len(events)))
	}
	c.status = StatusReady
	c.errMessage = ""
	c.broadcastLocked()
}

func (c *Controller) applyError(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		return
	}
	c.status = StatusError
	c.errMessage = "Failed to load appointments: " + describe(err)
	c.log.Error("appointments unavailable", zap.Error(err))
	c.broadcastLocked()
}

// SelectDate picks a day of the visible month and switches to Day mode.
func (c *Controller) SelectDate(d time.Time) error {
	if d.IsZero() {
		return models.NewValidationError("date is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	d = d.In(c.opts.Location)
	if !utils.IsSameMonth(d, c.selected) {
		return models.NewValidationError("%s is outside the visible month %s",
			d.Format(utils.DayLayout), c.selected.Format(utils.MonthLayout))
	}
	c.selected = utils.StartOfDay(d)
	c.mode = models.ViewDay
	c.broadcastLocked()
	return nil
}

// ShiftMonth moves the visible month by n months and selects its first day.
func (c *Controller) ShiftMonth(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = utils.StartOfMonth(c.selected).AddDate(0, n, 0)
	c.broadcastLocked()
}

// SetViewMode switches between Month and Day.
func (c *Controller) SetViewMode(mode models.ViewMode) error {
	if mode != models.ViewMonth && mode != models.ViewDay {
		return models.NewValidationError("unknown view mode %q", mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
	c.broadcastLocked()
	return nil
}

// UpdateForm replaces the pending draft.
func (c *Controller) UpdateForm(f FormState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = &f
	c.broadcastLocked()
}

// ClearForm discards the pending draft.
func (c *Controller) ClearForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = nil
	c.broadcastLocked()
}

// DismissNotice clears the advisory message.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = ""
	c.broadcastLocked()
}

// SubmitForm validates the draft and creates the appointment remotely. The
// list itself only changes when the subscription delivers the next snapshot.
// Failures leave the draft in place and set an advisory notice.
func (c *Controller) SubmitForm(ctx context.Context) (models.Appointment, error) {
	c.mu.Lock()
	if c.form == nil {
		c.mu.Unlock()
		return models.Appointment{}, models.NewValidationError("there is no pending appointment")
	}
	form := *c.form
	c.mu.Unlock()
	return c.submit(ctx, form, true)
}

// Submit validates and creates form without reading or replacing the draft.
func (c *Controller) Submit(ctx context.Context, form FormState) (models.Appointment, error) {
	return c.submit(ctx, form, false)
}

func (c *Controller) submit(ctx context.Context, form FormState, fromDraft bool) (models.Appointment, error) {
	c.mu.Lock()
	appt, err := form.ToAppointment(c.opts.Location)
	if err != nil {
		c.setNoticeLocked("Could not save appointment: " + describe(err))
		c.mu.Unlock()
		return models.Appointment{}, err
	}
	if err := c.readyLocked(); err != nil {
		c.setNoticeLocked("Could not save appointment: " + describe(err))
		c.mu.Unlock()
		return models.Appointment{}, err
	}
	c.mu.Unlock()

	created, err := c.store.Create(ctx, appt)
	if err != nil {
		c.mu.Lock()
		c.setNoticeLocked("Could not save appointment: " + describe(err))
		c.mu.Unlock()
		return models.Appointment{}, err
	}

	c.mu.Lock()
	// A draft edited while the create was in flight is kept.
	if fromDraft && c.form != nil && *c.form == form {
		c.form = nil
	}
	c.notice = ""
	c.broadcastLocked()
	c.mu.Unlock()

	if c.opts.Reminders != nil {
		if err := c.opts.Reminders.Schedule(ctx, created); err != nil {
			c.log.Warn("failed to schedule reminder", zap.String("id", created.ID), zap.Error(err))
		}
	}
	if c.opts.Announcer != nil {
		if err := c.opts.Announcer.AppointmentCreated(ctx, created); err != nil {
			c.log.Warn("failed to announce appointment", zap.String("id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

// Delete removes an appointment remotely. The local list is left alone;
// on failure an advisory notice is set.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if err := c.readyLocked(); err != nil {
		c.setNoticeLocked("Could not delete appointment: " + describe(err))
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		c.mu.Lock()
		c.setNoticeLocked("Could not delete appointment: " + describe(err))
		c.mu.Unlock()
		return err
	}

	if c.opts.Reminders != nil {
		if err := c.opts.Reminders.Cancel(ctx, id); err != nil {
			c.log.Warn("failed to cancel reminder", zap.String("id", id), zap.Error(err))
		}
	}
	if c.opts.Announcer != nil {
		if err := c.opts.Announcer.AppointmentDeleted(ctx, id); err != nil {
			c.log.Warn("failed to announce deletion", zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}

// Appointments returns the current snapshot; callers must not modify it.
func (c *Controller) Appointments() []models.Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events
}

// Location is the zone days are computed in.
func (c *Controller) Location() *time.Location { return c.opts.Location }

// WeekStart is the first column of the calendar grid.
func (c *Controller) WeekStart() time.Weekday { return c.opts.WeekStart }

// Now is the controller's clock.
func (c *Controller) Now() time.Time { return c.opts.Now().In(c.opts.Location) }

// View returns the current view.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewLocked()
}

// Watch streams views: the current one first, then one per change. Slow
// readers only see the latest view. The channel closes with ctx or Close.
func (c *Controller) Watch(ctx context.Context) <-chan View {
	ch := make(chan View, 1)
	c.mu.Lock()
	if c.closed {
		close(ch)
		c.mu.Unlock()
		return ch
	}
	id := c.nextWatcher
	c.nextWatcher++
	c.watchers[id] = ch
	ch <- c.viewLocked()
	c.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-c.done:
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if w, ok := c.watchers[id]; ok {
			close(w)
			delete(c.watchers, id)
		}
	}()
	return ch
}

func (c *Controller) viewLocked() View {
	var form *FormState
	if c.form != nil {
		f := *c.form
		form = &f
	}
	return View{
		Status:       c.status,
		Error:        c.errMessage,
		Notice:       c.notice,
		SelectedDate: c.selected,
		ViewMode:     c.mode,
		Month:        c.selected.Format(utils.MonthLayout),
		Grid: calendar.ComputeMonthGrid(c.selected, c.events, c.selected, calendar.GridOptions{
			WeekStart: c.opts.WeekStart,
			Now:       c.opts.Now(),
		}),
		Appointments: calendar.Filter(c.events, c.selected, c.mode),
		Total:        len(c.events),
		Form:         form,
	}
}

func (c *Controller) broadcastLocked() {
	if len(c.watchers) == 0 {
		return
	}
	v := c.viewLocked()
	for _, ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (c *Controller) setNoticeLocked(msg string) {
	c.notice = msg
	c.broadcastLocked()
}

func (c *Controller) readyLocked() error {
	if c.status != StatusReady {
		return models.NewRemoteUnavailable(nil, "appointments are not loaded (status %s)", c.status)
	}
	return nil
}

// describe renders err for people: the taxonomy message, plus its cause.
func describe(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			return fmt.Sprintf("%s (%v)", appErr.Message, appErr.Err)
		}
		return appErr.Message
	}
	return err.Error()
}
