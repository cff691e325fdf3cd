package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arctech/models"
	"arctech/services/appointment"
)

// memoryDocs is a minimal in-memory document service.
type memoryDocs struct {
	mu   sync.Mutex
	docs map[string]models.AppointmentDocument
	subs []func(models.ChangeEvent)
}

func (m *memoryDocs) ListDocuments(context.Context, string, string) ([]models.AppointmentDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AppointmentDocument, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memoryDocs) CreateDocument(_ context.Context, coll, id string, rec models.AppointmentRecord) (models.AppointmentDocument, error) {
	m.mu.Lock()
	d := models.AppointmentDocument{ID: id, AppointmentRecord: rec}
	m.docs[id] = d
	subs := append([]func(models.ChangeEvent){}, m.subs...)
	m.mu.Unlock()
	for _, s := range subs {
		s(models.ChangeEvent{Type: models.ChangeCreate, ID: id, Collection: coll})
	}
	return d, nil
}

func (m *memoryDocs) DeleteDocument(_ context.Context, coll, id string) error {
	m.mu.Lock()
	if _, ok := m.docs[id]; !ok {
		m.mu.Unlock()
		return models.NewNotFound("appointment %q does not exist in %q", id, coll)
	}
	delete(m.docs, id)
	subs := append([]func(models.ChangeEvent){}, m.subs...)
	m.mu.Unlock()
	for _, s := range subs {
		s(models.ChangeEvent{Type: models.ChangeDelete, ID: id, Collection: coll})
	}
	return nil
}

func (m *memoryDocs) Subscribe(_ context.Context, _ string, onEvent func(models.ChangeEvent), _ func(error)) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, onEvent)
	return func() {}, nil
}

var testNow = time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T) (*gin.Engine, *appointment.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	docs := &memoryDocs{docs: map[string]models.AppointmentDocument{
		"a": {ID: "a", AppointmentRecord: models.AppointmentRecord{Title: "A", Date: "2024-03-05T10:00:00.000Z", Duration: 30}},
		"b": {ID: "b", AppointmentRecord: models.AppointmentRecord{Title: "B", Date: "2024-03-05T14:00:00.000Z", Duration: 30}},
		"c": {ID: "c", AppointmentRecord: models.AppointmentRecord{Title: "C", Date: "2024-04-01T09:00:00.000Z", Duration: 30}},
	}}
	ctrl := appointment.NewController(appointment.NewRemoteStore(docs, "appointments", nil), appointment.ControllerOptions{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
	t.Cleanup(ctrl.Close)
	ctrl.Start(context.Background())
	require.Eventually(t, func() bool { return ctrl.View().Status == appointment.StatusReady }, time.Second, 5*time.Millisecond)

	ah := NewAppointmentHandler(ctrl, nil)
	hb := NewHandlerBundle(ah, NewCalendarHandler(ctrl), HealthHandler(nil))

	r := gin.New()
	r.GET("/health", hb.HealthHandler)
	r.GET("/api/appointments", hb.ListAppointmentsHandler)
	r.GET("/api/appointments/view", hb.GetViewHandler)
	r.POST("/api/appointments", hb.CreateAppointmentHandler)
	r.DELETE("/api/appointments/:id", hb.DeleteAppointmentHandler)
	r.PUT("/api/appointments/form", hb.UpdateFormHandler)
	r.PUT("/api/view/date", hb.SelectDateHandler)
	r.PUT("/api/view/mode", hb.SetViewModeHandler)
	r.PUT("/api/view/month", hb.ShiftMonthHandler)
	r.GET("/api/calendar", hb.GetCalendarHandler)
	r.GET("/api/durations", hb.DurationsHandler)
	return r, ctrl
}

func perform(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeTitles(t *testing.T, raw []byte, key string) []string {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &body))
	var list []models.Appointment
	require.NoError(t, json.Unmarshal(body[key], &list))
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Title
	}
	return out
}

func TestListAppointmentsByDayAndMonth(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodGet, "/api/appointments?date=2024-03-05&view=day", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"A", "B"}, decodeTitles(t, w.Body.Bytes(), "appointments"))

	w = perform(r, http.MethodGet, "/api/appointments?date=2024-04-10&view=month", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"C"}, decodeTitles(t, w.Body.Bytes(), "appointments"))

	w = perform(r, http.MethodGet, "/api/appointments?date=04/10/2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/api/appointments?view=week", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectDateSwitchesToDay(t *testing.T) {
	r, ctrl := setupRouter(t)

	w := perform(r, http.MethodPut, "/api/view/date", gin.H{"date": "2024-03-05"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ViewDay, ctrl.View().ViewMode)
	assert.Equal(t, []string{"A", "B"}, decodeTitles(t, w.Body.Bytes(), "appointments"))

	w = perform(r, http.MethodPut, "/api/view/date", gin.H{"date": "2024-04-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPut, "/api/view/month", gin.H{"offset": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-04", ctrl.View().Month)

	w = perform(r, http.MethodPut, "/api/view/mode", gin.H{"mode": "month"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"C"}, decodeTitles(t, w.Body.Bytes(), "appointments"))
}

func TestCreateAppointment(t *testing.T) {
	r, ctrl := setupRouter(t)

	w := perform(r, http.MethodPost, "/api/appointments", gin.H{"title": "", "date": "2024-03-06T09:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errBody))
	assert.Equal(t, string(models.CodeValidation), errBody["code"])

	w = perform(r, http.MethodPost, "/api/appointments", gin.H{"title": "Checkup", "date": "2024-03-06T09:00", "duration": 45})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Checkup", created.Title)
	assert.Equal(t, 45, created.DurationMinutes)

	require.Eventually(t, func() bool { return ctrl.View().Total == 4 }, time.Second, 5*time.Millisecond)
}

func TestConcurrentCreatesKeepTheirBodies(t *testing.T) {
	r, ctrl := setupRouter(t)

	names := []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank"}
	got := make([]string, len(names))
	codes := make([]int, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			w := perform(r, http.MethodPost, "/api/appointments", gin.H{"title": name, "date": "2024-03-06T09:00"})
			codes[i] = w.Code
			var created models.Appointment
			if json.Unmarshal(w.Body.Bytes(), &created) == nil {
				got[i] = created.Title
			}
		}(i, name)
	}
	wg.Wait()

	for i, name := range names {
		assert.Equal(t, http.StatusCreated, codes[i], name)
		assert.Equal(t, name, got[i])
	}
	assert.Nil(t, ctrl.View().Form)
	require.Eventually(t, func() bool { return ctrl.View().Total == 3+len(names) }, time.Second, 5*time.Millisecond)
}

func TestCreateFromStoredDraft(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodPost, "/api/appointments", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPut, "/api/appointments/form", gin.H{"title": "Draft", "date": "2024-03-07T11:30"})
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodPost, "/api/appointments", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.DefaultDurationMinutes, created.DurationMinutes)
}

func TestDeleteAppointment(t *testing.T) {
	r, ctrl := setupRouter(t)

	w := perform(r, http.MethodDelete, "/api/appointments/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 3, ctrl.View().Total)
	assert.NotEmpty(t, ctrl.View().Notice)

	w = perform(r, http.MethodDelete, "/api/appointments/c", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Eventually(t, func() bool { return ctrl.View().Total == 2 }, time.Second, 5*time.Millisecond)
}

func TestCalendarGrid(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodGet, "/api/calendar?month=2024-03&selected=2024-03-05", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Month string                `json:"month"`
		Cells []models.CalendarCell `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2024-03", body.Month)
	require.Len(t, body.Cells, 42)
	assert.Equal(t, 25, body.Cells[0].Date.Day())

	var selected, busy int
	for _, cell := range body.Cells {
		if cell.IsSelected {
			selected++
		}
		if cell.HasEvents && cell.InCurrentMonth {
			busy++
		}
	}
	assert.Equal(t, 1, selected)
	assert.Equal(t, 1, busy)

	w = perform(r, http.MethodGet, "/api/calendar?month=March", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDurationsAndHealth(t *testing.T) {
	r, _ := setupRouter(t)

	w := perform(r, http.MethodGet, "/api/durations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Durations []int `json:"durations"`
		Default   int   `json:"default"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []int{15, 30, 45, 60, 90, 120}, body.Durations)
	assert.Equal(t, 30, body.Default)

	w = perform(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
