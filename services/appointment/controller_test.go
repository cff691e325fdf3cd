package appointment

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arctech/models"
)

var march5 = time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

func scenarioDocs() *fakeDocs {
	return newFakeDocs(
		doc("a", "A", "2024-03-05T10:00:00.000Z", 30),
		doc("b", "B", "2024-03-05T14:00:00.000Z", 30),
		doc("c", "C", "2024-04-01T09:00:00.000Z", 30),
	)
}

func startController(t *testing.T, docs *fakeDocs, rem *fakeReminders) *Controller {
	t.Helper()
	opts := ControllerOptions{
		Location: time.UTC,
		Now:      func() time.Time { return march5 },
	}
	if rem != nil {
		opts.Reminders = rem
	}
	c := NewController(NewRemoteStore(docs, "appointments", nil), opts)
	t.Cleanup(c.Close)
	c.Start(context.Background())
	waitStatus(t, c, StatusReady)
	return c
}

func waitStatus(t *testing.T, c *Controller, want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return c.View().Status == want }, time.Second, 5*time.Millisecond)
}

func titles(list []models.Appointment) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Title
	}
	return out
}

func TestControllerStartsLoadingInMonthMode(t *testing.T) {
	c := NewController(NewRemoteStore(newFakeDocs(), "appointments", nil), ControllerOptions{
		Location: time.UTC,
		Now:      func() time.Time { return march5 },
	})
	v := c.View()
	assert.Equal(t, StatusLoading, v.Status)
	assert.Equal(t, models.ViewMonth, v.ViewMode)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), v.SelectedDate)
	assert.Len(t, v.Grid, 42)
	assert.Empty(t, v.Appointments)
}

func TestControllerDayAndMonthFiltering(t *testing.T) {
	c := startController(t, scenarioDocs(), nil)

	require.NoError(t, c.SelectDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	v := c.View()
	assert.Equal(t, models.ViewDay, v.ViewMode)
	assert.Equal(t, []string{"A", "B"}, titles(v.Appointments))

	require.NoError(t, c.SetViewMode(models.ViewMonth))
	v = c.View()
	assert.Equal(t, []string{"A", "B"}, titles(v.Appointments))
	assert.Equal(t, 3, v.Total)

	var busy []string
	for _, cell := range v.Grid {
		if cell.HasEvents {
			busy = append(busy, cell.Date.Format("2006-01-02"))
		}
	}
	assert.Equal(t, []string{"2024-03-05", "2024-04-01"}, busy)
}

func TestSelectDateOutsideVisibleMonth(t *testing.T) {
	c := startController(t, scenarioDocs(), nil)

	err := c.SelectDate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Equal(t, models.ViewMonth, c.View().ViewMode)

	c.ShiftMonth(1)
	v := c.View()
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), v.SelectedDate)
	assert.Equal(t, []string{"C"}, titles(v.Appointments))

	require.NoError(t, c.SelectDate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []string{"C"}, titles(c.View().Appointments))

	c.ShiftMonth(-2)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), c.View().SelectedDate)

	assert.True(t, errors.Is(c.SetViewMode("week"), models.ErrValidation))
}

func TestSubmitEmptyTitleMakesNoNetworkCall(t *testing.T) {
	docs := scenarioDocs()
	c := startController(t, docs, nil)

	draft := FormState{Title: "  ", Date: "2024-03-06T09:00", Duration: 30}
	c.UpdateForm(draft)
	_, err := c.SubmitForm(context.Background())
	assert.True(t, errors.Is(err, models.ErrValidation))

	_, created, _ := docs.counts()
	assert.Zero(t, created)
	v := c.View()
	require.NotNil(t, v.Form)
	assert.Equal(t, draft, *v.Form)
	assert.NotEmpty(t, v.Notice)
	assert.Equal(t, StatusReady, v.Status)
}

func TestSubmitWithoutDraft(t *testing.T) {
	c := startController(t, newFakeDocs(), nil)
	_, err := c.SubmitForm(context.Background())
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestSubmitCreatesAndWaitsForSnapshot(t *testing.T) {
	docs := scenarioDocs()
	rem := &fakeReminders{}
	c := startController(t, docs, rem)
	require.NoError(t, c.SelectDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))

	c.UpdateForm(FormState{Title: "Checkup", Date: "2024-03-05T12:00", Duration: 45})
	created, err := c.SubmitForm(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 45, created.DurationMinutes)

	require.Eventually(t, func() bool { return c.View().Total == 4 }, time.Second, 5*time.Millisecond)
	v := c.View()
	assert.Nil(t, v.Form)
	assert.Empty(t, v.Notice)
	assert.Equal(t, []string{"A", "Checkup", "B"}, titles(v.Appointments))

	scheduled, _ := rem.snapshot()
	assert.Equal(t, []string{created.ID}, scheduled)
}

func TestSubmitLeavesDraftUntouched(t *testing.T) {
	docs := scenarioDocs()
	c := startController(t, docs, nil)

	c.UpdateForm(FormState{Title: "Draft", Date: "2024-03-07T11:30"})
	alice, err := c.Submit(context.Background(), FormState{Title: "Alice", Date: "2024-03-06T09:00"})
	require.NoError(t, err)
	bob, err := c.Submit(context.Background(), FormState{Title: "Bob", Date: "2024-03-06T10:00"})
	require.NoError(t, err)

	assert.Equal(t, "Alice", alice.Title)
	assert.Equal(t, "Bob", bob.Title)
	require.NotNil(t, c.View().Form)
	assert.Equal(t, "Draft", c.View().Form.Title)

	_, err = c.Submit(context.Background(), FormState{Date: "2024-03-06T10:00"})
	assert.True(t, errors.Is(err, models.ErrValidation))
	_, creates, _ := docs.counts()
	assert.Equal(t, 2, creates)

	drafted, err := c.SubmitForm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Draft", drafted.Title)
	assert.Nil(t, c.View().Form)
}

func TestDeleteMissingKeepsList(t *testing.T) {
	docs := scenarioDocs()
	rem := &fakeReminders{}
	c := startController(t, docs, rem)
	before := c.Appointments()

	err := c.Delete(context.Background(), "does-not-exist")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	v := c.View()
	assert.Equal(t, StatusReady, v.Status)
	assert.Equal(t, before, c.Appointments())
	assert.Contains(t, v.Notice, "Could not delete appointment")

	_, cancelled := rem.snapshot()
	assert.Empty(t, cancelled)

	c.DismissNotice()
	assert.Empty(t, c.View().Notice)
}

func TestDeleteRemovesAfterSnapshot(t *testing.T) {
	rem := &fakeReminders{}
	c := startController(t, scenarioDocs(), rem)

	require.NoError(t, c.Delete(context.Background(), "c"))
	require.Eventually(t, func() bool { return c.View().Total == 2 }, time.Second, 5*time.Millisecond)

	_, cancelled := rem.snapshot()
	assert.Equal(t, []string{"c"}, cancelled)
}

func TestSubscriptionErrorRequiresReload(t *testing.T) {
	docs := scenarioDocs()
	c := startController(t, docs, nil)

	docs.breakFeed(errConnRefused)
	waitStatus(t, c, StatusError)
	v := c.View()
	assert.Contains(t, v.Error, "Failed to load appointments")
	assert.Equal(t, 3, v.Total)

	docs.putRemote(doc("d", "D", "2024-03-20T09:00:00.000Z", 30))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StatusError, c.View().Status)
	assert.Equal(t, 3, c.View().Total)

	_, err := c.SubmitForm(context.Background())
	assert.Error(t, err)
	err = c.Delete(context.Background(), "a")
	assert.True(t, errors.Is(err, models.ErrRemoteUnavailable))

	require.NoError(t, c.Reload())
	waitStatus(t, c, StatusReady)
	assert.Equal(t, 4, c.View().Total)
	assert.Empty(t, c.View().Error)
}

func TestInitialLoadFailure(t *testing.T) {
	docs := newFakeDocs()
	docs.listErr = models.NewNotFound("collection %q does not exist", "appointments")
	c := NewController(NewRemoteStore(docs, "appointments", nil), ControllerOptions{Location: time.UTC})
	t.Cleanup(c.Close)
	c.Start(context.Background())

	waitStatus(t, c, StatusError)
	assert.Contains(t, c.View().Error, `"appointments"`)

	docs.setListErr(nil)
	require.NoError(t, c.Reload())
	waitStatus(t, c, StatusReady)
}

func TestCloseStopsUpdatesAndWatchers(t *testing.T) {
	docs := scenarioDocs()
	c := startController(t, docs, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	views := c.Watch(ctx)
	first := <-views
	assert.Equal(t, StatusReady, first.Status)

	c.Close()
	assert.Zero(t, docs.subscriberCount())

	for range views {
	}
	docs.putRemote(doc("d", "D", "2024-03-20T09:00:00.000Z", 30))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 3, c.View().Total)
	assert.Error(t, c.Reload())

	closed := c.Watch(context.Background())
	_, ok := <-closed
	assert.False(t, ok)
}

func TestWatchDeliversLatestView(t *testing.T) {
	c := startController(t, scenarioDocs(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	views := c.Watch(ctx)
	<-views

	c.UpdateForm(FormState{Title: "one"})
	c.UpdateForm(FormState{Title: "two"})
	v := <-views
	require.NotNil(t, v.Form)
	assert.Equal(t, "two", v.Form.Title)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-views:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestCloseReleasesWatchersWithLiveContext(t *testing.T) {
	c := startController(t, scenarioDocs(), nil)
	before := runtime.NumGoroutine()

	var views []<-chan View
	for i := 0; i < 20; i++ {
		views = append(views, c.Watch(context.Background()))
	}
	c.Close()

	for _, ch := range views {
		for range ch {
		}
	}
	require.Eventually(t, func() bool { return runtime.NumGoroutine() <= before+1 }, time.Second, 5*time.Millisecond)
}

func TestSnapshotsUseControllerLocation(t *testing.T) {
	east := time.FixedZone("UTC+9", 9*3600)
	docs := newFakeDocs(doc("late", "Late", "2024-03-05T20:00:00.000Z", 30))
	c := NewController(NewRemoteStore(docs, "appointments", nil), ControllerOptions{
		Location: east,
		Now:      func() time.Time { return march5 },
	})
	t.Cleanup(c.Close)
	c.Start(context.Background())
	waitStatus(t, c, StatusReady)

	require.NoError(t, c.SelectDate(time.Date(2024, 3, 6, 0, 0, 0, 0, east)))
	assert.Equal(t, []string{"Late"}, titles(c.View().Appointments))
}
