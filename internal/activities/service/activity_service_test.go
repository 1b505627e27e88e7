package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklog-hq/worklog-backend/internal/activities/activitytest"
	"github.com/worklog-hq/worklog-backend/internal/activities/dashboard"
	"github.com/worklog-hq/worklog-backend/internal/activities/domain"
)

type staticDirectory map[string][]string

func (d staticDirectory) SuperviseeIDs(_ context.Context, supervisorID string) ([]string, error) {
	return d[supervisorID], nil
}

type recordingObserver struct {
	rejected    []string
	transitions []string
	batch       map[bool]int
}

func (o *recordingObserver) Rejected(kind string) { o.rejected = append(o.rejected, kind) }
func (o *recordingObserver) Transitioned(from, to domain.Status) {
	o.transitions = append(o.transitions, string(from)+"->"+string(to))
}
func (o *recordingObserver) BatchOutcome(ok bool) {
	if o.batch == nil {
		o.batch = make(map[bool]int)
	}
	o.batch[ok]++
}

type mapCache struct {
	views       map[string]any
	invalidated []string
}

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.views[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *dashboard.ContributorToday:
		*d = v.(dashboard.ContributorToday)
	case *dashboard.Statistics:
		*d = v.(dashboard.Statistics)
	default:
		return false, fmt.Errorf("unexpected %T", dst)
	}
	return true, nil
}

func (c *mapCache) Set(_ context.Context, key string, _ []string, v any) error {
	if c.views == nil {
		c.views = make(map[string]any)
	}
	c.views[key] = v
	return nil
}

func (c *mapCache) InvalidateOwner(_ context.Context, ownerID string) error {
	c.invalidated = append(c.invalidated, ownerID)
	c.views = nil
	return nil
}

// 2025-07-01 10:00 in UTC.
var fixedNow = time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *ActivityService
	store *activitytest.MemStore
	obs   *recordingObserver
	cache *mapCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: activitytest.NewMemStore(), obs: &recordingObserver{}, cache: &mapCache{}}
	n := 0
	f.svc = NewActivityService(f.store, staticDirectory{"sup": {"u1", "u2"}},
		WithClock(func() time.Time { return fixedNow }),
		WithObserver(f.obs),
		WithCache(f.cache),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("act-%d", n)
		}),
	)
	return f
}

func (f *fixture) create(t *testing.T, owner, date, start, end string) *domain.Activity {
	t.Helper()
	a, err := f.svc.Create(context.Background(), owner, CreateInput{
		Date: date, StartTime: start, EndTime: end, ProjectID: "P", Description: "work",
	})
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Create(context.Background(), "u1", CreateInput{
		Date:      "2025-07-01",
		StartTime: "2:30 pm",
		EndTime:   "15:45",
		Priority:  "High",
	})
	require.NoError(t, err)
	assert.Equal(t, "act-1", a.ID)
	assert.Equal(t, "u1", a.OwnerID)
	assert.Equal(t, "14:30-15:45", a.Window.String())
	assert.Equal(t, domain.StatusPending, a.Status)
	assert.Equal(t, domain.PriorityHigh, a.Priority)
	assert.Equal(t, fixedNow, a.CreatedAt)
	assert.Equal(t, []string{"u1"}, f.cache.invalidated)

	draft, err := f.svc.Create(context.Background(), "u1", CreateInput{
		Date: "2025-07-02", StartTime: "09:00", EndTime: "10:00", Draft: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, draft.Status)
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	f.create(t, "u1", "2025-07-01", "09:00", "10:00")

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"bad format", CreateInput{Date: "2025-07-01", StartTime: "9h", EndTime: "10:00"}, domain.ErrInvalidTimeFormat},
		{"inverted window", CreateInput{Date: "2025-07-01", StartTime: "11:00", EndTime: "10:59"}, domain.ErrInvalidWindow},
		{"past date", CreateInput{Date: "2025-06-30", StartTime: "11:00", EndTime: "12:00"}, domain.ErrPastDate},
		{"bad date", CreateInput{Date: "yesterday", StartTime: "11:00", EndTime: "12:00"}, domain.ErrInvalidDate},
		{"overlap", CreateInput{Date: "2025-07-01", StartTime: "09:30", EndTime: "10:30"}, domain.ErrOverlapsExistingActivity},
		{"bad priority", CreateInput{Date: "2025-07-01", StartTime: "11:00", EndTime: "12:00", Priority: "urgent"}, domain.ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), "u1", tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, []string{
		"invalid_time_format", "invalid_window", "past_date", "invalid_date",
		"overlaps_existing_activity", "invalid_priority",
	}, f.obs.rejected)
}

func TestCreate_OverlapCarriesConflict(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, "u1", "2025-07-01", "09:00", "10:00")

	_, err := f.svc.Create(context.Background(), "u1", CreateInput{Date: "2025-07-01", StartTime: "09:30", EndTime: "10:30"})
	var oe *domain.OverlapError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, first.ID, oe.ConflictID)

	// back-to-back, other user, other date are all fine
	f.create(t, "u1", "2025-07-01", "10:00", "11:00")
	f.create(t, "u2", "2025-07-01", "09:00", "10:00")
	f.create(t, "u1", "2025-07-02", "09:00", "10:00")
}

func TestCreate_CancelledSlotIsFree(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")
	_, err := f.svc.Cancel(context.Background(), "u1", a.ID)
	require.NoError(t, err)

	f.create(t, "u1", "2025-07-01", "09:00", "10:00")
}

func TestGet_OtherOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")

	got, err := f.svc.Get(context.Background(), "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = f.svc.Get(context.Background(), "u2", a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("editing a past activity skips the past-date rule", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")

		// time moves on a week
		f.svc.now = func() time.Time { return fixedNow.AddDate(0, 0, 7) }

		got, err := f.svc.Update(ctx, "u1", a.ID, UpdateInput{Description: strPtr("rewritten")})
		require.NoError(t, err)
		assert.Equal(t, "rewritten", got.Description)

		got, err = f.svc.Update(ctx, "u1", a.ID, UpdateInput{EndTime: strPtr("10:30")})
		require.NoError(t, err)
		assert.Equal(t, "09:00-10:30", got.Window.String())
	})

	t.Run("moving over a neighbour conflicts but not with itself", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")
		b := f.create(t, "u1", "2025-07-01", "10:00", "11:00")

		_, err := f.svc.Update(ctx, "u1", a.ID, UpdateInput{StartTime: strPtr("09:15")})
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, "u1", a.ID, UpdateInput{EndTime: strPtr("10:15")})
		var oe *domain.OverlapError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, b.ID, oe.ConflictID)
	})

	t.Run("invalid window", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")
		_, err := f.svc.Update(ctx, "u1", a.ID, UpdateInput{StartTime: strPtr("10:00")})
		assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	})

	t.Run("submitted is read-only", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")
		f.store.SetStatus(a.ID, domain.StatusSubmitted)

		_, err := f.svc.Update(ctx, "u1", a.ID, UpdateInput{StartTime: strPtr("08:00")})
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)

		_, err = f.svc.Update(ctx, "u1", a.ID, UpdateInput{Status: strPtr("in_progress")})
		var te *domain.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, domain.StatusSubmitted, te.From)
		assert.Equal(t, domain.StatusInProgress, te.To)
	})

	t.Run("resubmitting through update matches the submit action", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")
		f.store.SetStatus(a.ID, domain.StatusSubmitted)

		got, err := f.svc.Update(ctx, "u1", a.ID, UpdateInput{Status: strPtr("submitted")})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, got.Status)
		assert.Empty(t, f.obs.transitions)

		_, err = f.svc.Submit(ctx, "u1", a.ID)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, "u1", a.ID, UpdateInput{Status: strPtr("submitted"), Description: strPtr("late edit")})
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("status through update", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")

		got, err := f.svc.Update(ctx, "u1", a.ID, UpdateInput{Status: strPtr("completed")})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status)
		assert.Equal(t, []string{"pending->completed"}, f.obs.transitions)

		_, err = f.svc.Update(ctx, "u1", a.ID, UpdateInput{Status: strPtr("cancelled")})
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)

		_, err = f.svc.Update(ctx, "u1", a.ID, UpdateInput{Status: strPtr("pendiente")})
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})
}

func TestLifecycleActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")

	got, err := f.svc.Start(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)

	got, err = f.svc.Complete(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	got, err = f.svc.Submit(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, got.Status)

	// idempotent
	got, err = f.svc.Submit(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, got.Status)

	_, err = f.svc.Start(ctx, "u1", a.ID)
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusSubmitted, te.From)
	assert.Equal(t, domain.StatusInProgress, te.To)

	assert.Equal(t, []string{
		"pending->in_progress", "in_progress->completed", "completed->submitted",
	}, f.obs.transitions)

	_, err = f.svc.Complete(ctx, "u2", a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmitMany_PartialSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, "u1", CreateInput{Date: "2025-07-01", StartTime: "08:00", EndTime: "09:00", Draft: true})
	require.NoError(t, err)
	pending := f.create(t, "u1", "2025-07-01", "09:00", "10:00")
	done := f.create(t, "u1", "2025-07-01", "10:00", "11:00")
	_, err = f.svc.Complete(ctx, "u1", done.ID)
	require.NoError(t, err)
	foreign := f.create(t, "u2", "2025-07-01", "10:00", "11:00")

	res := f.svc.SubmitMany(ctx, "u1", []string{draft.ID, pending.ID, "missing", done.ID, foreign.ID})

	assert.Equal(t, []string{draft.ID, done.ID}, res.Succeeded)
	require.Len(t, res.Failed, 3)
	assert.Equal(t, pending.ID, res.Failed[0].ID)
	assert.ErrorIs(t, res.Failed[0].Err, domain.ErrIllegalTransition)
	assert.ErrorIs(t, res.Failed[1].Err, domain.ErrNotFound)
	assert.ErrorIs(t, res.Failed[2].Err, domain.ErrNotFound)
	assert.Equal(t, 2, f.obs.batch[true])
	assert.Equal(t, 3, f.obs.batch[false])

	empty := f.svc.SubmitMany(ctx, "u1", nil)
	assert.Empty(t, empty.Succeeded)
	assert.Empty(t, empty.Failed)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")
	b := f.create(t, "u1", "2025-07-01", "10:00", "11:00")
	f.store.SetStatus(b.ID, domain.StatusSubmitted)

	require.NoError(t, f.svc.Delete(ctx, "u1", a.ID))
	_, err := f.svc.Get(ctx, "u1", a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, "u1", b.ID), domain.ErrIllegalTransition)
	assert.ErrorIs(t, f.svc.Delete(ctx, "u2", b.ID), domain.ErrNotFound)
}

func TestToday_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	svc := NewActivityService(activitytest.NewMemStore(), nil,
		WithClock(func() time.Time { return time.Date(2025, time.July, 2, 2, 0, 0, 0, time.UTC) }),
		WithLocation(loc),
	)
	assert.Equal(t, "2025-07-01", svc.Today().String())
}

func TestViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "u1", "2025-07-01", "09:00", "10:00")
	b := f.create(t, "u1", "2025-07-01", "10:00", "11:00")
	c := f.create(t, "u2", "2025-07-01", "09:00", "10:00")
	f.create(t, "u1", "2025-07-02", "09:00", "10:00")
	for _, id := range []string{a.ID, b.ID, c.ID} {
		f.store.SetStatus(id, domain.StatusSubmitted)
	}

	t.Run("team today", func(t *testing.T) {
		view, err := f.svc.TeamToday(ctx, "sup", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, view.Submitted)
		assert.Equal(t, 2, view.ActiveUsers)
		require.Len(t, view.Projects, 1)
		assert.Equal(t, "P", view.Projects[0].ProjectID)
		require.Len(t, view.Projects[0].Users, 2)
		assert.Equal(t, "u1", view.Projects[0].Users[0].UserID)
		assert.Len(t, view.Projects[0].Users[0].Activities, 2)
	})

	t.Run("team dashboard is cached until a write", func(t *testing.T) {
		stats, err := f.svc.TeamDashboard(ctx, "sup", nil, dashboard.PendingAllDates)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.ActivitiesToday)
		assert.Equal(t, 1, stats.PendingCount)
		assert.Len(t, f.cache.views, 1)

		f.create(t, "u2", "2025-07-03", "09:00", "10:00")
		assert.Empty(t, f.cache.views)

		stats, err = f.svc.TeamDashboard(ctx, "sup", nil, dashboard.PendingAllDates)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.PendingCount)
	})

	t.Run("my dashboard", func(t *testing.T) {
		date := domain.NewDate(2025, time.July, 2)
		view, err := f.svc.MyDashboard(ctx, "u1", &date, dashboard.PendingReferenceDate)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-02", view.Date.String())
		assert.Len(t, view.Activities, 1)
		assert.Equal(t, 1, view.Stats.PendingCount)
		assert.Equal(t, 0, view.Stats.ActivitiesToday)
	})

	t.Run("daily groups", func(t *testing.T) {
		groups, err := f.svc.DailyGroups(ctx, "u1", nil, nil, dashboard.OrderInput)
		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, "2025-07-01", groups[0].Date.String())
		assert.Len(t, groups[0].Activities, 2)
	})

	t.Run("digest", func(t *testing.T) {
		summaries, err := f.svc.Digest(ctx, domain.NewDate(2025, time.July, 1))
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, 3, summaries[0].ActivityCount)

		ids := make([]string, 0)
		for _, u := range summaries[0].Users {
			ids = append(ids, u.UserID)
		}
		sort.Strings(ids)
		assert.Equal(t, []string{"u1", "u2"}, ids)
	})
}
