package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQueue(t *testing.T, store applications.Repository, n int, start time.Time) []string {
	t.Helper()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = string(rune('a'+i)) + "-app"
		seedPending(store, ids[i], "u"+ids[i], start.Add(time.Duration(i)*time.Minute))
	}
	return ids
}

func idsOf(apps []*models.Application) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.ID)
	}
	return out
}

func TestListPendingAndPaginate(t *testing.T) {
	store := applications.NewMemoryRepository()
	ids := seedQueue(t, store, 12, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.UpdateDecision(context.Background(), ids[0], models.Decision{Status: models.StatusApproved}))
	seedPending(store, "late", "ulate", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	review := NewReviewService(store, nil, logging.Nop())
	pending, err := review.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 12)
	assert.Equal(t, append(ids[1:], "late"), idsOf(pending))

	again, _ := review.ListPending(context.Background())
	assert.Equal(t, idsOf(pending), idsOf(again))

	var sizes []int
	var prev, next []bool
	for i := 0; i < 3; i++ {
		p := Paginate(pending, i, 5)
		sizes = append(sizes, len(p.Items))
		prev = append(prev, p.HasPrev)
		next = append(next, p.HasNext)
		assert.Equal(t, 3, p.PageCount)
		assert.Equal(t, 12, p.Total)
	}
	assert.Equal(t, []int{5, 5, 2}, sizes)
	assert.Equal(t, []bool{false, true, true}, prev)
	assert.Equal(t, []bool{true, true, false}, next)
}

func TestPaginate_Clamping(t *testing.T) {
	apps := make([]*models.Application, 7)
	for i := range apps {
		apps[i] = &models.Application{ID: string(rune('a' + i))}
	}

	p := Paginate(apps, 9, 5)
	assert.Equal(t, 1, p.Index)
	assert.Len(t, p.Items, 2)

	p = Paginate(apps, -3, 5)
	assert.Equal(t, 0, p.Index)
	assert.False(t, p.HasPrev)

	p = Paginate(apps, 0, 0)
	assert.Len(t, p.Items, DefaultPageSize)

	p = Paginate(nil, 2, 5)
	assert.Equal(t, 0, p.Index)
	assert.Equal(t, 0, p.PageCount)
	assert.False(t, p.HasPrev || p.HasNext)
	assert.Empty(t, p.Items)

	p = Paginate(apps[:5], 0, 5)
	assert.Equal(t, 1, p.PageCount)
	assert.False(t, p.HasNext)
}

func TestPaginate_ItemsCannotGrowIntoNextPage(t *testing.T) {
	apps := []*models.Application{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	p := Paginate(apps, 0, 2)
	p.Items = append(p.Items, &models.Application{ID: "x"})
	assert.Equal(t, "c", apps[2].ID)
}

func TestDetail(t *testing.T) {
	store := applications.NewMemoryRepository()
	seedPending(store, "empty", "u1", time.Now())
	seedPending(store, "photos", "u2", time.Now())
	require.NoError(t, store.UpdatePhotos(context.Background(), "photos", []string{"https://cdn/1.png", "s3://b/k.png"}))
	ctx := context.Background()

	t.Run("zero photos", func(t *testing.T) {
		d, err := NewReviewService(store, nil, logging.Nop()).Detail(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, 0, d.PhotoCount)
		assert.Empty(t, d.PhotoURLs)
		assert.Equal(t, "game-empty", d.Application.GameID)
	})

	t.Run("resolved photos", func(t *testing.T) {
		d, err := NewReviewService(store, &fakeResolver{}, logging.Nop()).Detail(ctx, "photos")
		require.NoError(t, err)
		assert.Equal(t, 2, d.PhotoCount)
		assert.Equal(t, []string{"https://signed/https://cdn/1.png", "https://signed/s3://b/k.png"}, d.PhotoURLs)
		assert.Equal(t, []string{"https://cdn/1.png", "s3://b/k.png"}, d.Application.Photos)
	})

	t.Run("resolver failure keeps reference", func(t *testing.T) {
		d, err := NewReviewService(store, &fakeResolver{err: errBoom}, logging.Nop()).Detail(ctx, "photos")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://cdn/1.png", "s3://b/k.png"}, d.PhotoURLs)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := NewReviewService(store, nil, logging.Nop()).Detail(ctx, "nope")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestReviewViews(t *testing.T) {
	clock := newFakeClock()
	store := applications.NewMemoryRepository()
	ids := seedQueue(t, store, 12, clock.Now())
	views := NewReviewViews(NewReviewService(store, nil, logging.Nop()), 5, 30*time.Minute, clock.Now)
	ctx := context.Background()

	_, err := views.Open(ctx, nobody)
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)

	page, err := views.Open(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, ids[:5], idsOf(page.Items))

	// Snapshot: a new pending application does not shift the pages.
	seedPending(store, "newcomer", "un", clock.Now().Add(-time.Hour))

	page, err = views.Turn(viewer.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, ids[5:10], idsOf(page.Items))

	page, err = views.Turn(viewer.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Index)
	assert.Equal(t, ids[10:], idsOf(page.Items))

	page, err = views.Turn(viewer.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Index)

	_, err = views.Turn("someone-else", 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	clock.Advance(30 * time.Minute)
	_, err = views.Turn(viewer.ID, 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 0, views.Len())
}

func TestReviewViews_Sweep(t *testing.T) {
	clock := newFakeClock()
	store := applications.NewMemoryRepository()
	views := NewReviewViews(NewReviewService(store, nil, logging.Nop()), 0, time.Minute, clock.Now)
	ctx := context.Background()

	_, err := views.Open(ctx, viewer)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	_, err = views.Open(ctx, manager)
	require.NoError(t, err)

	clock.Advance(40 * time.Second)
	assert.Equal(t, 1, views.Sweep())
	assert.Equal(t, 1, views.Len())

	views.Close(manager.ID)
	assert.Equal(t, 0, views.Len())

	c := cron.New()
	_, err = views.Schedule(c, "@every 1m")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = views.Schedule(c, "not a spec")
	assert.Error(t, err)
}

func TestMembership(t *testing.T) {
	store := applications.NewMemoryRepository()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedPending(store, "old", "u1", t0)
	seedPending(store, "new", "u1", t0.Add(time.Hour))
	seedPending(store, "rejected", "u1", t0.Add(2*time.Hour))
	seedPending(store, "other", "u2", t0)
	ctx := context.Background()
	for _, id := range []string{"old", "new"} {
		require.NoError(t, store.UpdateDecision(ctx, id, models.Decision{Status: models.StatusApproved, ReviewedAt: t0}))
	}
	require.NoError(t, store.UpdateDecision(ctx, "rejected", models.Decision{Status: models.StatusRejected, RejectionReason: "x", ReviewedAt: t0}))

	m := NewMembershipService(store)

	ok, app, err := m.IsMember(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "new", app.ID)

	ok, app, err = m.IsMember(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, app)
}

func TestNewWorkflow(t *testing.T) {
	store := applications.NewMemoryRepository()
	w := NewWorkflow(Deps{Store: store, Gateway: newLoopbackGateway()}, Settings{PhotoTimeout: 10 * time.Millisecond})
	defer w.Close()

	id, err := w.Intake.Submit(context.Background(), validInput())
	require.NoError(t, err)
	w.Sessions.Wait()

	d, err := w.Review.Detail(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, d.PhotoCount)

	page, err := w.Views.Open(context.Background(), manager)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, idsOf(page.Items))

	_, err = w.Decisions.Decide(context.Background(), DecideInput{ApplicationID: id, Reviewer: manager, Outcome: models.OutcomeApprove})
	require.NoError(t, err)

	ok, _, err := w.Membership.IsMember(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}
