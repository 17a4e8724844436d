package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/robfig/cron/v3"
)

// DefaultViewIdleExpiry is used when no idle expiry is configured.
const DefaultViewIdleExpiry = 30 * time.Minute

type reviewView struct {
	apps     []*models.Application
	index    int
	lastUsed time.Time
}

// ReviewViews keeps one paginated snapshot of the pending queue per
// reviewer, so page contents do not shift while a reviewer pages through
// them. Views expire after a period of inactivity.
type ReviewViews struct {
	mu       sync.Mutex
	views    map[string]*reviewView
	review   *ReviewService
	pageSize int
	idle     time.Duration
	now      func() time.Time
}

func NewReviewViews(review *ReviewService, pageSize int, idle time.Duration, now func() time.Time) *ReviewViews {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if idle <= 0 {
		idle = DefaultViewIdleExpiry
	}
	if now == nil {
		now = time.Now
	}
	return &ReviewViews{
		views:    make(map[string]*reviewView),
		review:   review,
		pageSize: pageSize,
		idle:     idle,
		now:      now,
	}
}

// CanView reports whether r may read the review queue.
func CanView(r models.Reviewer) bool {
	return r.Capabilities.Has(models.CapViewApplications) || r.Capabilities.Has(models.CapManageMembership)
}

// Open snapshots the pending queue for reviewer and returns its first page.
// An existing view of the same reviewer is replaced.
func (v *ReviewViews) Open(ctx context.Context, reviewer models.Reviewer) (Page, error) {
	if !CanView(reviewer) {
		return Page{}, common.ErrorPermissionDenied
	}
	apps, err := v.review.ListPending(ctx)
	if err != nil {
		return Page{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	view := &reviewView{apps: apps, lastUsed: v.now()}
	v.views[reviewer.ID] = view
	return Paginate(view.apps, 0, v.pageSize), nil
}

// Turn moves the reviewer's view by delta pages. It returns
// common.ErrorNotFound when the reviewer has no live view.
func (v *ReviewViews) Turn(reviewerID string, delta int) (Page, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	view, ok := v.views[reviewerID]
	now := v.now()
	if !ok || v.expired(view, now) {
		delete(v.views, reviewerID)
		return Page{}, fmt.Errorf("review view of %s: %w", reviewerID, common.ErrorNotFound)
	}

	page := Paginate(view.apps, view.index+delta, v.pageSize)
	view.index = page.Index
	view.lastUsed = now
	return page, nil
}

// Close drops the reviewer's view.
func (v *ReviewViews) Close(reviewerID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.views, reviewerID)
}

// Len returns the number of live views.
func (v *ReviewViews) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}

func (v *ReviewViews) expired(view *reviewView, now time.Time) bool {
	return now.Sub(view.lastUsed) >= v.idle
}

// Sweep removes idle views and returns how many were removed.
func (v *ReviewViews) Sweep() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	n := 0
	for id, view := range v.views {
		if v.expired(view, now) {
			delete(v.views, id)
			n++
		}
	}
	return n
}

// Schedule registers the sweep on c with the given cron spec
// (for example "@every 1m").
func (v *ReviewViews) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() { v.Sweep() })
}
