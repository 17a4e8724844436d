package applications

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
)

// MemoryRepository keeps applications in process memory. It backs local
// runs with DatabaseDSN "memory" and the service tests. Records are copied
// on the way in and out.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*models.Application
	seq   map[string]int
	next  int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*models.Application),
		seq:   make(map[string]int),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, app *models.Application) (string, error) {
	if len(app.Photos) > models.MaxPhotos {
		return "", fmt.Errorf("%d photos: %w", len(app.Photos), common.ErrorValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[app.ID]; ok {
		return "", fmt.Errorf("duplicate application id %q", app.ID)
	}
	r.items[app.ID] = app.Clone()
	r.seq[app.ID] = r.next
	r.next++
	return app.ID, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return app.Clone(), nil
}

func (r *MemoryRepository) UpdatePhotos(ctx context.Context, id string, photos []string) error {
	if len(photos) > models.MaxPhotos {
		return fmt.Errorf("%d photos: %w", len(photos), common.ErrorValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	if app.Status != models.StatusPending {
		return common.ErrorAlreadyDecided
	}
	app.Photos = append([]string{}, photos...)
	return nil
}

func (r *MemoryRepository) UpdateDecision(ctx context.Context, id string, d models.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	if app.Status != models.StatusPending {
		return common.ErrorAlreadyDecided
	}
	at := d.ReviewedAt
	app.Status = d.Status
	app.ReviewedBy = d.ReviewedBy
	app.ReviewedAt = &at
	app.RejectionReason = d.RejectionReason
	return nil
}

func (r *MemoryRepository) ListByStatus(ctx context.Context, status models.Status) ([]*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Application, 0)
	for _, app := range r.items {
		if app.Status == status {
			result = append(result, app.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return r.seq[result[i].ID] < r.seq[result[j].ID]
	})
	return result, nil
}

func (r *MemoryRepository) LatestApproved(ctx context.Context, applicantID string) (*models.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.Application
	for _, app := range r.items {
		if app.ApplicantID != applicantID || app.Status != models.StatusApproved {
			continue
		}
		if latest == nil || app.CreatedAt.After(latest.CreatedAt) ||
			(app.CreatedAt.Equal(latest.CreatedAt) && r.seq[app.ID] > r.seq[latest.ID]) {
			latest = app
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	return latest.Clone(), nil
}
