// Package applications is the Application Record Store: durable CRUD for
// membership applications keyed by id, with query-by-status.
package applications

import (
	"context"

	"github.com/dmitrijs2005/guildgate/internal/server/models"
)

// Repository is the storage contract used by the workflow services.
//
// Get, UpdatePhotos and UpdateDecision return common.ErrorNotFound for unknown
// ids. UpdatePhotos and UpdateDecision only succeed on a pending record and
// return common.ErrorAlreadyDecided otherwise, so a racing second decision
// fails instead of overwriting the first and a decided record keeps its photos. ListByStatus orders by creation time
// ascending with a stable secondary key, so repeated calls agree.
type Repository interface {
	Create(ctx context.Context, app *models.Application) (string, error)
	Get(ctx context.Context, id string) (*models.Application, error)
	UpdatePhotos(ctx context.Context, id string, photos []string) error
	UpdateDecision(ctx context.Context, id string, d models.Decision) error
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Application, error)
	LatestApproved(ctx context.Context, applicantID string) (*models.Application, error)
}
