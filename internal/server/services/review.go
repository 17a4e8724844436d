package services

import (
	"context"

	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
)

// ApplicationDetail is the staff view of one application. PhotoURLs holds a
// retrievable URL per stored photo reference, in the same order.
type ApplicationDetail struct {
	Application *models.Application
	PhotoCount  int
	PhotoURLs   []string
}

// ReviewService is the read side of the review queue.
type ReviewService struct {
	store    applications.Repository
	resolver PhotoResolver
	logger   logging.Logger
}

func NewReviewService(store applications.Repository, resolver PhotoResolver, logger logging.Logger) *ReviewService {
	return &ReviewService{store: store, resolver: resolver, logger: logger.With("module", "review")}
}

// ListPending returns pending applications, oldest first.
func (s *ReviewService) ListPending(ctx context.Context) ([]*models.Application, error) {
	return s.store.ListByStatus(ctx, models.StatusPending)
}

// Detail returns one application with its photos resolved. A photo that
// cannot be resolved is returned as stored.
func (s *ReviewService) Detail(ctx context.Context, id string) (*ApplicationDetail, error) {
	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(app.Photos))
	for _, ref := range app.Photos {
		url := ref
		if s.resolver != nil {
			resolved, err := s.resolver.Resolve(ctx, ref)
			if err != nil {
				s.logger.Warn(ctx, "photo not resolved", "application_id", id, "error", err)
			} else {
				url = resolved
			}
		}
		urls = append(urls, url)
	}

	return &ApplicationDetail{Application: app, PhotoCount: len(app.Photos), PhotoURLs: urls}, nil
}
