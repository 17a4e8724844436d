package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
)

// MembershipService answers membership-gate checks from the authoritative
// record: the most recently created approved application of an applicant.
type MembershipService struct {
	store applications.Repository
}

func NewMembershipService(store applications.Repository) *MembershipService {
	return &MembershipService{store: store}
}

// IsMember reports whether applicantID holds an approved application and
// returns that record.
func (s *MembershipService) IsMember(ctx context.Context, applicantID string) (bool, *models.Application, error) {
	app, err := s.store.LatestApproved(ctx, applicantID)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, app, nil
}
