package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/messages"
	"github.com/dmitrijs2005/guildgate/internal/server/metrics"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
)

// MaxReasonLength bounds a rejection reason.
const MaxReasonLength = 500

// DecideInput is a staff decision on one application. Reason is required
// for a rejection and ignored for an approval.
type DecideInput struct {
	ApplicationID string
	Reviewer      models.Reviewer
	Outcome       models.Outcome
	Reason        string
}

// DecisionResult is the committed application plus what the notifications
// achieved. A failed notification never undoes the decision.
type DecisionResult struct {
	Application       *models.Application
	ApplicantNotified bool
	WelcomePosted     bool
}

type DecisionService struct {
	deps     Deps
	settings Settings
	sessions *SessionRegistry
	logger   logging.Logger
}

// NewDecisionService creates the service. sessions may be nil when no photo
// sessions run in the process.
func NewDecisionService(deps Deps, settings Settings, sessions *SessionRegistry) *DecisionService {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &DecisionService{deps: deps, settings: settings, sessions: sessions, logger: deps.Logger.With("module", "decisions")}
}

// Decide applies a decision. Checks run in order: capability, outcome and
// reason, existence, pending status, finished photo collection
// (common.ErrorPhotosPending while the session still runs). The status
// write is conditional on the record still being pending, so a concurrent
// decision loses with common.ErrorAlreadyDecided and sends nothing.
func (s *DecisionService) Decide(ctx context.Context, in DecideInput) (*DecisionResult, error) {
	res, err := s.decide(ctx, in)
	metrics.RecordDecision(in.Outcome.String(), resultLabel(err))
	return res, err
}

func (s *DecisionService) decide(ctx context.Context, in DecideInput) (*DecisionResult, error) {
	if !in.Reviewer.Capabilities.Has(models.CapManageMembership) {
		return nil, common.ErrorPermissionDenied
	}

	status, ok := in.Outcome.Status()
	if !ok {
		return nil, validationError("outcome", "must be approve or reject")
	}

	reason := ""
	if in.Outcome == models.OutcomeReject {
		reason = strings.TrimSpace(in.Reason)
		n := utf8.RuneCountInString(reason)
		if n == 0 {
			return nil, validationError("reason", "is required")
		}
		if n > MaxReasonLength {
			return nil, validationError("reason", fmt.Sprintf("exceeds %d characters", MaxReasonLength))
		}
	}

	app, err := s.deps.Store.Get(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusPending {
		return nil, common.ErrorAlreadyDecided
	}
	if s.sessions != nil && s.sessions.Active(app.ID) {
		return nil, fmt.Errorf("application %s: %w", app.ID, common.ErrorPhotosPending)
	}

	d := models.Decision{
		Status:          status,
		ReviewedBy:      in.Reviewer.ID,
		ReviewedAt:      s.deps.Now().UTC(),
		RejectionReason: reason,
	}
	if err := s.deps.Store.UpdateDecision(ctx, app.ID, d); err != nil {
		return nil, err
	}

	app.Status = d.Status
	app.ReviewedBy = d.ReviewedBy
	at := d.ReviewedAt
	app.ReviewedAt = &at
	app.RejectionReason = d.RejectionReason
	s.logger.Info(ctx, "application decided", "application_id", app.ID, "status", string(status), "reviewer", in.Reviewer.ID)

	res := &DecisionResult{Application: app}
	switch in.Outcome {
	case models.OutcomeApprove:
		res.ApplicantNotified = s.dm(ctx, app, messages.Approved())
		res.WelcomePosted = s.post(ctx, app, s.settings.WelcomeChannel, messages.WelcomeBroadcast(app))
	case models.OutcomeReject:
		res.ApplicantNotified = s.dm(ctx, app, messages.Rejected(reason))
	}
	return res, nil
}

func (s *DecisionService) dm(ctx context.Context, app *models.Application, content string) bool {
	if err := s.deps.Gateway.DirectMessage(ctx, app.ApplicantID, content); err != nil {
		metrics.RecordDeliveryFailure("dm")
		s.logger.Warn(ctx, "applicant not notified", "application_id", app.ID, "error", err)
		return false
	}
	return true
}

func (s *DecisionService) post(ctx context.Context, app *models.Application, channel, content string) bool {
	if err := s.deps.Gateway.PostToChannel(ctx, channel, content); err != nil {
		metrics.RecordDeliveryFailure("post")
		s.logger.Warn(ctx, "welcome broadcast not delivered", "application_id", app.ID, "channel", channel, "error", err)
		return false
	}
	return true
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrorPermissionDenied):
		return "permission_denied"
	case errors.Is(err, common.ErrorValidation):
		return "validation"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrorAlreadyDecided):
		return "already_decided"
	case errors.Is(err, common.ErrorPhotosPending):
		return "photos_pending"
	default:
		return "error"
	}
}
