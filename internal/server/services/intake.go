package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/messages"
	"github.com/dmitrijs2005/guildgate/internal/server/metrics"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/google/uuid"
)

const (
	MaxGameIDLength          = 100
	MaxDisplayNameLength     = 100
	MaxApplicationTextLength = 1000
)

// SubmitInput is the application form. Channel is where the applicant will
// upload photos.
type SubmitInput struct {
	ApplicantID     string
	Username        string
	DisplayName     string
	GameID          string
	ApplicationText string
	AvatarURL       string
	Channel         string
}

// GreetResult reports how a new member was reached.
type GreetResult struct {
	DirectMessage bool
	Fallback      bool
}

type IntakeService struct {
	deps     Deps
	settings Settings
	sessions *SessionRegistry
	logger   logging.Logger
	newID    func() string
}

func NewIntakeService(deps Deps, settings Settings, sessions *SessionRegistry) *IntakeService {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &IntakeService{
		deps:     deps,
		settings: settings,
		sessions: sessions,
		logger:   deps.Logger.With("module", "intake"),
		newID:    uuid.NewString,
	}
}

func validationError(field, problem string) error {
	return fmt.Errorf("%w: %s %s", common.ErrorValidation, field, problem)
}

func normalize(in SubmitInput) (SubmitInput, error) {
	in.ApplicantID = strings.TrimSpace(in.ApplicantID)
	in.GameID = strings.TrimSpace(in.GameID)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.ApplicationText = strings.TrimSpace(in.ApplicationText)
	in.Channel = strings.TrimSpace(in.Channel)

	switch {
	case in.ApplicantID == "":
		return in, validationError("applicant", "is required")
	case in.Channel == "":
		return in, validationError("channel", "is required")
	case in.GameID == "":
		return in, validationError("game id", "is required")
	case utf8.RuneCountInString(in.GameID) > MaxGameIDLength:
		return in, validationError("game id", fmt.Sprintf("exceeds %d characters", MaxGameIDLength))
	case utf8.RuneCountInString(in.DisplayName) > MaxDisplayNameLength:
		return in, validationError("display name", fmt.Sprintf("exceeds %d characters", MaxDisplayNameLength))
	case utf8.RuneCountInString(in.ApplicationText) > MaxApplicationTextLength:
		return in, validationError("application text", fmt.Sprintf("exceeds %d characters", MaxApplicationTextLength))
	}

	if in.DisplayName == "" {
		in.DisplayName = in.Username
	}
	if in.DisplayName == "" {
		in.DisplayName = in.ApplicantID
	}
	return in, nil
}

// Submit validates the form, stores a pending application and starts its
// photo session in the background. It returns the new application id.
func (s *IntakeService) Submit(ctx context.Context, in SubmitInput) (string, error) {
	in, err := normalize(in)
	if err != nil {
		return "", err
	}

	app := &models.Application{
		ID:              s.newID(),
		ApplicantID:     in.ApplicantID,
		Username:        in.Username,
		DisplayName:     in.DisplayName,
		GameID:          in.GameID,
		AvatarURL:       in.AvatarURL,
		ApplicationText: in.ApplicationText,
		Photos:          []string{},
		Status:          models.StatusPending,
		CreatedAt:       s.deps.Now().UTC(),
	}

	id, err := s.deps.Store.Create(ctx, app)
	if err != nil {
		return "", err
	}
	app.ID = id
	metrics.RecordSubmission()
	s.logger.Info(ctx, "application submitted", "application_id", id, "applicant", in.ApplicantID)

	session := NewPhotoSession(id, in.ApplicantID, in.Channel, SessionConfig{
		Timeout:      s.settings.PhotoTimeout,
		ResetOnPhoto: s.settings.ResetOnPhoto,
	}, s.deps)

	submitted := app.Clone()
	if err := s.sessions.Start(session, func(ctx context.Context, out SessionOutcome) {
		s.notifyAdmins(ctx, submitted, out)
	}); err != nil {
		// The record is valid without photos; staff can still review it.
		s.logger.Error(ctx, "photo session not started", "application_id", id, "error", err)
		return id, nil
	}

	if err := s.deps.Gateway.ReportStatus(ctx, in.ApplicantID, progressKey(id), messages.UploadInstructions(id, s.settings.PhotoTimeout)); err != nil {
		metrics.RecordDeliveryFailure("status")
		s.logger.Warn(ctx, "upload instructions not delivered", "application_id", id, "error", err)
	}
	return id, nil
}

func (s *IntakeService) notifyAdmins(ctx context.Context, submitted *models.Application, out SessionOutcome) {
	app := submitted
	if stored, err := s.deps.Store.Get(ctx, out.ApplicationID); err == nil {
		app = stored
	} else {
		app.Photos = out.Photos
	}

	if err := s.deps.Gateway.PostToChannel(ctx, s.settings.AdminChannel, messages.AdminAlert(app)); err != nil {
		metrics.RecordDeliveryFailure("post")
		s.logger.Warn(ctx, "admin alert not delivered", "application_id", app.ID, "error", err)
	}
}

// Greet sends the application prompt to a newly joined member. If the DM
// fails and fallbackChannel is set, a mention is posted there instead.
func (s *IntakeService) Greet(ctx context.Context, identity, fallbackChannel string) GreetResult {
	var res GreetResult
	err := s.deps.Gateway.DirectMessage(ctx, identity, messages.Welcome())
	if err == nil {
		res.DirectMessage = true
		return res
	}
	metrics.RecordDeliveryFailure("dm")
	s.logger.Warn(ctx, "welcome dm not delivered", "identity", identity, "error", err)

	if fallbackChannel == "" {
		return res
	}
	if err := s.deps.Gateway.PostToChannel(ctx, fallbackChannel, messages.WelcomeFallback(identity)); err != nil {
		metrics.RecordDeliveryFailure("post")
		s.logger.Warn(ctx, "welcome fallback not delivered", "identity", identity, "channel", fallbackChannel, "error", err)
		return res
	}
	res.Fallback = true
	return res
}
