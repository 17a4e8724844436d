package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/gateway"
	"github.com/dmitrijs2005/guildgate/internal/server/messages"
	"github.com/dmitrijs2005/guildgate/internal/server/metrics"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
)

// FinalizeReason says why a photo session stopped collecting.
type FinalizeReason string

const (
	FinalizeCap      FinalizeReason = "cap"
	FinalizeDeadline FinalizeReason = "deadline"
	FinalizeShutdown FinalizeReason = "shutdown"
)

// persistTimeout bounds the final photo write once collection has stopped.
const persistTimeout = 10 * time.Second

// SessionOutcome is the result of a finalized photo session.
type SessionOutcome struct {
	ApplicationID string
	ApplicantID   string
	Photos        []string
	Reason        FinalizeReason
	Persisted     bool
}

// SessionConfig bounds a photo session.
type SessionConfig struct {
	Timeout      time.Duration
	ResetOnPhoto bool
}

// PhotoSession collects up to models.MaxPhotos image attachments from one
// applicant for one application. It is the only writer of the application's
// photos while it runs.
type PhotoSession struct {
	applicationID string
	applicantID   string
	channel       string
	cfg           SessionConfig

	chat     gateway.Chat
	status   gateway.StatusReporter
	store    applications.Repository
	archiver PhotoArchiver
	logger   logging.Logger
	now      func() time.Time

	inbox  gateway.Inbox
	photos []string
}

func NewPhotoSession(applicationID, applicantID, channel string, cfg SessionConfig, deps Deps) *PhotoSession {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &PhotoSession{
		applicationID: applicationID,
		applicantID:   applicantID,
		channel:       channel,
		cfg:           cfg,
		chat:          deps.Gateway,
		status:        deps.Gateway,
		store:         deps.Store,
		archiver:      deps.Archiver,
		logger:        logger.With("module", "photos", "application_id", applicationID),
		now:           now,
		photos:        make([]string, 0, models.MaxPhotos),
	}
}

func (s *PhotoSession) ApplicationID() string { return s.applicationID }

func progressKey(applicationID string) string { return "photos:" + applicationID }
func completeKey(applicationID string) string { return "complete:" + applicationID }

func (s *PhotoSession) subscribe() {
	if s.inbox == nil {
		s.inbox = s.chat.Subscribe(s.applicantID, s.channel)
	}
}

// Run waits for uploads until the cap or the deadline, then finalizes. A
// cancelled ctx stops the wait early; what was collected is still persisted.
func (s *PhotoSession) Run(ctx context.Context) SessionOutcome {
	s.subscribe()
	defer s.inbox.Close()

	reason := s.collect(ctx)
	return s.finalize(ctx, reason)
}

func (s *PhotoSession) collect(ctx context.Context) FinalizeReason {
	deadline := s.now().Add(s.cfg.Timeout)

	for len(s.photos) < models.MaxPhotos {
		if ctx.Err() != nil {
			return FinalizeShutdown
		}
		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			return FinalizeDeadline
		}

		msg, err := s.inbox.Next(ctx, remaining)
		if errors.Is(err, gateway.ErrWaitTimeout) {
			return FinalizeDeadline
		}
		if err != nil {
			if ctx.Err() != nil {
				return FinalizeShutdown
			}
			s.logger.Warn(ctx, "receive failed", "error", err)
			continue
		}

		if !s.qualifies(msg) {
			s.logger.Debug(ctx, "message without attachments ignored", "message_id", msg.ID)
			continue
		}
		s.accept(ctx, msg)
		if s.cfg.ResetOnPhoto {
			deadline = s.now().Add(s.cfg.Timeout)
		}
	}
	return FinalizeCap
}

func (s *PhotoSession) qualifies(msg gateway.Message) bool {
	return len(msg.Attachments) > 0
}

// accept appends the image attachments of msg up to the cap, reporting
// progress after each one, then removes the message from the channel.
func (s *PhotoSession) accept(ctx context.Context, msg gateway.Message) {
	for _, att := range msg.Attachments {
		if len(s.photos) >= models.MaxPhotos {
			break
		}
		if !att.IsImage() {
			continue
		}

		ref := att.URL
		if s.archiver != nil {
			archived, err := s.archiver.Archive(ctx, s.applicationID, len(s.photos)+1, att.URL, att.ContentType)
			if err != nil {
				s.logger.Warn(ctx, "photo archive failed, keeping attachment url", "error", err)
			} else {
				ref = archived
			}
		}
		s.photos = append(s.photos, ref)
		metrics.RecordPhotoAccepted()

		if err := s.status.ReportStatus(ctx, s.applicantID, progressKey(s.applicationID), messages.Progress(len(s.photos))); err != nil {
			metrics.RecordDeliveryFailure("status")
			s.logger.Warn(ctx, "progress update failed", "error", err)
		}
	}

	if err := s.chat.DeleteMessage(ctx, msg); err != nil {
		metrics.RecordDeliveryFailure("delete")
		s.logger.Warn(ctx, "delete upload message failed", "message_id", msg.ID, "error", err)
	}
}

func (s *PhotoSession) finalize(ctx context.Context, reason FinalizeReason) SessionOutcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	out := SessionOutcome{
		ApplicationID: s.applicationID,
		ApplicantID:   s.applicantID,
		Photos:        append([]string{}, s.photos...),
		Reason:        reason,
	}

	if err := s.store.UpdatePhotos(ctx, s.applicationID, out.Photos); err != nil {
		s.logger.Error(ctx, "persist photos failed", "count", len(out.Photos), "error", err)
	} else {
		out.Persisted = true
	}

	if err := s.status.ReportStatus(ctx, s.applicantID, completeKey(s.applicationID), messages.Complete(s.applicationID, len(out.Photos))); err != nil {
		metrics.RecordDeliveryFailure("status")
		s.logger.Warn(ctx, "completion status failed", "error", err)
	}

	s.logger.Info(ctx, "photo session finalized", "reason", string(reason), "count", len(out.Photos))
	return out
}
