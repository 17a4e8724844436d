// Package services implements the application workflow: intake, photo
// collection, the review queue, decisions and the membership gate.
package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/gateway"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
)

// PhotoArchiver copies an accepted attachment into durable storage and
// returns the reference to keep on the application.
type PhotoArchiver interface {
	Archive(ctx context.Context, applicationID string, index int, sourceURL, contentType string) (string, error)
}

// PhotoResolver turns a stored photo reference into a URL a reviewer can open.
type PhotoResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Deps are the collaborators shared by the workflow services. Archiver and
// Resolver are optional.
type Deps struct {
	Store    applications.Repository
	Gateway  gateway.Gateway
	Archiver PhotoArchiver
	Resolver PhotoResolver
	Logger   logging.Logger
	Now      func() time.Time
}

// Settings tune the workflow.
type Settings struct {
	AdminChannel   string
	WelcomeChannel string
	PhotoTimeout   time.Duration
	// ResetOnPhoto restarts the photo window after every qualifying message
	// instead of treating PhotoTimeout as a ceiling from session start.
	ResetOnPhoto   bool
	ViewIdleExpiry time.Duration
	PageSize       int
}

// Workflow is the explicit context object of the workflow. It owns the
// registry of active photo sessions; there is no package-level state.
type Workflow struct {
	Sessions   *SessionRegistry
	Intake     *IntakeService
	Review     *ReviewService
	Views      *ReviewViews
	Decisions  *DecisionService
	Membership *MembershipService
}

func NewWorkflow(deps Deps, settings Settings) *Workflow {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	sessions := NewSessionRegistry(deps.Logger)
	review := NewReviewService(deps.Store, deps.Resolver, deps.Logger)
	return &Workflow{
		Sessions:   sessions,
		Intake:     NewIntakeService(deps, settings, sessions),
		Review:     review,
		Views:      NewReviewViews(review, settings.PageSize, settings.ViewIdleExpiry, deps.Now),
		Decisions:  NewDecisionService(deps, settings, sessions),
		Membership: NewMembershipService(deps.Store),
	}
}

// Close stops waiting on photo uploads, finalizes open sessions with what
// they collected and returns when all of them are done.
func (w *Workflow) Close() {
	w.Sessions.Close()
}
