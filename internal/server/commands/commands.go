// Package commands models the user actions of the workflow as command
// objects and dispatches them to the services. The chat bridge and the
// staff API both go through the Dispatcher.
package commands

import "github.com/dmitrijs2005/guildgate/internal/server/models"

// Command is an invokable workflow action.
type Command interface {
	Name() string
}

// Actor identifies the member on whose behalf a command runs. Capabilities
// are established by the caller (chat roles or a staff token).
type Actor struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
}

func (a Actor) reviewer() (models.Reviewer, error) {
	caps, err := models.ParseCapabilities(a.Capabilities)
	if err != nil {
		return models.Reviewer{}, err
	}
	return models.Reviewer{ID: a.ID, Capabilities: caps}, nil
}

// ActorOf converts a reviewer back into an Actor.
func ActorOf(r models.Reviewer) Actor {
	return Actor{ID: r.ID, Capabilities: r.Capabilities.Names()}
}

// SubmitApplication is the filled-in application form.
type SubmitApplication struct {
	ApplicantID     string `json:"applicant_id"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	GameID          string `json:"game_id"`
	ApplicationText string `json:"application_text"`
	AvatarURL       string `json:"avatar_url"`
	Channel         string `json:"channel"`
}

// MemberJoined greets a member who just joined the community.
type MemberJoined struct {
	Identity      string `json:"identity"`
	SystemChannel string `json:"system_channel"`
}

// OpenReviewQueue starts a paginated review session for the actor.
type OpenReviewQueue struct {
	Actor Actor `json:"actor"`
}

// AdvancePage moves the actor's review session by Delta pages.
type AdvancePage struct {
	Actor Actor `json:"actor"`
	Delta int   `json:"delta"`
}

// ListPending returns one page of the pending queue without keeping a
// review session.
type ListPending struct {
	Actor    Actor `json:"actor"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// ShowApplication returns the detail view of one application.
type ShowApplication struct {
	Actor         Actor  `json:"actor"`
	ApplicationID string `json:"application_id"`
}

type Approve struct {
	Actor         Actor  `json:"actor"`
	ApplicationID string `json:"application_id"`
}

type Reject struct {
	Actor         Actor  `json:"actor"`
	ApplicationID string `json:"application_id"`
	Reason        string `json:"reason"`
}

// CheckMembership runs the membership gate for an applicant.
type CheckMembership struct {
	ApplicantID string `json:"applicant_id"`
}

func (SubmitApplication) Name() string { return "submit" }
func (MemberJoined) Name() string      { return "member_joined" }
func (OpenReviewQueue) Name() string   { return "open_queue" }
func (AdvancePage) Name() string       { return "advance_page" }
func (ListPending) Name() string       { return "list_pending" }
func (ShowApplication) Name() string   { return "show_application" }
func (Approve) Name() string           { return "approve" }
func (Reject) Name() string            { return "reject" }
func (CheckMembership) Name() string   { return "check_membership" }
