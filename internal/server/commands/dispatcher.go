package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/dmitrijs2005/guildgate/internal/server/services"
)

// Dispatcher routes commands to the workflow services.
type Dispatcher struct {
	wf *services.Workflow
}

func NewDispatcher(wf *services.Workflow) *Dispatcher {
	return &Dispatcher{wf: wf}
}

// Dispatch runs cmd and returns its view.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case SubmitApplication:
		id, err := d.wf.Intake.Submit(ctx, services.SubmitInput{
			ApplicantID:     c.ApplicantID,
			Username:        c.Username,
			DisplayName:     c.DisplayName,
			GameID:          c.GameID,
			ApplicationText: c.ApplicationText,
			AvatarURL:       c.AvatarURL,
			Channel:         c.Channel,
		})
		if err != nil {
			return nil, err
		}
		return SubmitView{ApplicationID: id}, nil

	case MemberJoined:
		if c.Identity == "" {
			return nil, fmt.Errorf("%w: identity is required", common.ErrorValidation)
		}
		res := d.wf.Intake.Greet(ctx, c.Identity, c.SystemChannel)
		return GreetView{DirectMessage: res.DirectMessage, Fallback: res.Fallback}, nil

	case OpenReviewQueue:
		r, err := c.Actor.reviewer()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
		}
		page, err := d.wf.Views.Open(ctx, r)
		if err != nil {
			return nil, err
		}
		return pageView(page), nil

	case AdvancePage:
		page, err := d.wf.Views.Turn(c.Actor.ID, c.Delta)
		if err != nil {
			return nil, err
		}
		return pageView(page), nil

	case ListPending:
		if _, err := d.viewer(c.Actor); err != nil {
			return nil, err
		}
		apps, err := d.wf.Review.ListPending(ctx)
		if err != nil {
			return nil, err
		}
		return pageView(services.Paginate(apps, c.Page, c.PageSize)), nil

	case ShowApplication:
		if _, err := d.viewer(c.Actor); err != nil {
			return nil, err
		}
		detail, err := d.wf.Review.Detail(ctx, c.ApplicationID)
		if err != nil {
			return nil, err
		}
		return detailView(detail), nil

	case Approve:
		return d.decide(ctx, c.Actor, c.ApplicationID, models.OutcomeApprove, "")

	case Reject:
		return d.decide(ctx, c.Actor, c.ApplicationID, models.OutcomeReject, c.Reason)

	case CheckMembership:
		ok, app, err := d.wf.Membership.IsMember(ctx, c.ApplicantID)
		if err != nil {
			return nil, err
		}
		v := MembershipView{Member: ok}
		if app != nil {
			av := applicationView(app)
			v.Application = &av
		}
		return v, nil
	}
	if cmd == nil {
		return nil, fmt.Errorf("%w: no command", common.ErrorValidation)
	}
	return nil, fmt.Errorf("%w: unknown command %q", common.ErrorValidation, cmd.Name())
}

func (d *Dispatcher) viewer(a Actor) (models.Reviewer, error) {
	r, err := a.reviewer()
	if err != nil {
		return models.Reviewer{}, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	if !services.CanView(r) {
		return models.Reviewer{}, common.ErrorPermissionDenied
	}
	return r, nil
}

func (d *Dispatcher) decide(ctx context.Context, a Actor, id string, outcome models.Outcome, reason string) (any, error) {
	r, err := a.reviewer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	res, err := d.wf.Decisions.Decide(ctx, services.DecideInput{
		ApplicationID: id,
		Reviewer:      r,
		Outcome:       outcome,
		Reason:        reason,
	})
	if err != nil {
		return nil, err
	}
	return DecisionView{
		Application:       applicationView(res.Application),
		ApplicantNotified: res.ApplicantNotified,
		WelcomePosted:     res.WelcomePosted,
	}, nil
}

var decoders = map[string]func(json.RawMessage) (Command, error){
	SubmitApplication{}.Name(): decodeAs[SubmitApplication],
	MemberJoined{}.Name():      decodeAs[MemberJoined],
	OpenReviewQueue{}.Name():   decodeAs[OpenReviewQueue],
	AdvancePage{}.Name():       decodeAs[AdvancePage],
	ListPending{}.Name():       decodeAs[ListPending],
	ShowApplication{}.Name():   decodeAs[ShowApplication],
	Approve{}.Name():           decodeAs[Approve],
	Reject{}.Name():            decodeAs[Reject],
	CheckMembership{}.Name():   decodeAs[CheckMembership],
}

func decodeAs[C Command](args json.RawMessage) (Command, error) {
	var c C
	if len(args) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(args, &c); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}
	return c, nil
}

// Decode builds the command called name from its JSON arguments.
func Decode(name string, args json.RawMessage) (Command, error) {
	dec, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %q", common.ErrorValidation, name)
	}
	return dec(args)
}

// HandleCommand decodes and dispatches a command frame from the chat bridge.
func (d *Dispatcher) HandleCommand(ctx context.Context, name string, args json.RawMessage) (any, error) {
	cmd, err := Decode(name, args)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, cmd)
}
