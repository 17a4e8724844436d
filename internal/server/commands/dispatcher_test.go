package commands

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/gateway"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
	"github.com/dmitrijs2005/guildgate/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	staff  = Actor{ID: "staff-1", Capabilities: []string{"manage_membership"}}
	reader = Actor{ID: "staff-2", Capabilities: []string{"view_applications"}}
	member = Actor{ID: "member-1"}
)

type fixture struct {
	store *applications.MemoryRepository
	gw    *gateway.Loopback
	wf    *services.Workflow
	d     *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := applications.NewMemoryRepository()
	gw := gateway.NewLoopback()
	wf := services.NewWorkflow(services.Deps{Store: store, Gateway: gw, Logger: logging.Nop()}, services.Settings{
		AdminChannel:   "applications",
		WelcomeChannel: "welcome",
		PhotoTimeout:   10 * time.Millisecond,
	})
	t.Cleanup(wf.Close)
	return &fixture{store: store, gw: gw, wf: wf, d: NewDispatcher(wf)}
}

func (f *fixture) submit(t *testing.T, applicant string) string {
	t.Helper()
	res, err := f.d.Dispatch(context.Background(), SubmitApplication{ApplicantID: applicant, GameID: "Hero123", Channel: "c1"})
	require.NoError(t, err)
	return res.(SubmitView).ApplicationID
}

func TestDispatch_SubmitReviewDecide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.submit(t, "u1")
	f.wf.Sessions.Wait()

	res, err := f.d.Dispatch(ctx, OpenReviewQueue{Actor: reader})
	require.NoError(t, err)
	page := res.(PageView)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)
	assert.Equal(t, 1, page.PageCount)

	res, err = f.d.Dispatch(ctx, AdvancePage{Actor: reader, Delta: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, res.(PageView).Page)

	res, err = f.d.Dispatch(ctx, ShowApplication{Actor: reader, ApplicationID: id})
	require.NoError(t, err)
	view := res.(ApplicationView)
	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, 0, view.PhotoCount)
	assert.Equal(t, []string{}, view.Photos)

	_, err = f.d.Dispatch(ctx, Approve{Actor: reader, ApplicationID: id})
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)

	res, err = f.d.Dispatch(ctx, Reject{Actor: staff, ApplicationID: id, Reason: "incomplete profile"})
	require.NoError(t, err)
	dv := res.(DecisionView)
	assert.Equal(t, "rejected", dv.Application.Status)
	assert.Equal(t, "incomplete profile", dv.Application.RejectionReason)
	assert.Equal(t, "staff-1", dv.Application.ReviewedBy)
	assert.True(t, dv.ApplicantNotified)

	_, err = f.d.Dispatch(ctx, Approve{Actor: staff, ApplicationID: id})
	assert.ErrorIs(t, err, common.ErrorAlreadyDecided)
}

func TestDispatch_Membership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.d.Dispatch(ctx, CheckMembership{ApplicantID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, MembershipView{}, res)

	id := f.submit(t, "u1")
	f.wf.Sessions.Wait()
	_, err = f.d.Dispatch(ctx, Approve{Actor: staff, ApplicationID: id})
	require.NoError(t, err)

	res, err = f.d.Dispatch(ctx, CheckMembership{ApplicantID: "u1"})
	require.NoError(t, err)
	mv := res.(MembershipView)
	assert.True(t, mv.Member)
	require.NotNil(t, mv.Application)
	assert.Equal(t, id, mv.Application.ID)
}

func TestDispatch_ListPendingIsStateless(t *testing.T) {
	f := newFixture(t)
	for _, u := range []string{"u1", "u2", "u3"} {
		f.submit(t, u)
	}
	f.wf.Sessions.Wait()

	res, err := f.d.Dispatch(context.Background(), ListPending{Actor: staff, Page: 1, PageSize: 2})
	require.NoError(t, err)
	page := res.(PageView)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.HasPrev)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 0, f.wf.Views.Len())

	_, err = f.d.Dispatch(context.Background(), ListPending{Actor: member})
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)
}

func TestDispatch_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.d.Dispatch(ctx, SubmitApplication{ApplicantID: "u1", Channel: "c1"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.d.Dispatch(ctx, AdvancePage{Actor: reader, Delta: 1})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.d.Dispatch(ctx, ShowApplication{Actor: reader, ApplicationID: "missing"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.d.Dispatch(ctx, ShowApplication{Actor: member, ApplicationID: "missing"})
	assert.ErrorIs(t, err, common.ErrorPermissionDenied)

	_, err = f.d.Dispatch(ctx, OpenReviewQueue{Actor: Actor{ID: "x", Capabilities: []string{"root"}}})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.d.Dispatch(ctx, MemberJoined{})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.d.Dispatch(ctx, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestDispatch_MemberJoined(t *testing.T) {
	f := newFixture(t)
	f.gw.FailDirectMessages("u1", assert.AnError)

	res, err := f.d.Dispatch(context.Background(), MemberJoined{Identity: "u1", SystemChannel: "general"})
	require.NoError(t, err)
	assert.Equal(t, GreetView{Fallback: true}, res)
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.d.HandleCommand(ctx, "submit", json.RawMessage(`{"applicant_id":"u1","game_id":"Hero123","channel":"c1"}`))
	require.NoError(t, err)
	id := res.(SubmitView).ApplicationID
	assert.NotEmpty(t, id)
	f.wf.Sessions.Wait()

	res, err = f.d.HandleCommand(ctx, "reject", json.RawMessage(`{"actor":{"id":"s1","capabilities":["manage_membership"]},"application_id":"`+id+`","reason":"no"}`))
	require.NoError(t, err)
	assert.Equal(t, "rejected", res.(DecisionView).Application.Status)

	_, err = f.d.HandleCommand(ctx, "kick", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.d.HandleCommand(ctx, "submit", json.RawMessage(`{"game_id":`))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestDecode(t *testing.T) {
	cmd, err := Decode("advance_page", json.RawMessage(`{"actor":{"id":"s1"},"delta":-1}`))
	require.NoError(t, err)
	assert.Equal(t, AdvancePage{Actor: Actor{ID: "s1"}, Delta: -1}, cmd)

	cmd, err = Decode("open_queue", nil)
	require.NoError(t, err)
	assert.Equal(t, OpenReviewQueue{}, cmd)
}

func TestActorOf(t *testing.T) {
	a := ActorOf(models.Reviewer{ID: "s1", Capabilities: models.CapManageMembership | models.CapViewApplications})
	assert.Equal(t, Actor{ID: "s1", Capabilities: []string{"manage_membership", "view_applications"}}, a)

	r, err := a.reviewer()
	require.NoError(t, err)
	assert.True(t, r.Capabilities.Has(models.CapManageMembership))
}
