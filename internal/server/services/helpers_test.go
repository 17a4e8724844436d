package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/gateway"
	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// step is a message that arrives `after` the previous event.
type step struct {
	after time.Duration
	msg   gateway.Message
}

// scriptedInbox replays steps against a fake clock instead of waiting.
type scriptedInbox struct {
	clock  *fakeClock
	steps  []step
	waits  []time.Duration
	closed bool
}

func (in *scriptedInbox) Next(ctx context.Context, timeout time.Duration) (gateway.Message, error) {
	in.waits = append(in.waits, timeout)
	if len(in.steps) == 0 || in.steps[0].after >= timeout {
		in.clock.Advance(timeout)
		return gateway.Message{}, gateway.ErrWaitTimeout
	}
	st := in.steps[0]
	in.steps = in.steps[1:]
	in.clock.Advance(st.after)
	return st.msg, nil
}

func (in *scriptedInbox) Close() { in.closed = true }

// scriptedGateway records outbound traffic like Loopback but hands out a
// scripted inbox.
type scriptedGateway struct {
	*gateway.Loopback
	inbox *scriptedInbox
}

func (g *scriptedGateway) Subscribe(identity, channel string) gateway.Inbox { return g.inbox }

type failingStore struct {
	applications.Repository
	failPhotos   error
	failDecision error
	failGet      error
}

func (s *failingStore) UpdatePhotos(ctx context.Context, id string, photos []string) error {
	if s.failPhotos != nil {
		return s.failPhotos
	}
	return s.Repository.UpdatePhotos(ctx, id, photos)
}

func (s *failingStore) UpdateDecision(ctx context.Context, id string, d models.Decision) error {
	if s.failDecision != nil {
		return s.failDecision
	}
	return s.Repository.UpdateDecision(ctx, id, d)
}

func (s *failingStore) Get(ctx context.Context, id string) (*models.Application, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	return s.Repository.Get(ctx, id)
}

type fakeArchiver struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (a *fakeArchiver) Archive(ctx context.Context, applicationID string, index int, sourceURL, contentType string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, sourceURL)
	if a.err != nil {
		return "", a.err
	}
	return fmt.Sprintf("s3://photos/applications/%s/%02d.png", applicationID, index), nil
}

type fakeResolver struct {
	err error
}

func (r *fakeResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "https://signed/" + ref, nil
}

func images(n int) []gateway.Attachment {
	out := make([]gateway.Attachment, n)
	for i := range out {
		out[i] = gateway.Attachment{URL: fmt.Sprintf("https://cdn.example/%d.png", i+1), ContentType: "image/png"}
	}
	return out
}

func photoMessage(id, author, channel string, atts ...gateway.Attachment) gateway.Message {
	return gateway.Message{ID: id, AuthorID: author, Channel: channel, Attachments: atts}
}

func seedPending(store applications.Repository, id, applicant string, at time.Time) *models.Application {
	app := &models.Application{
		ID: id, ApplicantID: applicant, DisplayName: "Name " + id, GameID: "game-" + id,
		Photos: []string{}, Status: models.StatusPending, CreatedAt: at,
	}
	if _, err := store.Create(context.Background(), app); err != nil {
		panic(err)
	}
	return app
}

func testDeps(store applications.Repository, gw gateway.Gateway, clock *fakeClock) Deps {
	return Deps{Store: store, Gateway: gw, Logger: logging.Nop(), Now: clock.Now}
}

var (
	manager = models.Reviewer{ID: "staff-1", Capabilities: models.CapManageMembership}
	viewer  = models.Reviewer{ID: "staff-2", Capabilities: models.CapViewApplications}
	nobody  = models.Reviewer{ID: "member-1"}
)

func newLoopbackGateway() *gateway.Loopback { return gateway.NewLoopback() }
