package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/metrics"
)

// SessionRegistry tracks photo sessions by application id. At most one
// session runs per id and an id that has run once cannot be started again.
type SessionRegistry struct {
	mu       sync.Mutex
	active   map[string]*PhotoSession
	finished map[string]struct{}
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   logging.Logger
}

func NewSessionRegistry(logger logging.Logger) *SessionRegistry {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionRegistry{
		active:   make(map[string]*PhotoSession),
		finished: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With("module", "sessions"),
	}
}

// Start subscribes the session to the applicant's messages and runs it in
// the background. done is called with the outcome after finalization.
func (r *SessionRegistry) Start(s *PhotoSession, done func(ctx context.Context, out SessionOutcome)) error {
	id := s.ApplicationID()

	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return fmt.Errorf("session registry closed: %w", common.ErrorInternal)
	}
	if _, ok := r.active[id]; ok {
		r.mu.Unlock()
		return fmt.Errorf("application %s: %w", id, common.ErrorSessionExists)
	}
	if _, ok := r.finished[id]; ok {
		r.mu.Unlock()
		return fmt.Errorf("application %s: %w", id, common.ErrorSessionExists)
	}
	r.active[id] = s
	r.wg.Add(1)
	r.mu.Unlock()

	s.subscribe()
	metrics.SessionStarted()

	go func() {
		defer r.wg.Done()
		out := s.Run(r.ctx)
		metrics.SessionFinalized(string(out.Reason))

		// the session counts as active until the admin alert has gone out
		if done != nil {
			done(context.WithoutCancel(r.ctx), out)
		}

		r.mu.Lock()
		delete(r.active, id)
		r.finished[id] = struct{}{}
		r.mu.Unlock()
	}()
	return nil
}

// Active reports whether a session for id is still collecting or finishing.
func (r *SessionRegistry) Active(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok
}

// Len returns the number of running sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Wait blocks until every started session has finished.
func (r *SessionRegistry) Wait() {
	r.wg.Wait()
}

// Close cancels running sessions and waits for them. Further Start calls fail.
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	r.cancel()
	n := len(r.active)
	r.mu.Unlock()
	if n > 0 {
		r.logger.Info(context.Background(), "finalizing open photo sessions", "count", n)
	}
	r.wg.Wait()
}
