package gateway

import (
	"context"
	"sync"
	"time"
)

// Loopback is an in-process Gateway. Outbound traffic is recorded instead
// of sent and inbound messages are injected directly. It backs the workflow
// tests and can be armed to fail selected deliveries.
type Loopback struct {
	mu          sync.Mutex
	boxes       *mailboxes
	sent        []Frame
	deleted     []Message
	failDM      map[string]error
	failChannel map[string]error
	failStatus  error
	failDelete  error
}

func NewLoopback() *Loopback {
	return &Loopback{
		boxes:       newMailboxes(),
		failDM:      make(map[string]error),
		failChannel: make(map[string]error),
	}
}

// Inject delivers msg to matching inboxes and returns how many received it.
func (l *Loopback) Inject(msg Message) int {
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}
	return l.boxes.deliver(msg)
}

// Subscribers returns the number of inboxes currently open for identity.
func (l *Loopback) Subscribers(identity string) int {
	l.boxes.mu.Lock()
	defer l.boxes.mu.Unlock()
	n := 0
	for key, set := range l.boxes.subs {
		if key.identity == identity {
			n += len(set)
		}
	}
	return n
}

func (l *Loopback) FailDirectMessages(identity string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failDM[identity] = err
}

func (l *Loopback) FailChannel(channel string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failChannel[channel] = err
}

func (l *Loopback) FailStatus(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failStatus = err
}

func (l *Loopback) FailDeletes(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failDelete = err
}

// Sent returns the recorded outbound frames of the given type, or all of
// them when typ is empty.
func (l *Loopback) Sent(typ string) []Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Frame, 0, len(l.sent))
	for _, f := range l.sent {
		if typ == "" || f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func (l *Loopback) Deleted() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.deleted...)
}

func (l *Loopback) DirectMessage(ctx context.Context, identity, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.failDM[identity]; err != nil {
		return err
	}
	l.sent = append(l.sent, Frame{Type: FrameDM, Identity: identity, Content: content, Timestamp: time.Now().UTC()})
	return nil
}

func (l *Loopback) PostToChannel(ctx context.Context, channel, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.failChannel[channel]; err != nil {
		return err
	}
	l.sent = append(l.sent, Frame{Type: FramePost, Channel: channel, Content: content, Timestamp: time.Now().UTC()})
	return nil
}

func (l *Loopback) ReportStatus(ctx context.Context, identity, statusKey, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failStatus != nil {
		return l.failStatus
	}
	l.sent = append(l.sent, Frame{Type: FrameStatus, Identity: identity, StatusKey: statusKey, Content: content, Timestamp: time.Now().UTC()})
	return nil
}

func (l *Loopback) Subscribe(identity, channel string) Inbox {
	return l.boxes.subscribe(identity, channel)
}

func (l *Loopback) DeleteMessage(ctx context.Context, msg Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failDelete != nil {
		return l.failDelete
	}
	l.deleted = append(l.deleted, msg)
	return nil
}
