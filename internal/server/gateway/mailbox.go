package gateway

import (
	"context"
	"sync"
	"time"
)

const inboxBuffer = 32

type inboxKey struct {
	identity string
	channel  string
}

// mailboxes routes inbound messages to the inboxes subscribed to their author.
type mailboxes struct {
	mu   sync.Mutex
	subs map[inboxKey]map[*inbox]struct{}
}

func newMailboxes() *mailboxes {
	return &mailboxes{subs: make(map[inboxKey]map[*inbox]struct{})}
}

func (m *mailboxes) subscribe(identity, channel string) *inbox {
	in := &inbox{
		key:    inboxKey{identity: identity, channel: channel},
		ch:     make(chan Message, inboxBuffer),
		owner:  m,
		closed: make(chan struct{}),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.subs[in.key]
	if !ok {
		set = make(map[*inbox]struct{})
		m.subs[in.key] = set
	}
	set[in] = struct{}{}
	return in
}

func (m *mailboxes) unsubscribe(in *inbox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.subs[in.key]
	delete(set, in)
	if len(set) == 0 {
		delete(m.subs, in.key)
	}
}

// deliver hands msg to every matching inbox and reports how many took it.
// An inbox subscribed with an empty channel matches any channel. Full
// inboxes drop the message.
func (m *mailboxes) deliver(msg Message) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, key := range []inboxKey{{msg.AuthorID, msg.Channel}, {msg.AuthorID, ""}} {
		for in := range m.subs[key] {
			select {
			case in.ch <- msg:
				n++
			default:
			}
		}
		if msg.Channel == "" {
			break
		}
	}
	return n
}

type inbox struct {
	key       inboxKey
	ch        chan Message
	owner     *mailboxes
	closeOnce sync.Once
	closed    chan struct{}
}

func (in *inbox) Next(ctx context.Context, timeout time.Duration) (Message, error) {
	select {
	case msg := <-in.ch:
		return msg, nil
	default:
	}
	if timeout <= 0 {
		return Message{}, ErrWaitTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-in.ch:
		return msg, nil
	case <-timer.C:
		return Message{}, ErrWaitTimeout
	case <-in.closed:
		return Message{}, ErrWaitTimeout
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (in *inbox) Close() {
	in.closeOnce.Do(func() {
		in.owner.unsubscribe(in)
		close(in.closed)
	})
}
