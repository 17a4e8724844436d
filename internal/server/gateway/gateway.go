// Package gateway is the boundary to the chat platform: outbound direct
// messages, channel posts and status updates, and inbound applicant
// messages. All operations are best-effort; callers log failures and carry on.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrWaitTimeout is returned by Inbox.Next when nothing arrived in time.
var ErrWaitTimeout = errors.New("wait timeout")

// ErrNoBridge is returned when no chat bridge is connected.
var ErrNoBridge = errors.New("no chat bridge connected")

// Attachment is a file attached to a chat message.
type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename,omitempty"`
}

// IsImage reports whether the attachment carries an image/* content type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.ContentType), "image/")
}

// Message is an inbound chat message.
type Message struct {
	ID          string       `json:"id"`
	Channel     string       `json:"channel"`
	AuthorID    string       `json:"author_id"`
	Content     string       `json:"content,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReceivedAt  time.Time    `json:"received_at"`
}

// Notifier sends free-form content to a user or a named channel.
type Notifier interface {
	DirectMessage(ctx context.Context, identity, content string) error
	PostToChannel(ctx context.Context, channel, content string) error
}

// StatusReporter maintains a single editable status message per identity
// and key; each call replaces the previous content.
type StatusReporter interface {
	ReportStatus(ctx context.Context, identity, statusKey, content string) error
}

// Inbox is a subscription to messages from one author, optionally limited to
// one channel. Messages that arrive between Next calls are buffered.
type Inbox interface {
	Next(ctx context.Context, timeout time.Duration) (Message, error)
	Close()
}

// Chat is the inbound side of the platform.
type Chat interface {
	Subscribe(identity, channel string) Inbox
	DeleteMessage(ctx context.Context, msg Message) error
}

// Gateway bundles every capability the workflow consumes.
type Gateway interface {
	Notifier
	StatusReporter
	Chat
}
