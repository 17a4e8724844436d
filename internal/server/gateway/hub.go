package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 64 << 10
	sendBuffer   = 256
)

// Frame types exchanged with the chat bridge.
const (
	FrameDM      = "dm"
	FramePost    = "post"
	FrameStatus  = "status"
	FrameDelete  = "delete"
	FrameMessage = "message"
	FrameCommand = "command"
	FrameResult  = "result"
)

// Frame is the JSON envelope on the bridge websocket.
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Identity  string          `json:"identity,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	StatusKey string          `json:"status_key,omitempty"`
	Content   string          `json:"content,omitempty"`
	Message   *Message        `json:"message,omitempty"`
	Command   string          `json:"command,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
	Data      any             `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// CommandHandler executes command frames sent by the bridge on behalf of
// chat users (button presses, modal submissions, slash commands).
type CommandHandler interface {
	HandleCommand(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// Hub is the Gateway backed by chat bridge processes connected over
// websocket. Each outbound frame is delivered to exactly one bridge, the
// longest-connected one with room in its send buffer, so several bridges
// act as standbys for each other. Inbound message frames from any bridge
// are routed to subscribed inboxes.
type Hub struct {
	mu       sync.RWMutex
	bridges  []*bridge
	closed   bool
	pumps    sync.WaitGroup
	boxes    *mailboxes
	limiter  *rate.Limiter
	commands CommandHandler
	logger   logging.Logger
	now      func() time.Time
}

// NewHub creates a hub whose outbound traffic is limited to perSecond frames
// with the given burst. perSecond <= 0 disables the limit.
func NewHub(logger logging.Logger, perSecond float64, burst int) *Hub {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Hub{
		boxes:   newMailboxes(),
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With("module", "gateway"),
		now:     time.Now,
	}
}

// SetCommandHandler installs the handler for inbound command frames.
func (h *Hub) SetCommandHandler(c CommandHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = c
}

// Connected returns the number of connected bridges.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bridges)
}

func (h *Hub) DirectMessage(ctx context.Context, identity, content string) error {
	return h.send(ctx, &Frame{Type: FrameDM, Identity: identity, Content: content})
}

func (h *Hub) PostToChannel(ctx context.Context, channel, content string) error {
	return h.send(ctx, &Frame{Type: FramePost, Channel: channel, Content: content})
}

func (h *Hub) ReportStatus(ctx context.Context, identity, statusKey, content string) error {
	return h.send(ctx, &Frame{Type: FrameStatus, Identity: identity, StatusKey: statusKey, Content: content})
}

func (h *Hub) DeleteMessage(ctx context.Context, msg Message) error {
	return h.send(ctx, &Frame{Type: FrameDelete, Channel: msg.Channel, Message: &msg})
}

func (h *Hub) Subscribe(identity, channel string) Inbox {
	return h.boxes.subscribe(identity, channel)
}

func (h *Hub) send(ctx context.Context, f *Frame) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorTransientDelivery, err)
	}
	f.ID = uuid.NewString()
	f.Timestamp = h.now().UTC()
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.bridges) == 0 {
		return fmt.Errorf("%w: %w", common.ErrorTransientDelivery, ErrNoBridge)
	}
	for _, b := range h.bridges {
		select {
		case b.send <- data:
			return nil
		default:
			h.logger.Warn(ctx, "bridge send buffer full", "frame", f.Type, "remote", b.conn.RemoteAddr().String())
		}
	}
	return fmt.Errorf("%w: all bridges busy", common.ErrorTransientDelivery)
}

// enqueue writes data to one bridge if it is still registered.
func (h *Hub) enqueue(b *bridge, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.indexOf(b) < 0 {
		return
	}
	select {
	case b.send <- data:
	default:
	}
}

func (h *Hub) indexOf(b *bridge) int {
	for i, c := range h.bridges {
		if c == b {
			return i
		}
	}
	return -1
}

// register adds b unless the hub is shut down. The writer is counted in
// pumps before the lock is released.
func (h *Hub) register(b *bridge) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.bridges = append(h.bridges, b)
	h.pumps.Add(1)
	metrics.BridgeConnected()
	return true
}

// detach removes b and closes its send buffer. Callers hold h.mu.
func (h *Hub) detach(i int) {
	b := h.bridges[i]
	h.bridges = append(h.bridges[:i], h.bridges[i+1:]...)
	close(b.send)
	metrics.BridgeDisconnected()
}

func (h *Hub) unregister(b *bridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := h.indexOf(b); i >= 0 {
		h.detach(i)
	}
}

// Serve runs a bridge connection until it closes or ctx is done.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn) {
	b := &bridge{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(b) {
		h.logger.Warn(ctx, "chat bridge refused, hub is shut down", "remote", conn.RemoteAddr().String())
		_ = conn.Close()
		return
	}
	h.logger.Info(ctx, "chat bridge connected", "remote", conn.RemoteAddr().String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer h.pumps.Done()
		b.writePump()
	}()
	b.readPump(ctx)

	h.unregister(b)
	h.logger.Info(ctx, "chat bridge disconnected", "remote", conn.RemoteAddr().String())
}

// Shutdown refuses new bridges, lets every connected bridge flush the frames
// already queued for it, closes the connections and waits for the writers.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	for len(h.bridges) > 0 {
		h.detach(len(h.bridges) - 1)
	}
	h.mu.Unlock()

	h.pumps.Wait()
}

func (h *Hub) handleFrame(ctx context.Context, b *bridge, f Frame) {
	switch f.Type {
	case FrameMessage:
		if f.Message == nil {
			h.logger.Debug(ctx, "message frame without payload")
			return
		}
		msg := *f.Message
		if msg.ReceivedAt.IsZero() {
			msg.ReceivedAt = h.now().UTC()
		}
		if n := h.boxes.deliver(msg); n == 0 {
			h.logger.Debug(ctx, "message not awaited", "author", msg.AuthorID, "channel", msg.Channel)
		}
	case FrameCommand:
		h.mu.RLock()
		handler := h.commands
		h.mu.RUnlock()
		go h.runCommand(ctx, b, handler, f)
	default:
		h.logger.Debug(ctx, "unknown frame type", "type", f.Type)
	}
}

func (h *Hub) runCommand(ctx context.Context, b *bridge, handler CommandHandler, f Frame) {
	res := Frame{Type: FrameResult, ID: f.ID, Command: f.Command, Timestamp: h.now().UTC()}
	if handler == nil {
		res.Error = "commands are not available"
	} else if data, err := handler.HandleCommand(ctx, f.Command, f.Args); err != nil {
		res.Error = err.Error()
	} else {
		res.Data = data
	}

	out, err := json.Marshal(res)
	if err != nil {
		h.logger.Error(ctx, "marshal result frame", "command", f.Command, "error", err)
		return
	}
	h.enqueue(b, out)
}

type bridge struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (b *bridge) readPump(ctx context.Context) {
	b.conn.SetReadLimit(maxFrameSize)
	_ = b.conn.SetReadDeadline(time.Now().Add(pongWait))
	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.hub.logger.Warn(ctx, "bridge read error", "error", err)
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			b.hub.logger.Warn(ctx, "invalid bridge frame", "error", err)
			continue
		}
		b.hub.handleFrame(ctx, b, f)
	}
}

func (b *bridge) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = b.conn.Close()
	}()

	for {
		select {
		case data, ok := <-b.send:
			_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = b.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := b.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
