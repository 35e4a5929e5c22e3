package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/google/uuid"
)

// ChatState is the lifecycle of the message log for the current selection.
type ChatState int

const (
	StateIdle ChatState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s ChatState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type EventKind int

const (
	// EventReset means the whole log was replaced or emptied.
	EventReset EventKind = iota
	EventAppended
	EventUpdated
)

// Event describes one change of the message log. Message is empty for
// EventReset.
type Event struct {
	Kind      EventKind
	SessionID int64
	Message   models.Message
}

// ChatService owns the message log of the selected chat session and the
// optimistic send protocol.
//
// Contract:
//   - Select: switch sessions and load history. Id 0 deselects. Results
//     that arrive after another Select are dropped.
//   - Send: append the user message immediately, then reconcile it with the
//     server response. Blank text or id 0 is ignored.
//   - Retry: re-send a message that previously failed.
//
// Listeners are called outside the internal lock and may call back into the
// service.
type ChatService interface {
	Select(ctx context.Context, sessionID int64) error
	Reload(ctx context.Context) error
	Send(ctx context.Context, sessionID int64, text string) error
	Retry(ctx context.Context, messageID string) error

	SetInput(text string)
	Input() string
	SubmitInput(ctx context.Context) error

	Messages() []models.Message
	Selected() int64
	State() ChatState
	LoadErr() error

	SetListener(fn func(Event))
}

type ChatOption func(*chatService)

// WithClock overrides the time source used for local message timestamps.
func WithClock(now func() time.Time) ChatOption {
	return func(c *chatService) { c.now = now }
}

// WithIDGenerator overrides how message correlation ids are minted.
func WithIDGenerator(gen func() string) ChatOption {
	return func(c *chatService) { c.newID = gen }
}

func WithListener(fn func(Event)) ChatOption {
	return func(c *chatService) { c.listener = fn }
}

type chatService struct {
	client client.Client
	log    logging.Logger
	now    func() time.Time
	newID  func() string

	mu       sync.Mutex
	selected int64
	// epoch changes on every Select; loadSeq on every history load.
	epoch    uint64
	loadSeq  uint64
	state    ChatState
	loadErr  error
	messages []models.Message
	input    string
	listener func(Event)
}

func NewChatService(c client.Client, log logging.Logger, opts ...ChatOption) ChatService {
	s := &chatService{
		client: c,
		log:    log.With("component", "chat"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (c *chatService) Select(ctx context.Context, sessionID int64) error {
	c.mu.Lock()
	c.epoch++
	c.selected = sessionID
	c.messages = nil
	c.loadErr = nil
	c.state = StateIdle
	if sessionID == 0 {
		c.mu.Unlock()
		c.emit(Event{Kind: EventReset})
		return nil
	}
	c.state = StateLoading
	c.loadSeq++
	epoch, seq := c.epoch, c.loadSeq
	c.mu.Unlock()

	c.emit(Event{Kind: EventReset, SessionID: sessionID})
	return c.load(ctx, sessionID, epoch, seq)
}

// Reload fetches the history of the current selection again. Messages
// already in the log stay visible until the new history arrives.
func (c *chatService) Reload(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.selected
	if sessionID == 0 {
		c.mu.Unlock()
		return nil
	}
	c.loadSeq++
	c.state = StateLoading
	c.loadErr = nil
	epoch, seq := c.epoch, c.loadSeq
	c.mu.Unlock()

	return c.load(ctx, sessionID, epoch, seq)
}

func (c *chatService) load(ctx context.Context, sessionID int64, epoch, seq uint64) error {
	msgs, err := c.client.ChatMessages(ctx, sessionID)

	c.mu.Lock()
	if c.epoch != epoch || c.loadSeq != seq || c.selected != sessionID {
		c.mu.Unlock()
		c.log.Debug(ctx, "discarding stale history", "session_id", sessionID)
		return nil
	}

	if err != nil {
		c.state = StateFailed
		c.loadErr = err
		c.mu.Unlock()
		c.log.Error(ctx, "loading history failed", "session_id", sessionID, "error", err)
		return err
	}

	for i := range msgs {
		if msgs[i].ID == "" {
			msgs[i].ID = c.newID()
		}
		msgs[i].Confirmed = true
		msgs[i].Failed = false
	}
	// Sends still in flight or failed locally are not in the server history
	// yet; keep them after it.
	for _, m := range c.messages {
		if !m.Confirmed {
			msgs = append(msgs, m)
		}
	}
	c.messages = msgs
	c.state = StateReady
	c.mu.Unlock()

	c.log.Debug(ctx, "history loaded", "session_id", sessionID, "count", len(msgs))
	c.emit(Event{Kind: EventReset, SessionID: sessionID})
	return nil
}

func (c *chatService) Send(ctx context.Context, sessionID int64, text string) error {
	if sessionID == 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if sessionID != c.selected {
		c.mu.Unlock()
		return ErrSessionNotSelected
	}
	msg := models.Message{
		ID:        c.newID(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: c.now(),
	}
	c.messages = append(c.messages, msg)
	c.input = ""
	epoch := c.epoch
	c.mu.Unlock()

	c.emit(Event{Kind: EventAppended, SessionID: sessionID, Message: msg})
	return c.deliver(ctx, sessionID, epoch, msg)
}

func (c *chatService) Retry(ctx context.Context, messageID string) error {
	c.mu.Lock()
	idx := c.indexOf(messageID)
	if idx < 0 {
		c.mu.Unlock()
		return ErrMessageNotFound
	}
	if !c.messages[idx].Failed || c.messages[idx].Role != models.RoleUser {
		c.mu.Unlock()
		return ErrNotRetryable
	}
	c.messages[idx].Failed = false
	msg := c.messages[idx]
	sessionID, epoch := c.selected, c.epoch
	c.mu.Unlock()

	c.emit(Event{Kind: EventUpdated, SessionID: sessionID, Message: msg})
	return c.deliver(ctx, sessionID, epoch, msg)
}

// deliver sends msg and reconciles the log with the outcome. The outcome is
// dropped when the selection changed meanwhile. If msg itself is gone from
// the log of the same selection, a reply is still appended.
func (c *chatService) deliver(ctx context.Context, sessionID int64, epoch uint64, msg models.Message) error {
	reply, err := c.client.SendMessage(ctx, sessionID, msg.Content)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		if err != nil {
			c.log.Warn(ctx, "send failed after leaving session", "session_id", sessionID, "error", err)
		} else {
			c.log.Debug(ctx, "discarding stale send completion", "session_id", sessionID)
		}
		return nil
	}

	idx := c.indexOf(msg.ID)
	var events []Event
	if err != nil {
		if idx >= 0 {
			c.messages[idx].Failed = true
			events = append(events, Event{Kind: EventUpdated, SessionID: sessionID, Message: c.messages[idx]})
		}
		c.mu.Unlock()

		c.log.Error(ctx, "send failed", "session_id", sessionID, "message_id", msg.ID, "error", err)
		c.emit(events...)
		return err
	}

	if idx >= 0 {
		c.messages[idx].Confirmed = true
		events = append(events, Event{Kind: EventUpdated, SessionID: sessionID, Message: c.messages[idx]})
	}
	if reply != "" {
		answer := models.Message{
			ID:        c.newID(),
			Role:      models.RoleAssistant,
			Content:   reply,
			Timestamp: c.now(),
			Confirmed: true,
			ReplyTo:   msg.ID,
		}
		c.messages = append(c.messages, answer)
		events = append(events, Event{Kind: EventAppended, SessionID: sessionID, Message: answer})
	}
	c.mu.Unlock()

	c.emit(events...)
	return nil
}

func (c *chatService) indexOf(id string) int {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *chatService) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

func (c *chatService) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SubmitInput sends the input buffer to the selected session.
func (c *chatService) SubmitInput(ctx context.Context) error {
	c.mu.Lock()
	sessionID, text := c.selected, c.input
	c.mu.Unlock()
	return c.Send(ctx, sessionID, text)
}

func (c *chatService) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.messages)
}

func (c *chatService) Selected() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *chatService) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *chatService) LoadErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *chatService) SetListener(fn func(Event)) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

func (c *chatService) emit(events ...Event) {
	c.mu.Lock()
	fn := c.listener
	c.mu.Unlock()
	if fn == nil {
		return
	}
	for _, e := range events {
		fn(e)
	}
}
