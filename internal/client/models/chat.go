package models

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatSession is a server-side conversation container.
type ChatSession struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Message is a single entry of a session log.
//
// Messages loaded from history are always Confirmed. A user message sent
// optimistically starts unconfirmed and ends up either Confirmed or Failed.
type Message struct {
	// ID is a client-assigned correlation id. Stable across retries.
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	Confirmed bool
	Failed    bool
	// ReplyTo links an assistant reply to the user message that produced it.
	ReplyTo string
}

// Pending reports whether the message is still waiting for the server.
func (m Message) Pending() bool {
	return !m.Confirmed && !m.Failed
}
