package chat

import (
	"wellmind-session-svc/src/internal/models"
)

// Mode identifies one of the two independent conversation contexts.
type Mode string

const (
	ModeListen   Mode = "listen"
	ModeOrganize Mode = "organize"
)

// ParseMode validates a raw mode value. An unknown mode is a programmer
// error, not an expected runtime condition.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeListen, ModeOrganize:
		return Mode(raw), nil
	}
	return "", models.ErrInvalidMode
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable entry in a conversation thread.
type Message struct {
	ID     string `json:"id"`
	Author Role   `json:"author"`
	Text   string `json:"text"`
}

// thread is the append-only message sequence for one mode, with the
// in-flight guard serializing sends for that mode only.
type thread struct {
	messages []Message
	inFlight bool
}

// SendResult reports the outcome of a Send call. A rejected send leaves the
// thread untouched; an accepted one appends exactly one user and one
// assistant message.
type SendResult struct {
	Accepted         bool
	RejectedInFlight bool
	UserMessage      *Message
	AssistantMessage *Message
}
