// Package dispatch routes transport-neutral events to handlers through an
// explicit routing table keyed by event matcher and conversation state.
package dispatch

import (
	"context"
	"strconv"
)

// Kind classifies an inbound event.
type Kind int

const (
	KindOther Kind = iota
	KindCommand
	KindText
	KindCallback
	KindVoice
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindText:
		return "text"
	case KindCallback:
		return "callback"
	case KindVoice:
		return "voice"
	default:
		return "other"
	}
}

// ParseKind maps a kind name back to Kind; unknown names are KindOther.
func ParseKind(s string) Kind {
	for _, k := range []Kind{KindCommand, KindText, KindCallback, KindVoice} {
		if k.String() == s {
			return k
		}
	}
	return KindOther
}

// CallbackData is the decoded payload of an inline button press.
type CallbackData struct {
	Action  string
	Payload string
}

// PayloadInt64 parses the payload as an id.
func (c CallbackData) PayloadInt64() (int64, error) {
	return strconv.ParseInt(c.Payload, 10, 64)
}

// Event is one inbound user action.
type Event struct {
	Kind     Kind
	UpdateID int
	UserID   int64
	ChatID   int64
	Username string

	// Command is lower-case without the slash; Args is the rest of the line.
	Command string
	Args    string
	Text    string

	Callback CallbackData

	// Match holds the submatches of a Regex matcher.
	Match []string
}

// Button is an inline keyboard button.
type Button struct {
	Text    string
	Action  string
	Payload string
}

// Keyboard describes reply markup. Reply and Inline are mutually exclusive;
// Remove hides a previously shown reply keyboard.
type Keyboard struct {
	Reply   [][]string
	Inline  [][]Button
	Remove  bool
	OneTime bool
}

// Responder delivers replies for the event being handled.
type Responder interface {
	Send(ctx context.Context, text string, kb *Keyboard) error
	SendSticker(ctx context.Context, fileID string) error
	// RemoveInlineKeyboard strips the inline keyboard from the message a
	// callback came from. It is a no-op for other events.
	RemoveInlineKeyboard(ctx context.Context) error
}

// Handler processes one event.
type Handler func(ctx context.Context, ev *Event, r Responder) error

// Middleware wraps a Handler.
type Middleware func(Handler) Handler
