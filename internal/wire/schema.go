// Package wire maps events to the JSON frames exchanged over the websocket.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"tutor-sketchpad/internal/event"
)

// Inbound message types
const (
	TypeUserMessage = "user_message"
	TypeClearCanvas = "clear_canvas"
)

// Outbound message types
const (
	TypeChatMessage = "chat_message"
	TypeChatToken   = "chat_token"
	TypeDraw        = "draw"
	TypeError       = "error"
)

// ErrMalformed marks an inbound frame that cannot be parsed or lacks a
// required field.
var ErrMalformed = errors.New("malformed inbound message")

// Inbound is the envelope for all client messages
type Inbound struct {
	Type string  `json:"type" jsonschema:"enum=user_message,enum=clear_canvas"`
	Text *string `json:"text,omitempty" jsonschema:"description=Question text; required for user_message"`
}

// ChatMessage is a complete chat line
type ChatMessage struct {
	Type    string `json:"type" jsonschema:"const=chat_message"`
	From    string `json:"from,omitempty" jsonschema:"enum=user"`
	Message string `json:"message"`
}

// ChatToken is a streamed fragment of the assistant's reply
type ChatToken struct {
	Type  string `json:"type" jsonschema:"const=chat_token"`
	Token string `json:"token"`
}

// DrawMessage carries one canvas command
type DrawMessage struct {
	Type  string        `json:"type" jsonschema:"const=draw"`
	Cmd   event.Command `json:"cmd" jsonschema:"enum=clear,enum=line,enum=rect,enum=text,enum=polyline,enum=circle"`
	Args  any           `json:"args,omitempty" jsonschema:"description=Command arguments; absent for clear"`
	Style *event.Style  `json:"style,omitempty"`
}

// ErrorMessage reports a turn that ended early
type ErrorMessage struct {
	Type    string `json:"type" jsonschema:"const=error"`
	Message string `json:"message"`
}

// Decode parses one inbound frame. Unknown types decode without error; the
// caller ignores them.
func Decode(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if in.Type == TypeUserMessage && in.Text == nil {
		return Inbound{}, fmt.Errorf("%w: user_message without text", ErrMalformed)
	}
	return in, nil
}

// Frame returns the outbound value for an event.
func Frame(ev event.Event) (any, error) {
	switch ev := ev.(type) {
	case event.ChatToken:
		return ChatToken{Type: TypeChatToken, Token: ev.Token}, nil
	case event.ChatMessage:
		return ChatMessage{Type: TypeChatMessage, From: ev.From, Message: ev.Message}, nil
	case event.Draw:
		if ev.Command == nil {
			return nil, errors.New("draw event without command")
		}
		msg := DrawMessage{Type: TypeDraw, Cmd: ev.Command.Cmd(), Style: ev.Command.Stroke()}
		if msg.Cmd != event.CommandClear {
			msg.Args = ev.Command
		}
		return msg, nil
	case event.Failure:
		return ErrorMessage{Type: TypeError, Message: ev.Message}, nil
	default:
		return nil, fmt.Errorf("unsupported event %T", ev)
	}
}

// Encode serializes an event into exactly one outbound frame.
func Encode(ev event.Event) ([]byte, error) {
	frame, err := Frame(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(frame)
}
