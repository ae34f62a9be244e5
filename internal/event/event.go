// Package event defines the units streamed to a sketchpad client during a turn.
//
// An Event is one of ChatToken, ChatMessage, Draw or Failure. Producers hand
// events out through a Stream, a pull-based sequence that the session loop
// drains one element at a time. Each event carries a pacing hint that tells
// the consumer how long to wait after sending it; the hint is metadata and is
// never part of the wire payload.
package event

import (
	"iter"
	"time"
)

// Kind tags the variant of an Event.
type Kind string

const (
	KindChatToken   Kind = "chat_token"
	KindChatMessage Kind = "chat_message"
	KindDraw        Kind = "draw"
	KindFailure     Kind = "error"
)

// Event is the common interface of every streamed unit.
type Event interface {
	Kind() Kind
	// Pace is how long a consumer may wait after emitting the event before
	// pulling the next one. Zero means no wait.
	Pace() time.Duration
}

// Stream is a lazy, ordered sequence of events. A non-nil error ends the
// sequence; producers never yield after an error.
type Stream = iter.Seq2[Event, error]

// Base carries the kind and pacing hint shared by all events.
type Base struct {
	kind Kind
	pace time.Duration
}

func NewBase(kind Kind, pace time.Duration) Base {
	return Base{kind: kind, pace: pace}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Pace() time.Duration {
	return b.pace
}

// ChatToken is an append-only fragment of the assistant's utterance. Tokens
// concatenate verbatim; a token implies no separator of its own.
type ChatToken struct {
	Base
	Token string
}

// NewChatToken creates a token event.
func NewChatToken(token string, pace time.Duration) ChatToken {
	return ChatToken{Base: NewBase(KindChatToken, pace), Token: token}
}

// ChatMessage is a complete chat line. From is empty for assistant messages
// and "user" for the echo of the user's own turn.
type ChatMessage struct {
	Base
	From    string
	Message string
}

// FromUser marks a ChatMessage that echoes the user's input.
const FromUser = "user"

// NewChatMessage creates an assistant chat message.
func NewChatMessage(message string) ChatMessage {
	return ChatMessage{Base: NewBase(KindChatMessage, 0), Message: message}
}

// NewUserEcho creates the echo of an inbound user message.
func NewUserEcho(text string) ChatMessage {
	return ChatMessage{Base: NewBase(KindChatMessage, 0), From: FromUser, Message: text}
}

// Draw wraps a single canvas command.
type Draw struct {
	Base
	Command DrawCommand
}

// NewDraw creates a draw event.
func NewDraw(cmd DrawCommand, pace time.Duration) Draw {
	return Draw{Base: NewBase(KindDraw, pace), Command: cmd}
}

// Failure reports that the current turn ended early.
type Failure struct {
	Base
	Message string
}

// NewFailure creates a failure event.
func NewFailure(message string) Failure {
	return Failure{Base: NewBase(KindFailure, 0), Message: message}
}
