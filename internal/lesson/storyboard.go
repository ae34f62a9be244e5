// Package lesson implements the scripted producer: fixed storyboards that
// narrate token by token and sketch on the canvas between narration chunks.
package lesson

import (
	"errors"
	"strings"
	"time"

	"tutor-sketchpad/internal/event"
)

// ErrMalformedStep is returned for a storyboard step that is not exactly one
// of narration, drawing or conclusion.
var ErrMalformedStep = errors.New("malformed storyboard step")

// Step is one beat of a storyboard. Exactly one of Narration, Draw or Message
// is set. Pace applies after a Draw.
type Step struct {
	Narration string
	Draw      event.DrawCommand
	Pace      time.Duration
	Message   string
}

// Storyboard is the complete script of one lesson.
type Storyboard struct {
	Topic string
	Steps []Step
}

func (s Step) validate() error {
	set := 0
	if s.Narration != "" {
		set++
	}
	if s.Draw != nil {
		set++
	}
	if s.Message != "" {
		set++
	}
	if set != 1 {
		return ErrMalformedStep
	}
	return nil
}

// Narration returns the utterance the storyboard's tokens add up to.
func (b Storyboard) Narration() string {
	var sb strings.Builder
	for _, step := range b.Steps {
		for _, tok := range Tokenize(step.Narration) {
			sb.WriteString(tok)
		}
	}
	return sb.String()
}

// Tokenize splits text on single spaces and keeps one trailing space on every
// fragment, so the fragments concatenate to text followed by a space.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, " ")
	tokens := make([]string, len(parts))
	for i, part := range parts {
		tokens[i] = part + " "
	}
	return tokens
}

func narrate(text string) Step {
	return Step{Narration: text}
}

func draw(cmd event.DrawCommand, pace time.Duration) Step {
	return Step{Draw: cmd, Pace: pace}
}

func conclude(message string) Step {
	return Step{Message: message}
}
