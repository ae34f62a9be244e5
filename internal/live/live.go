// Package live adapts an external text-generation stream into sketchpad
// events.
package live

import (
	"context"
	"fmt"
	"iter"

	"tutor-sketchpad/internal/event"
)

// Generator is an external text-generation capability. Stream yields text
// fragments in arrival order and ends normally or with a single error.
type Generator interface {
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) iter.Seq2[string, error]

func (f GeneratorFunc) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return f(ctx, prompt)
}

// DefaultCompletionMessage closes every successful live turn.
const DefaultCompletionMessage = "Done."

// Producer forwards generated fragments as chat tokens and closes the turn
// with a chat message.
type Producer struct {
	gen        Generator
	completion string
}

// Option configures a Producer.
type Option func(*Producer)

// WithCompletionMessage sets the message emitted after the last fragment.
func WithCompletionMessage(message string) Option {
	return func(p *Producer) {
		if message != "" {
			p.completion = message
		}
	}
}

// NewProducer wraps gen.
func NewProducer(gen Generator, opts ...Option) *Producer {
	p := &Producer{gen: gen, completion: DefaultCompletionMessage}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Produce streams one generation for userText. Upstream failures end the
// stream with an error; nothing is retried.
func (p *Producer) Produce(ctx context.Context, userText string) event.Stream {
	return func(yield func(event.Event, error) bool) {
		for fragment, err := range p.gen.Stream(ctx, userText) {
			if err != nil {
				yield(nil, fmt.Errorf("live generation: %w", err))
				return
			}
			if fragment == "" {
				continue
			}
			if !yield(event.NewChatToken(fragment, 0), nil) {
				return
			}
		}
		yield(event.NewChatMessage(p.completion), nil)
	}
}
