package lesson

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"tutor-sketchpad/internal/event"
)

// ErrUnknownTopic is yielded when no storyboard exists for a topic.
var ErrUnknownTopic = errors.New("unknown lesson topic")

// DefaultTokenPace is the pause hinted after each narration token.
const DefaultTokenPace = 40 * time.Millisecond

// Scripted replays storyboards. It holds no per-call state, so producing the
// same topic twice yields identical sequences.
type Scripted struct {
	boards    map[string]Storyboard
	tokenPace time.Duration
}

// Option configures a Scripted producer.
type Option func(*Scripted)

// WithStoryboard registers or replaces the storyboard for its topic.
func WithStoryboard(board Storyboard) Option {
	return func(s *Scripted) {
		s.boards[board.Topic] = board
	}
}

// WithTokenPace overrides the pacing hint attached to narration tokens.
func WithTokenPace(pace time.Duration) Option {
	return func(s *Scripted) {
		s.tokenPace = pace
	}
}

// NewScripted returns a producer that knows the built-in lessons.
func NewScripted(opts ...Option) *Scripted {
	s := &Scripted{
		boards:    map[string]Storyboard{TopicPythagorean: Pythagorean()},
		tokenPace: DefaultTokenPace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Topics lists the known lesson topics in sorted order.
func (s *Scripted) Topics() []string {
	topics := make([]string, 0, len(s.boards))
	for topic := range s.boards {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics
}

// Produce streams the storyboard for topic. A malformed step ends the stream
// with an error after everything before it has been yielded.
func (s *Scripted) Produce(_ context.Context, topic string) event.Stream {
	return func(yield func(event.Event, error) bool) {
		board, ok := s.boards[topic]
		if !ok {
			yield(nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic))
			return
		}

		for i, step := range board.Steps {
			if err := step.validate(); err != nil {
				yield(nil, fmt.Errorf("storyboard %q step %d: %w", board.Topic, i, err))
				return
			}
			switch {
			case step.Narration != "":
				for _, tok := range Tokenize(step.Narration) {
					if !yield(event.NewChatToken(tok, s.tokenPace), nil) {
						return
					}
				}
			case step.Draw != nil:
				if !yield(event.NewDraw(step.Draw, step.Pace), nil) {
					return
				}
			default:
				if !yield(event.NewChatMessage(step.Message), nil) {
					return
				}
			}
		}
	}
}
