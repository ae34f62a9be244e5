// Package router picks the producer that answers a user turn.
package router

import (
	"context"
	"strings"
	"time"

	"tutor-sketchpad/internal/event"
	"tutor-sketchpad/internal/lesson"
)

// Producer yields the event sequence for one turn.
type Producer interface {
	Produce(ctx context.Context, text string) event.Stream
}

// Route names the branch a turn takes.
type Route int

const (
	RouteFallback Route = iota
	RouteScripted
	RouteLive
)

func (r Route) String() string {
	switch r {
	case RouteLive:
		return "live"
	case RouteScripted:
		return "scripted"
	default:
		return "fallback"
	}
}

type keyword struct {
	match string
	topic string
}

// keywords are matched case-insensitively as substrings, longest first.
var keywords = []keyword{
	{match: "right triangle", topic: lesson.TopicPythagorean},
	{match: "triangle", topic: lesson.TopicPythagorean},
	{match: "pythag", topic: lesson.TopicPythagorean},
}

// Suggestion is spoken when nothing else can answer.
const Suggestion = "I can demo the Pythagorean theorem with a live sketch. Try asking: 'Explain the Pythagorean theorem.'"

// Router selects between the live producer, the scripted lessons and the
// fallback suggestion.
type Router struct {
	live      Producer
	scripted  Producer
	tokenPace time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithLive enables the live producer. A nil producer leaves it disabled.
func WithLive(p Producer) Option {
	return func(r *Router) {
		r.live = p
	}
}

// WithFallbackPace sets the pacing hint of fallback tokens.
func WithFallbackPace(pace time.Duration) Option {
	return func(r *Router) {
		r.tokenPace = pace
	}
}

// New returns a router over the scripted producer.
func New(scripted Producer, opts ...Option) *Router {
	r := &Router{scripted: scripted, tokenPace: lesson.DefaultTokenPace}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LiveAvailable reports whether a live capability is configured.
func (r *Router) LiveAvailable() bool {
	return r.live != nil
}

// Classify decides the route for text and, for scripted turns, the topic.
func (r *Router) Classify(text string) (Route, string) {
	if r.live != nil {
		return RouteLive, ""
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw.match) {
			return RouteScripted, kw.topic
		}
	}
	return RouteFallback, ""
}

// Select returns the events answering text. Every input gets a non-empty
// sequence.
func (r *Router) Select(ctx context.Context, text string) event.Stream {
	route, topic := r.Classify(text)
	switch route {
	case RouteLive:
		return r.live.Produce(ctx, text)
	case RouteScripted:
		return r.scripted.Produce(ctx, topic)
	default:
		return r.fallback()
	}
}

func (r *Router) fallback() event.Stream {
	return func(yield func(event.Event, error) bool) {
		for _, tok := range lesson.Tokenize(Suggestion) {
			if !yield(event.NewChatToken(tok, r.tokenPace), nil) {
				return
			}
		}
		yield(event.NewChatMessage(Suggestion), nil)
	}
}
