package live

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"tutor-sketchpad/internal/event"
)

type fakeGenerator struct {
	fragments []string
	failAfter int
	err       error
	calls     int
	prompts   []string
}

func (f *fakeGenerator) Stream(_ context.Context, prompt string) iter.Seq2[string, error] {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return func(yield func(string, error) bool) {
		for i, frag := range f.fragments {
			if f.err != nil && i == f.failAfter {
				yield("", f.err)
				return
			}
			if !yield(frag, nil) {
				return
			}
		}
		if f.err != nil && f.failAfter >= len(f.fragments) {
			yield("", f.err)
		}
	}
}

func drain(stream event.Stream) ([]event.Event, error) {
	var events []event.Event
	for ev, err := range stream {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func TestProduceForwardsFragments(t *testing.T) {
	gen := &fakeGenerator{fragments: []string{"The ", "", "square ", "of c."}}
	events, err := drain(NewProducer(gen).Produce(context.Background(), "why?"))
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 3 tokens and a completion, got %d", len(events))
	}
	want := []string{"The ", "square ", "of c."}
	for i, w := range want {
		tok, ok := events[i].(event.ChatToken)
		if !ok || tok.Token != w {
			t.Fatalf("event %d = %#v, want token %q", i, events[i], w)
		}
	}
	done, ok := events[3].(event.ChatMessage)
	if !ok || done.Message != DefaultCompletionMessage || done.From != "" {
		t.Fatalf("unexpected completion %#v", events[3])
	}
	if gen.prompts[0] != "why?" {
		t.Fatalf("prompt not forwarded: %v", gen.prompts)
	}
}

func TestProducePropagatesFailure(t *testing.T) {
	boom := errors.New("upstream reset")
	gen := &fakeGenerator{fragments: []string{"one ", "two ", "three "}, failAfter: 2, err: boom}
	events, err := drain(NewProducer(gen).Produce(context.Background(), "q"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected two tokens before failure, got %d", len(events))
	}
	if gen.calls != 1 {
		t.Fatalf("generation must not be retried, calls=%d", gen.calls)
	}
}

func TestCompletionMessageOption(t *testing.T) {
	gen := &fakeGenerator{}
	events, err := drain(NewProducer(gen, WithCompletionMessage("That's all.")).Produce(context.Background(), "q"))
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if len(events) != 1 || events[0].(event.ChatMessage).Message != "That's all." {
		t.Fatalf("unexpected events %#v", events)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503")}
	guarded := WithBreaker(gen, BreakerSettings{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute})
	producer := NewProducer(guarded)

	for i := 0; i < 2; i++ {
		if _, err := drain(producer.Produce(context.Background(), "q")); err == nil {
			t.Fatalf("attempt %d: expected failure", i)
		}
	}
	_, err := drain(producer.Produce(context.Background(), "q"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected breaker rejection, got %v", err)
	}
	if gen.calls != 2 {
		t.Fatalf("open breaker must not reach upstream, calls=%d", gen.calls)
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &fakeGenerator{err: context.Canceled}
	guarded := WithBreaker(gen, BreakerSettings{Name: "test", MaxFailures: 1, OpenTimeout: time.Minute})
	for i := 0; i < 3; i++ {
		for range guarded.Stream(ctx, "q") {
		}
	}
	if gen.calls != 3 {
		t.Fatalf("cancelled turns must not trip the breaker, calls=%d", gen.calls)
	}
}

func TestGeneratorFunc(t *testing.T) {
	var gen Generator = GeneratorFunc(func(_ context.Context, prompt string) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			yield(prompt, nil)
		}
	})
	events, err := drain(NewProducer(gen).Produce(context.Background(), "echo "))
	if err != nil || len(events) != 2 || events[0].(event.ChatToken).Token != "echo " {
		t.Fatalf("unexpected %#v %v", events, err)
	}
}
