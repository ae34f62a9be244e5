package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tutor-sketchpad/internal/llm"
)

func chunk(content string) string {
	data, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]string{"content": content}}},
	})
	return "data: " + string(data) + "\n\n"
}

func newServer(t *testing.T, captured *requestBody, events ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			fmt.Fprint(w, ev)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func drain(c *Client) ([]string, error) {
	var out []string
	for frag, err := range c.Stream(context.Background(), "why?") {
		if err != nil {
			return out, err
		}
		out = append(out, frag)
	}
	return out, nil
}

func TestStreamYieldsContent(t *testing.T) {
	var captured requestBody
	srv := newServer(t, &captured, chunk("Right "), chunk(""), chunk("angle."), "data: [DONE]\n\n")
	got, err := drain(New("gsk-test", llm.WithBaseURL(srv.URL)))
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if strings.Join(got, "") != "Right angle." || len(got) != 2 {
		t.Fatalf("unexpected fragments %q", got)
	}
	if captured.Model != DefaultModel || len(captured.Messages) != 2 {
		t.Fatalf("unexpected request %+v", captured)
	}
	if captured.Messages[0].Role != "system" || captured.Messages[0].Content != llm.DefaultInstructions {
		t.Fatalf("unexpected system message %+v", captured.Messages[0])
	}
	if captured.Messages[1].Content != "why?" {
		t.Fatalf("unexpected user message %+v", captured.Messages[1])
	}
}

func TestStreamReportsProviderError(t *testing.T) {
	srv := newServer(t, nil, chunk("a "), "data: {\"error\":{\"message\":\"rate limited\"}}\n\n")
	got, err := drain(New("gsk-test", llm.WithBaseURL(srv.URL)))
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected fragments %q", got)
	}
}

func TestStreamWithoutDoneIsIncomplete(t *testing.T) {
	srv := newServer(t, nil, chunk("a "))
	if _, err := drain(New("gsk-test", llm.WithBaseURL(srv.URL))); !errors.Is(err, llm.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestStreamRejectsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err := drain(New("gsk-test", llm.WithBaseURL(srv.URL)))
	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) || statusErr.Body != "nope" {
		t.Fatalf("expected status error, got %v", err)
	}
}
