// Package openai streams text from the OpenAI Responses API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"tutor-sketchpad/internal/llm"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

type streamingEventType string

const (
	streamingEventOutputTextDelta    streamingEventType = "response.output_text.delta"
	streamingEventResponseCompleted  streamingEventType = "response.completed"
	streamingEventResponseFailed     streamingEventType = "response.failed"
	streamingEventResponseIncomplete streamingEventType = "response.incomplete"
	streamingEventError              streamingEventType = "error"
)

type requestBody struct {
	Model        string         `json:"model"`
	Instructions string         `json:"instructions,omitempty"`
	Input        []inputMessage `json:"input"`
	Stream       bool           `json:"stream"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type streamingBody struct {
	Type     string `json:"type"`
	Delta    string `json:"delta"`
	Message  string `json:"message"`
	Response *struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"response"`
}

func (b streamingBody) errorMessage() string {
	if b.Message != "" {
		return b.Message
	}
	if b.Response != nil && b.Response.Error != nil {
		return b.Response.Error.Message
	}
	return "unknown error"
}

// Client generates text with one streaming request per prompt.
type Client struct {
	apiKey string
	opts   llm.Options
}

// New returns a client authenticated with apiKey.
func New(apiKey string, opts ...llm.Option) *Client {
	return &Client{
		apiKey: apiKey,
		opts:   llm.Apply(llm.Options{Model: DefaultModel, BaseURL: DefaultBaseURL}, opts...),
	}
}

// Stream yields output text deltas in arrival order.
func (c *Client) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", c.opts.Model))

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WarnContext(ctx, "openai stream failed", "error", err)
			yield("", err)
		}

		body, err := json.Marshal(requestBody{
			Model:        c.opts.Model,
			Instructions: c.opts.Instructions,
			Input:        []inputMessage{{Role: "user", Content: prompt}},
			Stream:       true,
		})
		if err != nil {
			fail(fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		url := strings.TrimRight(c.opts.BaseURL, "/") + "/responses"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			fail(fmt.Errorf("error creating HTTP request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		requested := time.Now()
		span.AddEvent("request started")
		resp, err := c.opts.HTTPClient.Do(req)
		if err != nil {
			fail(fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			fail(&llm.StatusError{Status: resp.Status, Body: strings.TrimSpace(string(errorBody))})
			return
		}

		fragments := 0
		for ev, err := range llm.ReadEvents(resp.Body) {
			if err != nil {
				fail(err)
				return
			}
			var chunk streamingBody
			if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
				fail(fmt.Errorf("error unmarshalling JSON: %w", err))
				return
			}
			kind := streamingEventType(chunk.Type)
			if kind == "" {
				kind = streamingEventType(ev.Name)
			}

			switch kind {
			case streamingEventOutputTextDelta:
				if fragments == 0 {
					span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requested).Seconds()))
					span.AddEvent("received first chunk")
				}
				fragments++
				fragmentCounter.Add(ctx, 1)
				if !yield(chunk.Delta, nil) {
					return
				}
			case streamingEventResponseCompleted:
				span.SetAttributes(attribute.Int("response.fragments", fragments))
				logger.DebugContext(ctx, "openai stream completed", "fragments", fragments)
				return
			case streamingEventResponseFailed, streamingEventResponseIncomplete, streamingEventError:
				fail(fmt.Errorf("openai %s: %s", kind, chunk.errorMessage()))
				return
			}
		}
		fail(llm.ErrIncomplete)
	}
}
