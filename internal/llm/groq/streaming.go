// Package groq streams text from Groq's OpenAI-compatible Chat Completions
// endpoint.
package groq

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
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"

	doneSentinel = "[DONE]"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type requestBody struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type streamingBody struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client generates text with one streaming chat completion per prompt.
type Client struct {
	apiKey string
	opts   llm.Options
}

func New(apiKey string, opts ...llm.Option) *Client {
	return &Client{
		apiKey: apiKey,
		opts:   llm.Apply(llm.Options{Model: DefaultModel, BaseURL: DefaultBaseURL}, opts...),
	}
}

// Stream yields content deltas until the provider sends [DONE].
func (c *Client) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", c.opts.Model))

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WarnContext(ctx, "groq stream failed", "error", err)
			yield("", err)
		}

		body, err := json.Marshal(requestBody{
			Model: c.opts.Model,
			Messages: []message{
				{Role: "system", Content: c.opts.Instructions},
				{Role: "user", Content: prompt},
			},
			Stream: true,
		})
		if err != nil {
			fail(fmt.Errorf("error marshalling JSON: %w", err))
			return
		}

		url := strings.TrimRight(c.opts.BaseURL, "/") + "/chat/completions"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			fail(fmt.Errorf("error creating HTTP request: %w", err))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		requested := time.Now()
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
			if strings.TrimSpace(ev.Data) == doneSentinel {
				span.SetAttributes(attribute.Int("response.fragments", fragments))
				logger.DebugContext(ctx, "groq stream completed", "fragments", fragments)
				return
			}
			var chunk streamingBody
			if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
				fail(fmt.Errorf("error unmarshalling JSON: %w", err))
				return
			}
			if chunk.Error != nil {
				fail(fmt.Errorf("groq error: %s", chunk.Error.Message))
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if fragments == 0 {
				span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requested).Seconds()))
			}
			fragments++
			fragmentCounter.Add(ctx, 1)
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		fail(llm.ErrIncomplete)
	}
}
