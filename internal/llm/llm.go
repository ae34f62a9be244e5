// Package llm holds what the text-generation providers share: options, the
// instrumented HTTP client and the server-sent events reader.
package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrIncomplete is yielded when a stream ends before the provider signalled
// completion.
var ErrIncomplete = errors.New("stream ended before completion")

// DefaultInstructions steer the model towards tutoring answers.
const DefaultInstructions = "You are a patient math tutor. Explain step by step in plain text, " +
	"keep answers short, and do not use markdown."

// Options configures a provider client.
type Options struct {
	Model        string
	BaseURL      string
	Instructions string
	HTTPClient   *http.Client
}

// Option mutates Options.
type Option func(*Options)

func WithModel(model string) Option {
	return func(o *Options) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithBaseURL(url string) Option {
	return func(o *Options) {
		if url != "" {
			o.BaseURL = url
		}
	}
}

func WithInstructions(instructions string) Option {
	return func(o *Options) {
		if instructions != "" {
			o.Instructions = instructions
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		if client != nil {
			o.HTTPClient = client
		}
	}
}

// Apply builds Options from defaults and opts.
func Apply(defaults Options, opts ...Option) Options {
	o := defaults
	if o.Instructions == "" {
		o.Instructions = DefaultInstructions
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = NewHTTPClient(0)
	}
	return o
}

// NewHTTPClient returns a client whose requests are traced. A zero timeout
// leaves the request bound only by its context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return operation + " " + r.URL.Path
			}),
		),
	}
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("non-OK HTTP status: %s", e.Status)
	}
	return fmt.Sprintf("non-OK HTTP status: %s: %s", e.Status, e.Body)
}
