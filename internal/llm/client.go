// Package llm turns a free-form utterance into a structured search query
// with a hosted language model.
package llm

import (
	"context"
	"fmt"
)

// Client sends one prompt to one model and returns the text reply.
type Client interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, model, prompt string) (string, error)

func (f ClientFunc) Generate(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

// APIError is a non-2xx answer from the model API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm api: status %d: %s", e.StatusCode, e.Message)
}
