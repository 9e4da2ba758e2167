package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra detail.
var (
	// ErrMissingCredential means no API key was configured; no network call
	// is attempted in this case.
	ErrMissingCredential = errors.New("missing API key: set OPENAI_API_KEY in your environment")

	// ErrEmptyResponse means the API answered successfully but with no
	// usable completion content.
	ErrEmptyResponse = errors.New("the chat API returned an empty response")

	// ErrCancelled means the caller cancelled while a request or backoff
	// sleep was pending. It is distinct from transport failure so the
	// front-end can phrase it without alarm.
	ErrCancelled = errors.New("request cancelled")
)

// UnauthorizedError is a terminal auth failure (401/403); retrying cannot
// help until the credential changes.
type UnauthorizedError struct {
	Detail string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("the chat API rejected the credential: %s", e.Detail)
}

// RateLimitedError is a 429; retried within budget, surfaced when it keeps
// failing.
type RateLimitedError struct {
	Detail string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("the chat API is rate limiting requests: %s", e.Detail)
}

// ServerError covers non-2xx statuses that are not auth or rate-limit
// failures. Statuses >= 500 are retried within budget.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("chat API error (%d): %s", e.Status, e.Detail)
}

// TransportError is a network-level failure. Retryable marks conditions worth
// another attempt (timeout, connection lost, unresolvable host).
type TransportError struct {
	Detail    string
	Retryable bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error talking to the chat API: %s", e.Detail)
}

// InvalidResponseError means the API answered with a body that does not
// match the expected completion shape.
type InvalidResponseError struct {
	Detail string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("received an invalid response from the chat API: %s", e.Detail)
}
