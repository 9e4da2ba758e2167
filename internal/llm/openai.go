package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
)

// temperature is fixed: the persona lives in the prompt, not in sampling.
const temperature = 0.7

const (
	defaultTimeout   = 30 * time.Second
	defaultBaseDelay = 500 * time.Millisecond
)

// OpenAIOptions configures the OpenAI-compatible chat client. Transport is an
// injection seam for tests; leave nil for the default HTTP transport.
type OpenAIOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	Transport      http.RoundTripper
}

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint with a
// small retry budget. Backoff grows linearly (attempt × base delay) with no
// cap or jitter; fine for a single-user client, do not reuse this loop for
// anything with real concurrency.
type OpenAIClient struct {
	client     *openai.Client
	apiKey     string
	model      string
	maxRetries int
	baseDelay  time.Duration
}

func NewOpenAI(opts OpenAIOptions) *OpenAIClient {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	config.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: opts.Transport,
	}
	baseDelay := opts.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &OpenAIClient{
		client:     openai.NewClientWithConfig(config),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		maxRetries: retries,
		baseDelay:  baseDelay,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", ErrMissingCredential
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, time.Duration(attempt)*c.baseDelay); err != nil {
				return "", ErrCancelled
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ErrCancelled
			}
			mapped, retryable := classifyError(err)
			if !retryable {
				return "", mapped
			}
			lastErr = mapped
			continue
		}

		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return "", ErrEmptyResponse
		}
		return content, nil
	}
	return "", lastErr
}

// classifyError maps an SDK error into the exposed taxonomy and reports
// whether another attempt is worthwhile.
func classifyError(err error) (error, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Detail: urlErr.Err.Error(), Retryable: retryableNetError(urlErr)}, retryableNetError(urlErr)
	}

	// A 2xx response whose body did not decode ends up here.
	return &InvalidResponseError{Detail: err.Error()}, false
}

func classifyStatus(status int, detail string) (error, bool) {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &UnauthorizedError{Detail: detail}, false
	case status == http.StatusTooManyRequests:
		return &RateLimitedError{Detail: detail}, true
	case status >= 500:
		return &ServerError{Status: status, Detail: detail}, true
	default:
		return &ServerError{Status: status, Detail: detail}, false
	}
}

// retryableNetError reports whether a transport failure is a condition that
// tends to clear on its own: timeout, dropped or refused connection, or an
// unresolvable host.
func retryableNetError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ENOTCONN, syscall.EPIPE} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
