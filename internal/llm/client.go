package llm

import "context"

type Message struct {
	Role    string
	Content string
}

// Client is the boundary to a remote chat-completions provider. Complete
// blocks until a reply arrives, the retry budget is exhausted, or ctx is
// cancelled.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
