package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Morwran/yagpt"
)

// YandexClient is the alternative provider behind the same Client interface.
// The SDK does not expose HTTP statuses, so its failures surface as transport
// errors without the OpenAI path's status classification.
type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	if strings.TrimSpace(oauthToken) == "" {
		return nil, ErrMissingCredential
	}
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) Complete(ctx context.Context, messages []Message) (string, error) {
	yaMsgs := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		yaMsgs = append(yaMsgs, yagpt.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, yaMsgs)
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", &TransportError{Detail: err.Error()}
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Alternatives[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
