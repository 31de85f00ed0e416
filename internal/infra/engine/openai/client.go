package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/udhaya30012004/backend/internal/domain/engine"
)

const maxTokens = 4096

// Client is the OpenAI-backed engine provider, selectable as an alternative
// to Gemini when the deployment has no Gemini access.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.Model
	if model == "" {
		model = openai.GPT4o
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", engine.ErrUnreachable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", engine.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
