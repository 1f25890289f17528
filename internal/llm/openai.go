package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient is a plain text generator backed by an OpenAI-compatible chat
// completions endpoint. It serves as an alternate translation provider when
// an OPENAI_API_KEY is configured.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs the client. baseURL may be empty for the default
// OpenAI endpoint, or point at any compatible server.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

// GenerateText sends a single-prompt chat completion and returns the trimmed
// reply.
func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("openai: empty reply")
	}
	return answer, nil
}
