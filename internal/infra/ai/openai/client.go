package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	domai "github.com/rejlers/edrs-backend/internal/domain/ai"
)

type Client struct {
	*openai.Client
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func NewClient(apiKey, model string, temperature float32, maxTokens int, timeout time.Duration) *Client {
	var inner *openai.Client
	if apiKey != "" {
		inner = openai.NewClient(apiKey)
	}
	return &Client{
		Client:      inner,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}
}

// Configured reports whether an API key was provided
func (c *Client) Configured() bool { return c.Client != nil }

// Detect runs one chat completion asking for a JSON error report
func (c *Client) Detect(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.Client == nil {
		return "", domai.ErrNotConfigured
	}

	model := c.Model
	if model == "" {
		model = "gpt-4o"
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: c.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = c.MaxTokens
	} else {
		req.MaxTokens = c.MaxTokens
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return "", domai.ErrQuotaExceeded
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
