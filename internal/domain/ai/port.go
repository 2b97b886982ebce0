package ai

import "context"

// Client port: one chat-completions call, JSON answer expected back
type Client interface {
	Detect(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
