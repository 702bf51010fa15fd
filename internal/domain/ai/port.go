package ai

import "context"

// Client requests a single JSON completion from a hosted model.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Name() string
}
