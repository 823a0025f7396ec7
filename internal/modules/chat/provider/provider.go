package provider

import (
	"context"

	"lintas.id/aidesk/internal/entity"
)

// Message is a role-tagged chat message in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

// CompletionProvider forwards a conversation to an external completion
// endpoint and returns the assistant's text. Implementations are opaque
// black boxes; no retry or backoff is layered on top.
type CompletionProvider interface {
	Complete(ctx context.Context, cfg *entity.BotConfig, messages []Message) (string, error)
}
