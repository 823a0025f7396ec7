package provider

import (
	"context"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"lintas.id/aidesk/internal/entity"
)

type openaiProvider struct {
	client *openai.Client
}

// headerTransport injects the optional referrer/title headers some
// OpenAI-compatible gateways (OpenRouter) use for attribution.
type headerTransport struct {
	base     http.RoundTripper
	referrer string
	title    string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.referrer != "" {
		req.Header.Set("HTTP-Referer", t.referrer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewOpenAIProvider builds the provider from OPENAI_API_KEY, with
// OPENAI_BASE_URL, OPENAI_REFERRER and OPENAI_TITLE as optional overrides.
func NewOpenAIProvider() (CompletionProvider, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	referrer := os.Getenv("OPENAI_REFERRER")
	title := os.Getenv("OPENAI_TITLE")
	if referrer != "" || title != "" {
		config.HTTPClient = &http.Client{
			Transport: &headerTransport{referrer: referrer, title: title},
		}
	}

	return &openaiProvider{client: openai.NewClientWithConfig(config)}, nil
}

func (p *openaiProvider) Complete(ctx context.Context, cfg *entity.BotConfig, messages []Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       cfg.Model,
		Messages:    chatMessages,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
