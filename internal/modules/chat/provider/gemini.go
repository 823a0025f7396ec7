package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"lintas.id/aidesk/internal/entity"
)

type geminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider builds the provider from GEMINI_API_KEY.
func NewGeminiProvider(ctx context.Context) (CompletionProvider, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiProvider{client: client}, nil
}

func (p *geminiProvider) Complete(ctx context.Context, cfg *entity.BotConfig, messages []Message) (string, error) {
	model := p.client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)

	// Gemini has no system role in the message list; system prompts go
	// through the model's system instruction.
	var history []*genai.Content
	var last Message
	for i, m := range messages {
		switch m.Role {
		case entity.ChatRoleSystem:
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
			continue
		}

		if i == len(messages)-1 {
			last = m
			continue
		}

		role := "user"
		if m.Role == entity.ChatRoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("completion returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("completion returned no text content")
	}

	return sb.String(), nil
}

func (p *geminiProvider) Close() {
	p.client.Close()
}
