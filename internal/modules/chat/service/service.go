package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	botRepo "lintas.id/aidesk/internal/modules/bot/repository"
	"lintas.id/aidesk/internal/modules/chat/dto"
	"lintas.id/aidesk/internal/modules/chat/provider"
	"lintas.id/aidesk/internal/modules/chat/repository"
	"lintas.id/aidesk/pkg/apperror"
	"lintas.id/aidesk/pkg/ratelimiter"
)

const titleMaxLength = 80

type Service interface {
	// Chat persists the newest user message, relays the conversation to
	// the configured completion provider and persists the reply. The
	// conversation is created lazily when ChatID is absent.
	Chat(ctx context.Context, userID uuid.UUID, req dto.ChatRequest) (*dto.ChatResponse, error)
	GetConversation(ctx context.Context, userID, chatID uuid.UUID) (*entity.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]entity.Conversation, error)
}

type chatService struct {
	repo      repository.ConversationRepository
	botConfig botRepo.BotConfigRepository
	providers map[string]provider.CompletionProvider
	limiter   *ratelimiter.RateLimiter
	timeout   time.Duration
}

func NewChatService(
	repo repository.ConversationRepository,
	botConfig botRepo.BotConfigRepository,
	providers map[string]provider.CompletionProvider,
	limiter *ratelimiter.RateLimiter,
	timeout time.Duration,
) Service {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &chatService{
		repo:      repo,
		botConfig: botConfig,
		providers: providers,
		limiter:   limiter,
		timeout:   timeout,
	}
}

func (s *chatService) Chat(ctx context.Context, userID uuid.UUID, req dto.ChatRequest) (*dto.ChatResponse, error) {
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, "chat:"+userID.String()); err != nil {
			return nil, err
		}
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Role != entity.ChatRoleUser {
		return nil, apperror.New(400, "last message must have role user", apperror.ErrInvalidInput)
	}

	conversation, err := s.resolveConversation(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	// Persist the user message first. If the provider call below fails the
	// message stays recorded; the known inconsistency is accepted rather
	// than remediated with a rollback.
	userMessage := &entity.ChatMessage{
		ConversationID: conversation.ID,
		Role:           entity.ChatRoleUser,
		Content:        last.Content,
	}
	if err := s.repo.AppendMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	cfg, err := s.botConfig.Get(ctx)
	if err != nil {
		return nil, err
	}

	completionProvider, ok := s.providers[cfg.Provider]
	if !ok || completionProvider == nil {
		return nil, apperror.New(502, "assistant is not configured", apperror.ErrUpstream)
	}

	messages := make([]provider.Message, 0, len(req.Messages)+1)
	if cfg.SystemPrompt != "" {
		messages = append(messages, provider.Message{
			Role:    entity.ChatRoleSystem,
			Content: cfg.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, provider.Message{Role: m.Role, Content: m.Content})
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := completionProvider.Complete(callCtx, cfg, messages)
	if err != nil {
		log.Printf("completion provider %s failed: %v", cfg.Provider, err)
		return nil, apperror.New(502, "assistant is unavailable, try again later", apperror.ErrUpstream)
	}

	assistantMessage := &entity.ChatMessage{
		ConversationID: conversation.ID,
		Role:           entity.ChatRoleAssistant,
		Content:        reply,
	}
	if err := s.repo.AppendMessage(ctx, assistantMessage); err != nil {
		return nil, err
	}

	return &dto.ChatResponse{
		Reply:  reply,
		ChatID: conversation.ID,
	}, nil
}

func (s *chatService) resolveConversation(ctx context.Context, userID uuid.UUID, req dto.ChatRequest) (*entity.Conversation, error) {
	if req.ChatID != nil {
		conversation, err := s.repo.FindByID(ctx, *req.ChatID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.ErrNotFound
			}
			return nil, err
		}
		if conversation.UserID != userID {
			return nil, apperror.ErrForbidden
		}
		return conversation, nil
	}

	conversation := &entity.Conversation{
		UserID: userID,
		Title:  deriveTitle(req.Messages),
	}
	if err := s.repo.Create(ctx, conversation); err != nil {
		return nil, err
	}

	return conversation, nil
}

// deriveTitle takes the first user message as the conversation title.
func deriveTitle(messages []dto.ChatMessageInput) string {
	for _, m := range messages {
		if m.Role == entity.ChatRoleUser {
			runes := []rune(m.Content)
			if len(runes) > titleMaxLength {
				return string(runes[:titleMaxLength])
			}
			return m.Content
		}
	}
	return "New conversation"
}

func (s *chatService) GetConversation(ctx context.Context, userID, chatID uuid.UUID) (*entity.Conversation, error) {
	conversation, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if conversation.UserID != userID {
		return nil, apperror.ErrForbidden
	}

	return conversation, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]entity.Conversation, error) {
	return s.repo.FindByOwner(ctx, userID)
}
