package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"lintas.id/aidesk/internal/entity"
	"lintas.id/aidesk/internal/modules/chat/dto"
	"lintas.id/aidesk/internal/modules/chat/provider"
	"lintas.id/aidesk/pkg/apperror"
)

type fakeConversationRepo struct {
	conversations map[uuid.UUID]*entity.Conversation
	messages      map[uuid.UUID][]entity.ChatMessage
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: map[uuid.UUID]*entity.Conversation{},
		messages:      map[uuid.UUID][]entity.ChatMessage{},
	}
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}
	r.conversations[conversation.ID] = conversation
	return nil
}

func (r *fakeConversationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *conversation
	copied.Messages = r.messages[id]
	return &copied, nil
}

func (r *fakeConversationRepo) FindByOwner(ctx context.Context, userID uuid.UUID) ([]entity.Conversation, error) {
	var out []entity.Conversation
	for _, c := range r.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) AppendMessage(ctx context.Context, message *entity.ChatMessage) error {
	if _, ok := r.conversations[message.ConversationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], *message)
	return nil
}

type fakeBotConfigRepo struct {
	cfg entity.BotConfig
}

func (r *fakeBotConfigRepo) Get(ctx context.Context) (*entity.BotConfig, error) {
	cfg := r.cfg
	return &cfg, nil
}

func (r *fakeBotConfigRepo) Update(ctx context.Context, cfg *entity.BotConfig) error {
	r.cfg = *cfg
	return nil
}

type fakeProvider struct {
	reply    string
	err      error
	received []provider.Message
}

func (p *fakeProvider) Complete(ctx context.Context, cfg *entity.BotConfig, messages []provider.Message) (string, error) {
	p.received = messages
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func newTestService(repo *fakeConversationRepo, p provider.CompletionProvider) Service {
	botCfg := &fakeBotConfigRepo{cfg: entity.BotConfig{
		Provider:     entity.ProviderOpenAI,
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are a helpful customer support assistant.",
		Temperature:  0.7,
	}}
	return NewChatService(repo, botCfg, map[string]provider.CompletionProvider{
		entity.ProviderOpenAI: p,
	}, nil, 0)
}

func TestChatCreatesConversationAndPersistsBothMessages(t *testing.T) {
	repo := newFakeConversationRepo()
	p := &fakeProvider{reply: "Have you tried resetting your password?"}
	svc := newTestService(repo, p)

	userID := uuid.New()
	resp, err := svc.Chat(context.Background(), userID, dto.ChatRequest{
		Messages: []dto.ChatMessageInput{
			{Role: entity.ChatRoleUser, Content: "I cannot log in."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Have you tried resetting your password?", resp.Reply)

	messages := repo.messages[resp.ChatID]
	require.Len(t, messages, 2)
	assert.Equal(t, entity.ChatRoleUser, messages[0].Role)
	assert.Equal(t, entity.ChatRoleAssistant, messages[1].Role)

	// System prompt is prepended before the relayed history.
	require.NotEmpty(t, p.received)
	assert.Equal(t, entity.ChatRoleSystem, p.received[0].Role)

	conversation := repo.conversations[resp.ChatID]
	assert.Equal(t, "I cannot log in.", conversation.Title)
}

func TestChatTruncatesLongTitle(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := newTestService(repo, &fakeProvider{reply: "ok"})

	long := strings.Repeat("a", 200)
	resp, err := svc.Chat(context.Background(), uuid.New(), dto.ChatRequest{
		Messages: []dto.ChatMessageInput{
			{Role: entity.ChatRoleUser, Content: long},
		},
	})
	require.NoError(t, err)
	assert.Len(t, repo.conversations[resp.ChatID].Title, titleMaxLength)
}

func TestChatTruncatesTitleOnRuneBoundary(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := newTestService(repo, &fakeProvider{reply: "ok"})

	long := strings.Repeat("ж", 200)
	resp, err := svc.Chat(context.Background(), uuid.New(), dto.ChatRequest{
		Messages: []dto.ChatMessageInput{
			{Role: entity.ChatRoleUser, Content: long},
		},
	})
	require.NoError(t, err)

	title := repo.conversations[resp.ChatID].Title
	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, titleMaxLength, utf8.RuneCountInString(title))
}

func TestChatKeepsUserMessageWhenProviderFails(t *testing.T) {
	repo := newFakeConversationRepo()
	p := &fakeProvider{err: errors.New("upstream boom")}
	svc := newTestService(repo, p)

	_, err := svc.Chat(context.Background(), uuid.New(), dto.ChatRequest{
		Messages: []dto.ChatMessageInput{
			{Role: entity.ChatRoleUser, Content: "Hello out there."},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 502, apperror.MapErrorToStatus(err))

	require.Len(t, repo.conversations, 1)
	for id := range repo.conversations {
		messages := repo.messages[id]
		require.Len(t, messages, 1, "user message survives the provider failure")
		assert.Equal(t, entity.ChatRoleUser, messages[0].Role)
	}
}

func TestChatRejectsNonUserLastMessage(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := newTestService(repo, &fakeProvider{reply: "ok"})

	_, err := svc.Chat(context.Background(), uuid.New(), dto.ChatRequest{
		Messages: []dto.ChatMessageInput{
			{Role: entity.ChatRoleAssistant, Content: "I speak first."},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.MapErrorToStatus(err))
	assert.Empty(t, repo.conversations)
}

func TestChatRejectsForeignConversation(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := newTestService(repo, &fakeProvider{reply: "ok"})

	other := &entity.Conversation{ID: uuid.New(), UserID: uuid.New()}
	repo.conversations[other.ID] = other

	_, err := svc.Chat(context.Background(), uuid.New(), dto.ChatRequest{
		ChatID: &other.ID,
		Messages: []dto.ChatMessageInput{
			{Role: entity.ChatRoleUser, Content: "Peeking into someone else's chat."},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 403, apperror.MapErrorToStatus(err))
}

func TestChatUnconfiguredProvider(t *testing.T) {
	repo := newFakeConversationRepo()
	botCfg := &fakeBotConfigRepo{cfg: entity.BotConfig{Provider: entity.ProviderGemini}}
	svc := NewChatService(repo, botCfg, map[string]provider.CompletionProvider{}, nil, 0)

	_, err := svc.Chat(context.Background(), uuid.New(), dto.ChatRequest{
		Messages: []dto.ChatMessageInput{
			{Role: entity.ChatRoleUser, Content: "Anyone home in this chat?"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, 502, apperror.MapErrorToStatus(err))
}

func TestGetConversationOwnerScoped(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := newTestService(repo, &fakeProvider{reply: "ok"})

	owner := uuid.New()
	conversation := &entity.Conversation{ID: uuid.New(), UserID: owner}
	repo.conversations[conversation.ID] = conversation

	found, err := svc.GetConversation(context.Background(), owner, conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, conversation.ID, found.ID)

	_, err = svc.GetConversation(context.Background(), uuid.New(), conversation.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperror.MapErrorToStatus(err))
}
