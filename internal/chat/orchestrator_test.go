package chat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/evrenbal/voicechat/internal/llm"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/evrenbal/voicechat/internal/store"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	reply   string
	err     error
	prompts [][]llm.Message
	models  []string
}

func (f *fakeGateway) Complete(_ context.Context, model string, messages []llm.Message, _ float64) (string, error) {
	f.models = append(f.models, model)
	f.prompts = append(f.prompts, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fixture struct {
	db      *gorm.DB
	chats   *store.ChatStore
	memory  *store.MemoryStore
	gateway *fakeGateway
	orc     *Orchestrator
	userID  uuid.UUID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Chat{}, &models.Message{}, &models.UserMemory{}))

	f := &fixture{
		db:      db,
		chats:   store.NewChatStore(db),
		memory:  store.NewMemoryStore(db),
		gateway: &fakeGateway{reply: "assistant says hi"},
		userID:  uuid.New(),
	}
	f.orc = NewOrchestrator(f.chats, f.memory, f.gateway, Config{
		DefaultModel: "gpt-4o-mini",
		Persona:      "You are a test assistant.",
		WindowSize:   20,
		Temperature:  0.5,
	})
	return f
}

func (f *fixture) messages(t *testing.T, chatID uuid.UUID) []models.Message {
	t.Helper()
	msgs, err := f.chats.Messages(context.Background(), chatID)
	require.NoError(t, err)
	return msgs
}

func countByRole(msgs []models.Message, role string) int {
	n := 0
	for _, m := range msgs {
		if m.Role == role {
			n++
		}
	}
	return n
}

func TestSendCreatesChatAndAppendsBothTurns(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	before := time.Now()
	result, err := f.orc.Send(ctx, SendInput{
		UserID: f.userID,
		Text:   "Plan my trip to Tokyo for two weeks",
	})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "Plan my trip to Tokyo for two weeks", result.Chat.Title)
	assert.Equal(t, "gpt-4o-mini", result.Chat.Model)
	assert.Equal(t, "assistant says hi", result.Assistant.Content)

	msgs := f.messages(t, result.Chat.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "Plan my trip to Tokyo for two weeks", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)

	reloaded, err := f.chats.Get(ctx, result.Chat.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.UpdatedAt.Before(before))
}

func TestSendEmptyTextRejected(t *testing.T) {
	f := setup(t)

	_, err := f.orc.Send(context.Background(), SendInput{UserID: f.userID, Text: "   "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Empty(t, f.gateway.prompts, "gateway must not be called")
}

func TestSendGatewayFailureKeepsUserMessage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.orc.Send(ctx, SendInput{UserID: f.userID, Text: "hello"})
	require.NoError(t, err)
	chatID := result.Chat.ID

	f.gateway.err = &apperr.UpstreamError{Status: 500, Body: "boom"}
	_, err = f.orc.Send(ctx, SendInput{UserID: f.userID, ChatID: chatID, Text: "are you there?"})

	var upstream *apperr.UpstreamError
	require.True(t, errors.As(err, &upstream))

	msgs := f.messages(t, chatID)
	assert.Equal(t, 2, countByRole(msgs, models.RoleUser), "failed turn's user message is kept")
	assert.Equal(t, 1, countByRole(msgs, models.RoleAssistant), "no assistant message for the failed turn")
	assert.Equal(t, "are you there?", msgs[len(msgs)-1].Content)
}

func TestSendForeignChatReadsAsNotFound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	theirs, err := f.chats.Create(ctx, uuid.New(), "Theirs", "gpt-4o-mini")
	require.NoError(t, err)

	_, err = f.orc.Send(ctx, SendInput{UserID: f.userID, ChatID: theirs.ID, Text: "peek"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSendModelSwitchUpdatesChatOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.orc.Send(ctx, SendInput{UserID: f.userID, Text: "first"})
	require.NoError(t, err)

	_, err = f.orc.Send(ctx, SendInput{UserID: f.userID, ChatID: result.Chat.ID, Text: "second", Model: "gpt-4o"})
	require.NoError(t, err)

	reloaded, err := f.chats.Get(ctx, result.Chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", reloaded.Model)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, f.gateway.models)

	// Prior messages are untouched by the switch.
	msgs := f.messages(t, result.Chat.ID)
	assert.Equal(t, "first", msgs[0].Content)
}

func TestSendWindowBoundedAndOrdered(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.orc.Send(ctx, SendInput{UserID: f.userID, Text: "seed"})
	require.NoError(t, err)

	// Backfill far more history than the window admits.
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 30; i++ {
		msg := models.Message{
			ID:        uuid.New(),
			ChatID:    result.Chat.ID,
			Role:      models.RoleUser,
			Content:   "old",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, f.db.Create(&msg).Error)
	}

	_, err = f.orc.Send(ctx, SendInput{UserID: f.userID, ChatID: result.Chat.ID, Text: "latest"})
	require.NoError(t, err)

	prompt := f.gateway.prompts[len(f.gateway.prompts)-1]
	require.Len(t, prompt, 21, "one system entry plus a 20-message window")
	assert.Equal(t, models.RoleSystem, prompt[0].Role)
	assert.Equal(t, "latest", prompt[len(prompt)-1].Content, "newest message closes the window")
}

func TestSendInjectsMemoryFacts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.memory.Merge(ctx, f.userID, map[string]string{"name": "Ada"}))

	_, err := f.orc.Send(ctx, SendInput{UserID: f.userID, Text: "hi"})
	require.NoError(t, err)

	prompt := f.gateway.prompts[0]
	assert.Contains(t, prompt[0].Content, "You are a test assistant.")
	assert.Contains(t, prompt[0].Content, "name: Ada")
}

func TestRegenerateReplacesLastAssistantOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.orc.Send(ctx, SendInput{UserID: f.userID, Text: "question"})
	require.NoError(t, err)
	firstAssistant := result.Assistant.ID

	f.gateway.reply = "a better answer"
	regen, err := f.orc.Regenerate(ctx, f.userID, result.Chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "a better answer", regen.Assistant.Content)

	msgs := f.messages(t, result.Chat.ID)
	assert.Equal(t, 1, countByRole(msgs, models.RoleUser), "user turns are never re-appended")
	assert.Equal(t, 1, countByRole(msgs, models.RoleAssistant))
	for _, m := range msgs {
		assert.NotEqual(t, firstAssistant, m.ID, "old assistant message is gone")
	}
}

func TestRegenerateWithoutAssistantRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	chat, err := f.chats.Create(ctx, f.userID, "Empty", "gpt-4o-mini")
	require.NoError(t, err)

	_, err = f.orc.Regenerate(ctx, f.userID, chat.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRenameEmptyRejectedAndTitleKept(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	chat, err := f.chats.Create(ctx, f.userID, "Original", "gpt-4o-mini")
	require.NoError(t, err)

	err = f.orc.Rename(ctx, f.userID, chat.ID, "  ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	reloaded, err := f.chats.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", reloaded.Title)

	require.NoError(t, f.orc.Rename(ctx, f.userID, chat.ID, "Renamed"))
	reloaded, err = f.chats.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Title)
}

func TestTogglePin(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	chat, err := f.chats.Create(ctx, f.userID, "Pin me", "gpt-4o-mini")
	require.NoError(t, err)

	pinned, err := f.orc.TogglePin(ctx, f.userID, chat.ID)
	require.NoError(t, err)
	assert.True(t, pinned)

	pinned, err = f.orc.TogglePin(ctx, f.userID, chat.ID)
	require.NoError(t, err)
	assert.False(t, pinned)
}

func TestEditAndDeleteRestrictedToUserMessages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.orc.Send(ctx, SendInput{UserID: f.userID, Text: "typo here"})
	require.NoError(t, err)

	msgs := f.messages(t, result.Chat.ID)
	userMsg, assistantMsg := msgs[0], msgs[1]

	require.NoError(t, f.orc.EditMessage(ctx, f.userID, userMsg.ID, "typo fixed"))
	edited, err := f.chats.GetMessage(ctx, userMsg.ID)
	require.NoError(t, err)
	assert.Equal(t, "typo fixed", edited.Content)

	assert.ErrorIs(t, f.orc.EditMessage(ctx, f.userID, assistantMsg.ID, "rewrite"), apperr.ErrForbidden)
	assert.ErrorIs(t, f.orc.DeleteMessage(ctx, f.userID, assistantMsg.ID), apperr.ErrForbidden)

	require.NoError(t, f.orc.DeleteMessage(ctx, f.userID, userMsg.ID))
	_, err = f.chats.GetMessage(ctx, userMsg.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteChatRemovesMessages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.orc.Send(ctx, SendInput{UserID: f.userID, Text: "bye"})
	require.NoError(t, err)

	require.NoError(t, f.orc.DeleteChat(ctx, f.userID, result.Chat.ID))

	_, _, err = f.orc.GetChat(ctx, f.userID, result.Chat.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
