package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/evrenbal/voicechat/internal/llm"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/evrenbal/voicechat/internal/store"
	"github.com/google/uuid"
)

// CompletionGateway is the external LLM API seen by the orchestrator.
type CompletionGateway interface {
	Complete(ctx context.Context, model string, messages []llm.Message, temperature float64) (string, error)
}

// Config is loaded once at startup and injected; never read from globals.
type Config struct {
	DefaultModel string
	Persona      string
	WindowSize   int
	Temperature  float64
	ExtractFacts bool
}

// Orchestrator owns the per-request chat control flow: persist the user turn,
// build the bounded context, call the gateway, persist the assistant turn.
// Ownership of every chat and message is checked here, not in the store.
type Orchestrator struct {
	chats   *store.ChatStore
	memory  *store.MemoryStore
	gateway CompletionGateway
	cfg     Config
}

func NewOrchestrator(chats *store.ChatStore, memory *store.MemoryStore, gateway CompletionGateway, cfg Config) *Orchestrator {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 20
	}
	return &Orchestrator{chats: chats, memory: memory, gateway: gateway, cfg: cfg}
}

type SendInput struct {
	UserID uuid.UUID
	ChatID uuid.UUID // zero value means "start a new chat"
	Text   string
	Model  string
}

type SendResult struct {
	Chat      *models.Chat
	Created   bool
	Assistant *models.Message
}

// Send runs one user turn end to end. If the gateway fails after the user
// message is appended, the message stays persisted: chat history never
// silently loses the user's own input.
func (o *Orchestrator) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", apperr.ErrInvalidInput)
	}

	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = o.cfg.DefaultModel
	}

	var chat *models.Chat
	var created bool
	var err error

	if in.ChatID != uuid.Nil {
		chat, err = o.resolveOwned(ctx, in.UserID, in.ChatID)
		if err != nil {
			return nil, err
		}
		// Switching the model mid-chat only updates the chat's model field;
		// prior messages are untouched.
		if chat.Model != model {
			if err := o.chats.SetModel(ctx, chat.ID, model); err != nil {
				return nil, err
			}
			chat.Model = model
		}
	} else {
		chat, err = o.chats.Create(ctx, in.UserID, GenerateTitle(text), model)
		if err != nil {
			return nil, err
		}
		created = true
	}

	if _, err := o.chats.AppendMessage(ctx, chat.ID, models.RoleUser, text); err != nil {
		return nil, err
	}

	assistant, err := o.completeTurn(ctx, in.UserID, chat)
	if err != nil {
		return nil, err
	}

	if o.cfg.ExtractFacts {
		go o.extractFacts(in.UserID, text)
	}

	return &SendResult{Chat: chat, Created: created, Assistant: assistant}, nil
}

// Regenerate drops the chat's most recent assistant message and re-runs the
// completion from the existing window. The last user turn is reused, never
// re-validated or re-appended.
func (o *Orchestrator) Regenerate(ctx context.Context, userID, chatID uuid.UUID) (*SendResult, error) {
	chat, err := o.resolveOwned(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	last, err := o.chats.LastAssistantMessage(ctx, chatID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: nothing to regenerate", apperr.ErrInvalidInput)
		}
		return nil, err
	}
	if err := o.chats.DeleteMessage(ctx, last.ID); err != nil {
		return nil, err
	}

	assistant, err := o.completeTurn(ctx, userID, chat)
	if err != nil {
		return nil, err
	}
	return &SendResult{Chat: chat, Assistant: assistant}, nil
}

// completeTurn builds context from the current window, calls the gateway and
// persists the assistant reply. Steps 4-6 of the send flow.
func (o *Orchestrator) completeTurn(ctx context.Context, userID uuid.UUID, chat *models.Chat) (*models.Message, error) {
	window, err := o.chats.RecentWindow(ctx, chat.ID, o.cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: chat has no messages", apperr.ErrInvalidInput)
	}

	facts, err := o.memory.Facts(ctx, userID)
	if err != nil {
		// Memory is a personalization extra; a failed read degrades to the
		// bare persona instead of failing the turn.
		slog.Warn("Memory read failed", "user", userID, "error", err)
		facts = nil
	}

	prompt := BuildContext(o.cfg.Persona, facts, window)

	reply, err := o.gateway.Complete(ctx, chat.Model, prompt, o.cfg.Temperature)
	if err != nil {
		// The user's message stays persisted; no rollback on gateway failure.
		return nil, err
	}

	assistant, err := o.chats.AppendMessage(ctx, chat.ID, models.RoleAssistant, reply)
	if err != nil {
		return nil, err
	}
	if err := o.chats.TouchUpdated(ctx, chat.ID); err != nil {
		return nil, err
	}
	return assistant, nil
}

// ListChats returns the caller's chats, pinned first.
func (o *Orchestrator) ListChats(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	return o.chats.ListByUser(ctx, userID)
}

// GetChat returns an owned chat with all of its messages.
func (o *Orchestrator) GetChat(ctx context.Context, userID, chatID uuid.UUID) (*models.Chat, []models.Message, error) {
	chat, err := o.resolveOwned(ctx, userID, chatID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := o.chats.Messages(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	return chat, msgs, nil
}

// CreateChat starts an empty chat with a title derived from the given text.
func (o *Orchestrator) CreateChat(ctx context.Context, userID uuid.UUID, titleText, model string) (*models.Chat, error) {
	if strings.TrimSpace(model) == "" {
		model = o.cfg.DefaultModel
	}
	return o.chats.Create(ctx, userID, GenerateTitle(titleText), model)
}

// Rename sets a chat's title. Empty titles are rejected and leave the
// current title unchanged.
func (o *Orchestrator) Rename(ctx context.Context, userID, chatID uuid.UUID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: empty title", apperr.ErrInvalidInput)
	}
	if _, err := o.resolveOwned(ctx, userID, chatID); err != nil {
		return err
	}
	return o.chats.Rename(ctx, chatID, title)
}

// TogglePin flips the pinned flag and returns the new state.
func (o *Orchestrator) TogglePin(ctx context.Context, userID, chatID uuid.UUID) (bool, error) {
	chat, err := o.resolveOwned(ctx, userID, chatID)
	if err != nil {
		return false, err
	}
	pinned := !chat.Pinned
	if err := o.chats.SetPinned(ctx, chatID, pinned); err != nil {
		return false, err
	}
	return pinned, nil
}

// DeleteChat removes an owned chat and its messages.
func (o *Orchestrator) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	if _, err := o.resolveOwned(ctx, userID, chatID); err != nil {
		return err
	}
	return o.chats.Delete(ctx, chatID)
}

// EditMessage updates the content of a user-authored message.
func (o *Orchestrator) EditMessage(ctx context.Context, userID, messageID uuid.UUID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: empty content", apperr.ErrInvalidInput)
	}
	msg, err := o.resolveOwnedMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}
	if msg.Role != models.RoleUser {
		return fmt.Errorf("%w: only user messages can be edited", apperr.ErrForbidden)
	}
	return o.chats.UpdateMessageContent(ctx, messageID, content)
}

// DeleteMessage removes a user-authored message.
func (o *Orchestrator) DeleteMessage(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := o.resolveOwnedMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}
	if msg.Role != models.RoleUser {
		return fmt.Errorf("%w: only user messages can be deleted", apperr.ErrForbidden)
	}
	return o.chats.DeleteMessage(ctx, messageID)
}

// resolveOwned loads a chat and verifies the caller owns it. Foreign chats
// read as not found so ids cannot be probed across tenants.
func (o *Orchestrator) resolveOwned(ctx context.Context, userID, chatID uuid.UUID) (*models.Chat, error) {
	chat, err := o.chats.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.UserID != userID {
		return nil, apperr.ErrNotFound
	}
	return chat, nil
}

func (o *Orchestrator) resolveOwnedMessage(ctx context.Context, userID, messageID uuid.UUID) (*models.Message, error) {
	msg, err := o.chats.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := o.resolveOwned(ctx, userID, msg.ChatID); err != nil {
		return nil, err
	}
	return msg, nil
}
