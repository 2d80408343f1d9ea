package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatStore is the durable record of chats and their ordered messages.
// All reads return fully materialized rows; nothing here lazy-loads.
type ChatStore struct {
	db *gorm.DB
}

func NewChatStore(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db}
}

func (s *ChatStore) Create(ctx context.Context, userID uuid.UUID, title, model string) (*models.Chat, error) {
	chat := models.Chat{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Model:  model,
	}
	if err := s.db.WithContext(ctx).Create(&chat).Error; err != nil {
		return nil, fmt.Errorf("%w: create chat: %v", apperr.ErrStorage, err)
	}
	return &chat, nil
}

func (s *ChatStore) Get(ctx context.Context, chatID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.WithContext(ctx).First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get chat: %v", apperr.ErrStorage, err)
	}
	return &chat, nil
}

// ListByUser returns the user's chats, pinned first, then by recency.
func (s *ChatStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("pinned DESC").
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list chats: %v", apperr.ErrStorage, err)
	}
	return chats, nil
}

func (s *ChatStore) Rename(ctx context.Context, chatID uuid.UUID, title string) error {
	return s.updateChat(ctx, chatID, map[string]interface{}{"title": title})
}

func (s *ChatStore) SetPinned(ctx context.Context, chatID uuid.UUID, pinned bool) error {
	return s.updateChat(ctx, chatID, map[string]interface{}{"pinned": pinned})
}

func (s *ChatStore) SetModel(ctx context.Context, chatID uuid.UUID, model string) error {
	return s.updateChat(ctx, chatID, map[string]interface{}{"model": model})
}

func (s *ChatStore) updateChat(ctx context.Context, chatID uuid.UUID, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.Chat{}).Where("id = ?", chatID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("%w: update chat: %v", apperr.ErrStorage, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete removes a chat and all of its messages.
func (s *ChatStore) Delete(ctx context.Context, chatID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("%w: delete messages: %v", apperr.ErrStorage, err)
		}
		res := tx.Delete(&models.Chat{}, "id = ?", chatID)
		if res.Error != nil {
			return fmt.Errorf("%w: delete chat: %v", apperr.ErrStorage, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}

func (s *ChatStore) AppendMessage(ctx context.Context, chatID uuid.UUID, role, content string) (*models.Message, error) {
	msg := models.Message{
		ID:      uuid.New(),
		ChatID:  chatID,
		Role:    role,
		Content: content,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("%w: append message: %v", apperr.ErrStorage, err)
	}
	return &msg, nil
}

// Messages returns every message of a chat in chronological order.
func (s *ChatStore) Messages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: load messages: %v", apperr.ErrStorage, err)
	}
	return msgs, nil
}

// RecentWindow returns up to limit most recent messages in chronological
// order, oldest first. The completion API interprets message order as
// conversation order, so the reversal here is load-bearing.
func (s *ChatStore) RecentWindow(ctx context.Context, chatID uuid.UUID, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: recent window: %v", apperr.ErrStorage, err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// TouchUpdated bumps the chat's updated_at so list views sort by recency.
// Message content is not read or written.
func (s *ChatStore) TouchUpdated(ctx context.Context, chatID uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.Chat{}).
		Where("id = ?", chatID).
		UpdateColumn("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("%w: touch chat: %v", apperr.ErrStorage, err)
	}
	return nil
}

func (s *ChatStore) GetMessage(ctx context.Context, messageID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	if err := s.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get message: %v", apperr.ErrStorage, err)
	}
	return &msg, nil
}

func (s *ChatStore) UpdateMessageContent(ctx context.Context, messageID uuid.UUID, content string) error {
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("content", content).Error
	if err != nil {
		return fmt.Errorf("%w: update message: %v", apperr.ErrStorage, err)
	}
	return nil
}

func (s *ChatStore) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	err := s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", messageID).Error
	if err != nil {
		return fmt.Errorf("%w: delete message: %v", apperr.ErrStorage, err)
	}
	return nil
}

// LastAssistantMessage returns the most recent assistant turn of a chat,
// or ErrNotFound when the chat has none.
func (s *ChatStore) LastAssistantMessage(ctx context.Context, chatID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Where("chat_id = ? AND role = ?", chatID, models.RoleAssistant).
		Order("created_at DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: last assistant message: %v", apperr.ErrStorage, err)
	}
	return &msg, nil
}
