package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MemoryStore persists the per-user fact map. Key filtering is the chat
// package's concern; this store round-trips whatever map it is given.
type MemoryStore struct {
	db *gorm.DB
}

func NewMemoryStore(db *gorm.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Facts returns the stored fact map for a user, or an empty map when no
// memory row exists yet.
func (s *MemoryStore) Facts(ctx context.Context, userID uuid.UUID) (map[string]string, error) {
	var mem models.UserMemory
	err := s.db.WithContext(ctx).First(&mem, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: load memory: %v", apperr.ErrStorage, err)
	}

	facts := map[string]string{}
	if len(mem.Facts) > 0 {
		if err := json.Unmarshal(mem.Facts, &facts); err != nil {
			return nil, fmt.Errorf("%w: decode memory: %v", apperr.ErrStorage, err)
		}
	}
	return facts, nil
}

// Merge folds the given facts into the user's map, overwriting existing keys.
func (s *MemoryStore) Merge(ctx context.Context, userID uuid.UUID, facts map[string]string) error {
	if len(facts) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mem models.UserMemory
		err := tx.First(&mem, "user_id = ?", userID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			mem = models.UserMemory{ID: uuid.New(), UserID: userID}
		case err != nil:
			return fmt.Errorf("%w: load memory: %v", apperr.ErrStorage, err)
		}

		current := map[string]string{}
		if len(mem.Facts) > 0 {
			if err := json.Unmarshal(mem.Facts, &current); err != nil {
				// A corrupt row is replaced rather than kept broken.
				current = map[string]string{}
			}
		}
		for k, v := range facts {
			current[k] = v
		}

		raw, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("%w: encode memory: %v", apperr.ErrStorage, err)
		}
		mem.Facts = datatypes.JSON(raw)
		mem.UpdatedAt = time.Now()

		if err := tx.Save(&mem).Error; err != nil {
			return fmt.Errorf("%w: save memory: %v", apperr.ErrStorage, err)
		}
		return nil
	})
}
