package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, email, fullName, passwordHash string) (*models.User, error) {
	user := models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     fullName,
		PasswordHash: passwordHash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("%w: create user: %v", apperr.ErrStorage, err)
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get user by email: %v", apperr.ErrStorage, err)
	}
	return &user, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get user: %v", apperr.ErrStorage, err)
	}
	return &user, nil
}

func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: email lookup: %v", apperr.ErrStorage, err)
	}
	return count > 0, nil
}

func (s *UserStore) SetVerified(ctx context.Context, userID uuid.UUID) error {
	return s.update(ctx, userID, map[string]interface{}{"is_verified": true})
}

func (s *UserStore) SetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return s.update(ctx, userID, map[string]interface{}{"password_hash": passwordHash})
}

func (s *UserStore) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName, preferredVoice string) error {
	return s.update(ctx, userID, map[string]interface{}{
		"full_name":       fullName,
		"preferred_voice": preferredVoice,
	})
}

func (s *UserStore) SetPreferredVoice(ctx context.Context, userID uuid.UUID, voice string) error {
	return s.update(ctx, userID, map[string]interface{}{"preferred_voice": voice})
}

func (s *UserStore) SetClonedVoice(ctx context.Context, userID uuid.UUID, provider, voiceID string) error {
	return s.update(ctx, userID, map[string]interface{}{
		"cloned_voice_provider": provider,
		"cloned_voice_id":       voiceID,
	})
}

func (s *UserStore) update(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("%w: update user: %v", apperr.ErrStorage, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// CreateOTP stores a one-time code of the given type with the given lifetime.
func (s *UserStore) CreateOTP(ctx context.Context, userID uuid.UUID, code, otpType string, ttl time.Duration) (*models.OTP, error) {
	otp := models.OTP{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      code,
		Type:      otpType,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Create(&otp).Error; err != nil {
		return nil, fmt.Errorf("%w: create otp: %v", apperr.ErrStorage, err)
	}
	return &otp, nil
}

// LatestOTP returns the newest code of the given type matching code, or
// ErrNotFound. Expiry is the caller's concern.
func (s *UserStore) LatestOTP(ctx context.Context, userID uuid.UUID, otpType, code string) (*models.OTP, error) {
	var otp models.OTP
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND code = ?", userID, otpType, code).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get otp: %v", apperr.ErrStorage, err)
	}
	return &otp, nil
}
