package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email               string    `gorm:"not null;uniqueIndex" json:"email"`
	FullName            string    `json:"full_name"`
	PasswordHash        string    `gorm:"not null" json:"-"`
	IsVerified          bool      `gorm:"default:false" json:"is_verified"`
	PreferredVoice      string    `gorm:"default:''" json:"preferred_voice"`
	ClonedVoiceProvider string    `gorm:"default:''" json:"cloned_voice_provider"`
	ClonedVoiceID       string    `gorm:"default:''" json:"cloned_voice_id"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

const (
	OTPTypeEmailVerification = "email_verification"
	OTPTypePasswordReset     = "password_reset"
)

type OTP struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Code      string    `gorm:"not null" json:"-"`
	Type      string    `gorm:"not null" json:"type"` // email_verification, password_reset
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *OTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}
