package models

import (
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null;uniqueIndex" json:"name"`
	PriceCents   int64     `gorm:"not null" json:"price_cents"`
	DurationDays int       `gorm:"default:30" json:"duration_days"`
	Description  string    `gorm:"type:text" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
	SubscriptionPending   = "pending"
)

type Subscription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PlanID    uuid.UUID `gorm:"type:uuid;not null" json:"plan_id"`
	Plan      *Plan     `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	Status    string    `gorm:"default:'pending'" json:"status"` // active, expired, cancelled, pending
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	PaymentInitialized = "initialized"
	PaymentSuccess     = "success"
	PaymentFailed      = "failed"
)

type Payment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PlanID      uuid.UUID `gorm:"type:uuid" json:"plan_id"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Reference   string    `gorm:"not null;uniqueIndex" json:"reference"`
	Status      string    `gorm:"default:'initialized'" json:"status"` // initialized, success, failed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
