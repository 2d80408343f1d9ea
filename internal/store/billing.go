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

type BillingStore struct {
	db *gorm.DB
}

func NewBillingStore(db *gorm.DB) *BillingStore {
	return &BillingStore{db: db}
}

func (s *BillingStore) ListPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	if err := s.db.WithContext(ctx).Order("price_cents ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("%w: list plans: %v", apperr.ErrStorage, err)
	}
	return plans, nil
}

func (s *BillingStore) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get plan: %v", apperr.ErrStorage, err)
	}
	return &plan, nil
}

// SeedDefaultPlans inserts the default plan catalogue when the table is empty.
func (s *BillingStore) SeedDefaultPlans(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Plan{}).Count(&count).Error; err != nil {
		return fmt.Errorf("%w: count plans: %v", apperr.ErrStorage, err)
	}
	if count > 0 {
		return nil
	}
	plans := []models.Plan{
		{ID: uuid.New(), Name: "Basic", PriceCents: 999, DurationDays: 30, Description: "Great for starters"},
		{ID: uuid.New(), Name: "Pro", PriceCents: 1999, DurationDays: 30, Description: "For professionals"},
		{ID: uuid.New(), Name: "Business", PriceCents: 4999, DurationDays: 30, Description: "For teams and businesses"},
	}
	if err := s.db.WithContext(ctx).Create(&plans).Error; err != nil {
		return fmt.Errorf("%w: seed plans: %v", apperr.ErrStorage, err)
	}
	return nil
}

func (s *BillingStore) CreatePayment(ctx context.Context, userID, planID uuid.UUID, amountCents int64, reference string) (*models.Payment, error) {
	payment := models.Payment{
		ID:          uuid.New(),
		UserID:      userID,
		PlanID:      planID,
		AmountCents: amountCents,
		Reference:   reference,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("%w: create payment: %v", apperr.ErrStorage, err)
	}
	return &payment, nil
}

func (s *BillingStore) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, "reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get payment: %v", apperr.ErrStorage, err)
	}
	return &payment, nil
}

func (s *BillingStore) SetPaymentStatus(ctx context.Context, paymentID uuid.UUID, status string) error {
	err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", paymentID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("%w: update payment: %v", apperr.ErrStorage, err)
	}
	return nil
}

func (s *BillingStore) CreateSubscription(ctx context.Context, userID, planID uuid.UUID, start, end time.Time) (*models.Subscription, error) {
	sub := models.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    planID,
		StartDate: start,
		EndDate:   end,
		Status:    models.SubscriptionActive,
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("%w: create subscription: %v", apperr.ErrStorage, err)
	}
	return &sub, nil
}

func (s *BillingStore) ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list subscriptions: %v", apperr.ErrStorage, err)
	}
	return subs, nil
}

// ExpiringBetween returns active subscriptions ending inside [from, to),
// with user and plan preloaded for the reminder mail.
func (s *BillingStore) ExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Plan").
		Where("status = ? AND end_date >= ? AND end_date < ?", models.SubscriptionActive, from, to).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: expiring subscriptions: %v", apperr.ErrStorage, err)
	}
	return subs, nil
}
