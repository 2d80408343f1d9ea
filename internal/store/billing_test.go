package store

import (
	"context"
	"testing"
	"time"

	"github.com/evrenbal/voicechat/internal/apperr"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultPlansIdempotent(t *testing.T) {
	ctx := context.Background()
	billing := NewBillingStore(testDB(t))

	require.NoError(t, billing.SeedDefaultPlans(ctx))
	require.NoError(t, billing.SeedDefaultPlans(ctx))

	plans, err := billing.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "Basic", plans[0].Name, "plans sort by price")
}

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	billing := NewBillingStore(testDB(t))
	userID := uuid.New()

	require.NoError(t, billing.SeedDefaultPlans(ctx))
	plans, err := billing.ListPlans(ctx)
	require.NoError(t, err)

	payment, err := billing.CreatePayment(ctx, userID, plans[0].ID, plans[0].PriceCents, "ref-123")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentInitialized, payment.Status)

	require.NoError(t, billing.SetPaymentStatus(ctx, payment.ID, models.PaymentSuccess))

	found, err := billing.GetPaymentByReference(ctx, "ref-123")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, found.Status)

	_, err = billing.GetPaymentByReference(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestExpiringBetween(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	billing := NewBillingStore(db)

	user := models.User{ID: uuid.New(), Email: "ada@example.com", PasswordHash: "x", FullName: "Ada"}
	require.NoError(t, db.Create(&user).Error)
	plan := models.Plan{ID: uuid.New(), Name: "Pro", PriceCents: 1999, DurationDays: 30}
	require.NoError(t, db.Create(&plan).Error)

	now := time.Now()
	soon, err := billing.CreateSubscription(ctx, user.ID, plan.ID, now.AddDate(0, 0, -27), now.AddDate(0, 0, 3))
	require.NoError(t, err)
	_, err = billing.CreateSubscription(ctx, user.ID, plan.ID, now, now.AddDate(0, 0, 30))
	require.NoError(t, err)

	subs, err := billing.ExpiringBetween(ctx, now.AddDate(0, 0, 2), now.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, soon.ID, subs[0].ID)
	require.NotNil(t, subs[0].User)
	assert.Equal(t, "ada@example.com", subs[0].User.Email)
	require.NotNil(t, subs[0].Plan)
	assert.Equal(t, "Pro", subs[0].Plan.Name)
}

func TestListSubscriptionsByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	billing := NewBillingStore(db)
	userID := uuid.New()

	plan := models.Plan{ID: uuid.New(), Name: "Basic", PriceCents: 999, DurationDays: 30}
	require.NoError(t, db.Create(&plan).Error)

	now := time.Now()
	_, err := billing.CreateSubscription(ctx, userID, plan.ID, now.AddDate(0, -2, 0), now.AddDate(0, -1, 0))
	require.NoError(t, err)
	latest, err := billing.CreateSubscription(ctx, userID, plan.ID, now, now.AddDate(0, 1, 0))
	require.NoError(t, err)

	subs, err := billing.ListSubscriptionsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, latest.ID, subs[0].ID)
}
