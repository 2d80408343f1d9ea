package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/evrenbal/voicechat/internal/billing"
	"github.com/evrenbal/voicechat/internal/config"
	"github.com/evrenbal/voicechat/internal/mailer"
	"github.com/evrenbal/voicechat/internal/middleware"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/evrenbal/voicechat/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// PaymentGateway is the external payment API seen by the billing handler.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, email string, amountCents int64, reference, callbackURL string) (string, error)
	VerifyTransaction(ctx context.Context, reference string) (*billing.VerifyResult, error)
}

type BillingHandler struct {
	cfg     *config.Config
	store   *store.BillingStore
	users   *store.UserStore
	gateway PaymentGateway
	mail    mailer.Mailer
}

func NewBillingHandler(cfg *config.Config, billingStore *store.BillingStore, users *store.UserStore, gateway PaymentGateway, mail mailer.Mailer) *BillingHandler {
	return &BillingHandler{
		cfg:     cfg,
		store:   billingStore,
		users:   users,
		gateway: gateway,
		mail:    mail,
	}
}

func (h *BillingHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.store.ListPlans(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// InitializePayment creates a pending payment record and hands back the
// gateway's checkout URL.
func (h *BillingHandler) InitializePayment(c *fiber.Ctx) error {
	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}
	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid plan")
	}

	plan, err := h.store.GetPlan(c.Context(), planID)
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid plan")
	}

	user, err := h.users.GetByID(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}

	reference := randomReference()
	payment, err := h.store.CreatePayment(c.Context(), user.ID, plan.ID, plan.PriceCents, reference)
	if err != nil {
		return fail(c, err)
	}

	callbackURL := h.cfg.AppBaseURL + "/api/billing/verify"
	authURL, err := h.gateway.InitializeTransaction(c.Context(), user.Email, plan.PriceCents, reference, callbackURL)
	if err != nil {
		if sErr := h.store.SetPaymentStatus(c.Context(), payment.ID, models.PaymentFailed); sErr != nil {
			slog.Error("Failed to mark payment failed", "reference", reference, "error", sErr)
		}
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"authorization_url": authURL,
		"reference":         reference,
	})
}

// VerifyPayment is the gateway callback: confirm the transaction, then
// activate the purchased plan.
func (h *BillingHandler) VerifyPayment(c *fiber.Ctx) error {
	reference := c.Query("reference")
	if reference == "" {
		return failWith(c, fiber.StatusBadRequest, "Missing reference")
	}

	payment, err := h.store.GetPaymentByReference(c.Context(), reference)
	if err != nil {
		return fail(c, err)
	}

	result, err := h.gateway.VerifyTransaction(c.Context(), reference)
	if err != nil {
		return fail(c, err)
	}

	if result.Status != models.PaymentSuccess {
		if err := h.store.SetPaymentStatus(c.Context(), payment.ID, models.PaymentFailed); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"status": models.PaymentFailed})
	}

	if err := h.store.SetPaymentStatus(c.Context(), payment.ID, models.PaymentSuccess); err != nil {
		return fail(c, err)
	}

	plan, err := h.store.GetPlan(c.Context(), payment.PlanID)
	if err != nil {
		return fail(c, err)
	}
	start := time.Now()
	end := start.AddDate(0, 0, plan.DurationDays)
	if _, err := h.store.CreateSubscription(c.Context(), payment.UserID, plan.ID, start, end); err != nil {
		return fail(c, err)
	}

	if user, err := h.users.GetByID(c.Context(), payment.UserID); err == nil {
		if err := h.mail.Send(user.Email, "Subscription payment successful",
			fmt.Sprintf("Thank you for your payment. Reference: %s", reference)); err != nil {
			slog.Error("Failed to send receipt mail", "email", user.Email, "error", err)
		}
	}

	return c.JSON(fiber.Map{"status": models.PaymentSuccess})
}

func (h *BillingHandler) SubscriptionHistory(c *fiber.Ctx) error {
	subs, err := h.store.ListSubscriptionsByUser(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subs})
}

// randomReference returns a 24-char hex payment reference.
func randomReference() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("ref-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
