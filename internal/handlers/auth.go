package handlers

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/evrenbal/voicechat/internal/config"
	"github.com/evrenbal/voicechat/internal/mailer"
	"github.com/evrenbal/voicechat/internal/middleware"
	"github.com/evrenbal/voicechat/internal/models"
	"github.com/evrenbal/voicechat/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	cfg      *config.Config
	users    *store.UserStore
	mail     mailer.Mailer
	validate *validator.Validate
}

func NewAuthHandler(cfg *config.Config, users *store.UserStore, mail mailer.Mailer) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		users:    users,
		mail:     mail,
		validate: validator.New(),
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Email and a password of at least 8 characters are required")
	}

	exists, err := h.users.EmailExists(c.Context(), req.Email)
	if err != nil {
		return fail(c, err)
	}
	if exists {
		return failWith(c, fiber.StatusConflict, "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}

	user, err := h.users.Create(c.Context(), req.Email, req.FullName, string(hash))
	if err != nil {
		return fail(c, err)
	}

	code := randomOTP()
	if _, err := h.users.CreateOTP(c.Context(), user.ID, code, models.OTPTypeEmailVerification, time.Hour); err != nil {
		return fail(c, err)
	}

	verifyLink := fmt.Sprintf("%s/api/auth/verify-email?email=%s&code=%s", h.cfg.AppBaseURL, user.Email, code)
	name := user.FullName
	if name == "" {
		name = user.Email
	}
	if err := h.mail.Send(user.Email, "Verify your account",
		fmt.Sprintf("Welcome %s! Verify your account using this link: %s", name, verifyLink)); err != nil {
		slog.Error("Failed to send verification mail", "email", user.Email, "error", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registered. Check your email to verify your account.",
	})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	code := c.Query("code")
	if email == "" || code == "" {
		return failWith(c, fiber.StatusBadRequest, "Missing email or code")
	}

	user, err := h.users.GetByEmail(c.Context(), email)
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid verification link")
	}
	otp, err := h.users.LatestOTP(c.Context(), user.ID, models.OTPTypeEmailVerification, code)
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid verification link")
	}
	if otp.IsExpired() {
		return failWith(c, fiber.StatusBadRequest, "Verification code expired")
	}

	if err := h.users.SetVerified(c.Context(), user.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Email verified. You can now log in."})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return failWith(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return failWith(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if !user.IsVerified {
		return failWith(c, fiber.StatusForbidden, "Please verify your email first")
	}

	access, refresh, err := middleware.GenerateTokens(user.ID, user.Email, h.cfg.JWTSecret)
	if err != nil {
		slog.Error("Failed to generate tokens", "error", err)
		return failWith(c, fiber.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          user,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}

	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(req.RefreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return failWith(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}

	user, err := h.users.GetByEmail(c.Context(), claims.Email)
	if err != nil {
		return failWith(c, fiber.StatusUnauthorized, "Unknown account")
	}

	access, refresh, err := middleware.GenerateTokens(user.ID, user.Email, h.cfg.JWTSecret)
	if err != nil {
		return failWith(c, fiber.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          user,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		FullName       string `json:"full_name"`
		PreferredVoice string `json:"preferred_voice"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}

	userID := middleware.UserID(c)
	if err := h.users.UpdateProfile(c.Context(), userID, req.FullName, req.PreferredVoice); err != nil {
		return fail(c, err)
	}
	user, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&req); err != nil || h.validate.Struct(&req) != nil {
		return failWith(c, fiber.StatusBadRequest, "Valid email is required")
	}

	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return failWith(c, fiber.StatusNotFound, "Email not found")
	}

	code := randomOTP()
	if _, err := h.users.CreateOTP(c.Context(), user.ID, code, models.OTPTypePasswordReset, 15*time.Minute); err != nil {
		return fail(c, err)
	}
	if err := h.mail.Send(user.Email, "Your password reset code",
		fmt.Sprintf("Use this OTP to reset your password: %s", code)); err != nil {
		slog.Error("Failed to send reset mail", "email", user.Email, "error", err)
	}

	return c.JSON(fiber.Map{"message": "Reset code sent"})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Code == "" {
		return failWith(c, fiber.StatusBadRequest, "Email and code are required")
	}

	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid code")
	}
	otp, err := h.users.LatestOTP(c.Context(), user.ID, models.OTPTypePasswordReset, req.Code)
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid code")
	}
	if otp.IsExpired() {
		return failWith(c, fiber.StatusBadRequest, "Code expired")
	}
	return c.JSON(fiber.Map{"valid": true})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Code     string `json:"code"`
		Password string `json:"password" validate:"required,min=8"`
		Confirm  string `json:"confirm"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if h.validate.Struct(&req) != nil {
		return failWith(c, fiber.StatusBadRequest, "Password must be at least 8 characters")
	}
	if req.Password != req.Confirm {
		return failWith(c, fiber.StatusBadRequest, "Passwords do not match")
	}

	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request")
	}
	otp, err := h.users.LatestOTP(c.Context(), user.ID, models.OTPTypePasswordReset, req.Code)
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request")
	}
	if otp.IsExpired() {
		return failWith(c, fiber.StatusBadRequest, "Code expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}
	if err := h.users.SetPassword(c.Context(), user.ID, string(hash)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// randomOTP returns a 6-digit numeric code.
func randomOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing means the process is in serious trouble anyway
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
