package handlers

import (
	"strconv"
	"strings"

	"github.com/evrenbal/voicechat/internal/config"
	"github.com/evrenbal/voicechat/internal/middleware"
	"github.com/evrenbal/voicechat/internal/store"
	"github.com/evrenbal/voicechat/internal/tts"
	"github.com/gofiber/fiber/v2"
)

type TTSHandler struct {
	cfg    *config.Config
	users  *store.UserStore
	speech *tts.SpeechClient
	clone  *tts.CloneClient
}

func NewTTSHandler(cfg *config.Config, users *store.UserStore, speech *tts.SpeechClient, clone *tts.CloneClient) *TTSHandler {
	return &TTSHandler{cfg: cfg, users: users, speech: speech, clone: clone}
}

// Voices lists the provider's voice catalogue with optional gender/locale
// filters.
func (h *TTSHandler) Voices(c *fiber.Ctx) error {
	voices, err := h.speech.Voices(c.Context())
	if err != nil {
		return fail(c, err)
	}

	gender := strings.ToLower(c.Query("gender"))
	locale := strings.ToLower(c.Query("locale"))
	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	filtered := make([]tts.Voice, 0, len(voices))
	for _, v := range voices {
		if gender != "" && strings.ToLower(v.Gender) != gender {
			continue
		}
		if locale != "" && strings.ToLower(v.Locale) != locale {
			continue
		}
		filtered = append(filtered, v)
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	return c.JSON(fiber.Map{"voices": filtered})
}

// Speak synthesizes the given text and returns complete MP3 audio.
// Voice resolution: explicit request, then "cloned" for the user's cloned
// voice, then the user's preferred voice, then the deployment default.
func (h *TTSHandler) Speak(c *fiber.Ctx) error {
	var req struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return failWith(c, fiber.StatusBadRequest, "Text is required")
	}

	user, err := h.users.GetByID(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}

	voice := strings.TrimSpace(req.Voice)
	switch {
	case voice == "cloned" && user.ClonedVoiceID != "":
		voice = user.ClonedVoiceID
	case voice == "" && user.PreferredVoice != "":
		voice = user.PreferredVoice
	case voice == "" || voice == "cloned":
		voice = h.cfg.DefaultVoice
	}

	audio, err := h.speech.Synthesize(c.Context(), req.Text, voice)
	if err != nil {
		return fail(c, err)
	}

	c.Set("Content-Type", "audio/mpeg")
	c.Set("Cache-Control", "no-cache")
	return c.Send(audio)
}

func (h *TTSHandler) SavePreferredVoice(c *fiber.Ctx) error {
	var req struct {
		Voice string `json:"voice"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Voice) == "" {
		return failWith(c, fiber.StatusBadRequest, "Missing voice")
	}

	if err := h.users.SetPreferredVoice(c.Context(), middleware.UserID(c), req.Voice); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "preferred_voice": req.Voice})
}

// CloneVoice uploads an audio sample to the cloning provider and stores the
// resulting voice id on the user.
func (h *TTSHandler) CloneVoice(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return failWith(c, fiber.StatusBadRequest, "Voice name is required")
	}

	fileHeader, err := c.FormFile("sample")
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Audio sample is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Could not read audio sample")
	}
	defer file.Close()

	voiceID, err := h.clone.Clone(c.Context(), name, fileHeader.Filename, file)
	if err != nil {
		return fail(c, err)
	}

	if err := h.users.SetClonedVoice(c.Context(), middleware.UserID(c), h.clone.Provider(), voiceID); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"provider": h.clone.Provider(),
		"voice_id": voiceID,
	})
}
