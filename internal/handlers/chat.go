package handlers

import (
	"github.com/evrenbal/voicechat/internal/chat"
	"github.com/evrenbal/voicechat/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ChatHandler struct {
	orc *chat.Orchestrator
}

func NewChatHandler(orc *chat.Orchestrator) *ChatHandler {
	return &ChatHandler{orc: orc}
}

func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	chats, err := h.orc.ListChats(c.Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"chats": chats})
}

func (h *ChatHandler) GetChat(c *fiber.Ctx) error {
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid chat ID")
	}

	chatRec, messages, err := h.orc.GetChat(c.Context(), middleware.UserID(c), chatID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"chat":     chatRec,
		"messages": messages,
	})
}

func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
		Model string `json:"model"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}

	chatRec, err := h.orc.CreateChat(c.Context(), middleware.UserID(c), req.Title, req.Model)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(chatRec)
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
		ChatID  string `json:"chat_id"`
		Model   string `json:"model"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}

	var chatID uuid.UUID
	if req.ChatID != "" {
		var err error
		chatID, err = uuid.Parse(req.ChatID)
		if err != nil {
			return failWith(c, fiber.StatusBadRequest, "Invalid chat ID")
		}
	}

	result, err := h.orc.Send(c.Context(), chat.SendInput{
		UserID: middleware.UserID(c),
		ChatID: chatID,
		Text:   req.Message,
		Model:  req.Model,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"chat_id":   result.Chat.ID,
		"created":   result.Created,
		"title":     result.Chat.Title,
		"model":     result.Chat.Model,
		"assistant": result.Assistant,
	})
}

func (h *ChatHandler) RenameChat(c *fiber.Ctx) error {
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid chat ID")
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.orc.Rename(c.Context(), middleware.UserID(c), chatID, req.Title); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Chat renamed"})
}

func (h *ChatHandler) TogglePin(c *fiber.Ctx) error {
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid chat ID")
	}

	pinned, err := h.orc.TogglePin(c.Context(), middleware.UserID(c), chatID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"pinned": pinned})
}

func (h *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid chat ID")
	}

	if err := h.orc.DeleteChat(c.Context(), middleware.UserID(c), chatID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Chat deleted"})
}

func (h *ChatHandler) Regenerate(c *fiber.Ctx) error {
	chatID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid chat ID")
	}

	result, err := h.orc.Regenerate(c.Context(), middleware.UserID(c), chatID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"chat_id":   result.Chat.ID,
		"assistant": result.Assistant,
	})
}

func (h *ChatHandler) EditMessage(c *fiber.Ctx) error {
	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid message ID")
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.orc.EditMessage(c.Context(), middleware.UserID(c), messageID, req.Content); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message updated"})
}

func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	messageID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return failWith(c, fiber.StatusBadRequest, "Invalid message ID")
	}

	if err := h.orc.DeleteMessage(c.Context(), middleware.UserID(c), messageID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}
