package app

import (
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
	"github.com/AnkitChadoker/micro-chat/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler fiber handlers of the chat routes
type ChatHandler struct {
	messageUC *MessageUseCase
	roomUC    *RoomUseCase
	resolver  *UserResolver
}

// NewChatHandler create a ChatHandler
func NewChatHandler(messageUC *MessageUseCase, roomUC *RoomUseCase, resolver *UserResolver) *ChatHandler {
	return &ChatHandler{messageUC: messageUC, roomUC: roomUC, resolver: resolver}
}

func fulfilled(msg string, data interface{}) fiber.Map {
	return fiber.Map{"success": true, "message": msg, "data": data}
}

func rejected(msg string) fiber.Map {
	return fiber.Map{"success": false, "message": msg}
}

func requestUserID(c *fiber.Ctx) (primitive.ObjectID, error) {
	id, _ := c.Locals(middlewares.LocalUserID).(string)
	return primitive.ObjectIDFromHex(id)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

// SendMessage POST /room/:roomId/message
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	roomID, err := primitive.ObjectIDFromHex(c.Params("roomId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid room id."))
	}
	senderID, err := requestUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(rejected("Invalid user."))
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Message content is required."))
	}

	msg, err := h.messageUC.Send(c.Context(), roomID, senderID, req.Content)
	if err != nil {
		logger.Log.Errorf("send message:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(rejected("Message could not be sent."))
	}

	return c.Status(fiber.StatusOK).JSON(fulfilled("Message sent successfully.", fiber.Map{
		"message": msg,
	}))
}

// DeleteMessage DELETE /room/:roomId/message/:id
func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	roomID, err := primitive.ObjectIDFromHex(c.Params("roomId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid room id."))
	}
	messageID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid message id."))
	}

	if err := h.messageUC.Delete(c.Context(), roomID, messageID); err != nil {
		logger.Log.Errorf("delete message:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(rejected("Message could not be deleted."))
	}
	return c.Status(fiber.StatusOK).JSON(fulfilled("Message deleted successfully.", nil))
}

// ReactMessage POST /room/:roomId/message/:id/reaction
func (h *ChatHandler) ReactMessage(c *fiber.Ctx) error {
	roomID, err := primitive.ObjectIDFromHex(c.Params("roomId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid room id."))
	}
	messageID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid message id."))
	}
	userID, err := requestUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(rejected("Invalid user."))
	}

	var req reactRequest
	if err := c.BodyParser(&req); err != nil || req.Emoji == "" {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Emoji is required."))
	}

	reactionMsg, err := h.messageUC.React(c.Context(), roomID, messageID, userID, req.Emoji)
	if err != nil {
		logger.Log.Errorf("react message:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(rejected("Reaction could not be saved."))
	}
	return c.Status(fiber.StatusOK).JSON(fulfilled("Reaction saved successfully.", fiber.Map{
		"message": reactionMsg,
	}))
}

// UnreactMessage DELETE /room/:roomId/message/:id/reaction
func (h *ChatHandler) UnreactMessage(c *fiber.Ctx) error {
	messageID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid message id."))
	}
	userID, err := requestUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(rejected("Invalid user."))
	}

	if err := h.messageUC.Unreact(c.Context(), messageID, userID); err != nil {
		logger.Log.Errorf("unreact message:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(rejected("Reaction could not be removed."))
	}
	return c.Status(fiber.StatusOK).JSON(fulfilled("Reaction removed successfully.", nil))
}

// PinMessage PATCH /room/:roomId/message/:id/pin
func (h *ChatHandler) PinMessage(c *fiber.Ctx) error {
	messageID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid message id."))
	}

	var req pinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid request body."))
	}

	if err := h.messageUC.Pin(c.Context(), messageID, req.Pinned); err != nil {
		logger.Log.Errorf("pin message:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(rejected("Message could not be pinned."))
	}
	return c.Status(fiber.StatusOK).JSON(fulfilled("Message pin updated.", nil))
}

// ClearRoomChat POST /room/:roomId/clear
func (h *ChatHandler) ClearRoomChat(c *fiber.Ctx) error {
	roomID, err := primitive.ObjectIDFromHex(c.Params("roomId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid room id."))
	}
	userID, err := requestUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(rejected("Invalid user."))
	}

	if err := h.messageUC.ClearRoom(c.Context(), roomID, userID); err != nil {
		logger.Log.Errorf("clear room chat:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(rejected("Chat could not be cleared."))
	}
	return c.Status(fiber.StatusOK).JSON(fulfilled("Chat clear has been queued.", nil))
}

// UserByUsername GET /user/:username
func (h *ChatHandler) UserByUsername(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Username is required."))
	}

	user := h.resolver.GetByUsername(c.Context(), username)
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(rejected("User not found."))
	}
	return c.Status(fiber.StatusOK).JSON(fulfilled("User fetched successfully.", fiber.Map{
		"user": user,
	}))
}

// RoomMembers GET /room/:roomId/members
func (h *ChatHandler) RoomMembers(c *fiber.Ctx) error {
	roomID, err := primitive.ObjectIDFromHex(c.Params("roomId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(rejected("Invalid room id."))
	}

	members, err := h.roomUC.Members(c.Context(), roomID)
	if err != nil {
		logger.Log.Errorf("room members:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(rejected("Members could not be fetched."))
	}
	return c.Status(fiber.StatusOK).JSON(fulfilled("Group members fetched successfully.", fiber.Map{
		"members": members,
	}))
}
