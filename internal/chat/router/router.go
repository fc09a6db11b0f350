package router

import (
	"github.com/AnkitChadoker/micro-chat/internal/chat/app"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes register the chat routes
func RegisterRoutes(r *fiber.App, h *app.ChatHandler, auth fiber.Handler) {
	api := r.Group("/api", auth)

	api.Get("/user/:username", h.UserByUsername)

	room := api.Group("/room/:roomId")
	room.Get("/members", h.RoomMembers)
	room.Post("/clear", h.ClearRoomChat)

	room.Post("/message", h.SendMessage)
	room.Delete("/message/:id", h.DeleteMessage)
	room.Post("/message/:id/reaction", h.ReactMessage)
	room.Delete("/message/:id/reaction", h.UnreactMessage)
	room.Patch("/message/:id/pin", h.PinMessage)
}
