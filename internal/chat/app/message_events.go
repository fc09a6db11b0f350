package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"

	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	eventMessageCreated = "messageCreated"
	eventMessageDeleted = "messageDeleted"
)

// MessageEventWriter the subset of *kafka.Writer the publisher uses
type MessageEventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageEvents side channel notifications about messages, consumed by the
// search indexer
type MessageEvents interface {
	MessageCreated(ctx context.Context, msg *domain.Message) error
	MessageDeleted(ctx context.Context, id primitive.ObjectID) error
}

type messageEventPublisher struct {
	writer MessageEventWriter
}

// NewMessageEventPublisher create a MessageEvents publisher on a kafka writer
func NewMessageEventPublisher(writer MessageEventWriter) MessageEvents {
	return &messageEventPublisher{writer: writer}
}

type messageCreatedData struct {
	ID        string    `json:"_id"`
	SenderID  string    `json:"senderId"`
	RoomID    string    `json:"roomId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type messageDeletedData struct {
	ID string `json:"_id"`
}

func (p *messageEventPublisher) publish(ctx context.Context, event string, data interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event),
		Value: body,
	})
}

func (p *messageEventPublisher) MessageCreated(ctx context.Context, msg *domain.Message) error {
	return p.publish(ctx, eventMessageCreated, messageCreatedData{
		ID:        msg.ID.Hex(),
		SenderID:  msg.SenderID.Hex(),
		RoomID:    msg.RoomID.Hex(),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
}

func (p *messageEventPublisher) MessageDeleted(ctx context.Context, id primitive.ObjectID) error {
	return p.publish(ctx, eventMessageDeleted, messageDeletedData{ID: id.Hex()})
}
