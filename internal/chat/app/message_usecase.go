package app

import (
	"context"
	"fmt"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"
	"github.com/AnkitChadoker/micro-chat/pkg/database"
	errprocess "github.com/AnkitChadoker/micro-chat/pkg/err"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
	"github.com/AnkitChadoker/micro-chat/pkg/queue"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobQueue the enqueue side of the job queue
type JobQueue interface {
	Enqueue(ctx context.Context, kind queue.Kind, payload interface{}, opts *queue.Options) error
}

// MessageUseCase message write flows. Each flow commits its own primary
// write first, then hands the fan out work to the queue; the request path
// never waits for a worker.
type MessageUseCase struct {
	messages repository.MessageRepository
	statuses repository.MessageStatusRepository
	rooms    repository.RoomRepository
	jobs     JobQueue
	events   MessageEvents
	tx       database.TxRunner
}

// NewMessageUseCase create a MessageUseCase
func NewMessageUseCase(
	messages repository.MessageRepository,
	statuses repository.MessageStatusRepository,
	rooms repository.RoomRepository,
	jobs JobQueue,
	events MessageEvents,
	tx database.TxRunner,
) *MessageUseCase {
	return &MessageUseCase{
		messages: messages,
		statuses: statuses,
		rooms:    rooms,
		jobs:     jobs,
		events:   events,
		tx:       tx,
	}
}

// Send store a new message and queue the per recipient fan out
func (uc *MessageUseCase) Send(ctx context.Context, roomID, senderID primitive.ObjectID, content string) (*domain.Message, error) {
	msg := &domain.Message{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		Type:     domain.MessageTypeManual,
	}

	err := uc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := uc.messages.Insert(ctx, msg); err != nil {
			return err
		}
		return uc.rooms.TouchActivity(ctx, roomID, msg.ID, senderID)
	})
	if err != nil {
		return nil, errprocess.Set(fmt.Sprintf("store message in room[%s]: %v", roomID.Hex(), err))
	}

	if err := uc.jobs.Enqueue(ctx, queue.KindProcessMessage, queue.ProcessMessage{
		MessageID: msg.ID.Hex(),
		RoomID:    roomID.Hex(),
		SenderID:  senderID.Hex(),
	}, nil); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("enqueue fan out for message[%s]: %v", msg.ID.Hex(), err))
	}

	if err := uc.jobs.Enqueue(ctx, queue.KindHandleLastMessage, queue.HandleLastMessage{
		RoomID:            roomID.Hex(),
		InsertedMessageID: msg.ID.Hex(),
	}, nil); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("enqueue pointer update for message[%s]: %v", msg.ID.Hex(), err))
	}

	if err := uc.events.MessageCreated(ctx, msg); err != nil {
		// the search index catches up elsewhere, the send already succeeded
		logger.Log.Warn(fmt.Sprintf("publish messageCreated: %v", err))
	}

	return msg, nil
}

// Delete soft delete a message and queue the pointer recompute
func (uc *MessageUseCase) Delete(ctx context.Context, roomID, messageID primitive.ObjectID) error {
	if err := uc.messages.SoftDelete(ctx, messageID); err != nil {
		return errprocess.Set(fmt.Sprintf("soft delete message[%s]: %v", messageID.Hex(), err))
	}

	if err := uc.jobs.Enqueue(ctx, queue.KindHandleLastMessage, queue.HandleLastMessage{
		RoomID:           roomID.Hex(),
		DeletedMessageID: messageID.Hex(),
	}, nil); err != nil {
		return errprocess.Set(fmt.Sprintf("enqueue pointer recompute for message[%s]: %v", messageID.Hex(), err))
	}

	if err := uc.events.MessageDeleted(ctx, messageID); err != nil {
		logger.Log.Warn(fmt.Sprintf("publish messageDeleted: %v", err))
	}
	return nil
}

// React set the user's reaction on a message. A previous reaction by the
// same user is replaced: its counter decremented, its reaction message
// removed, all in the same transaction as the new reaction.
func (uc *MessageUseCase) React(ctx context.Context, roomID, messageID, userID primitive.ObjectID, emoji string) (*domain.Message, error) {
	reactionMsg := &domain.Message{
		RoomID:           roomID,
		SenderID:         userID,
		Content:          emoji,
		Type:             domain.MessageTypeReaction,
		ReactedMessageID: &messageID,
	}

	err := uc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := uc.messages.Insert(ctx, reactionMsg); err != nil {
			return err
		}

		prev, err := uc.statuses.ClearReaction(ctx, messageID, userID)
		if err != nil {
			return err
		}
		if prev != nil {
			if err := uc.messages.RemoveReaction(ctx, messageID, prev.Emoji); err != nil {
				return err
			}
			if err := uc.messages.Delete(ctx, prev.MessageReactionID); err != nil {
				return err
			}
		}

		if err := uc.statuses.SetReaction(ctx, messageID, userID, domain.StatusReaction{
			Emoji:             emoji,
			ReactedAt:         time.Now(),
			MessageReactionID: reactionMsg.ID,
		}); err != nil {
			return err
		}

		return uc.messages.AddReaction(ctx, messageID, emoji)
	})
	if err != nil {
		return nil, err
	}
	return reactionMsg, nil
}

// Unreact remove the user's reaction from a message, pruning the counter and
// the reaction message it produced
func (uc *MessageUseCase) Unreact(ctx context.Context, messageID, userID primitive.ObjectID) error {
	return uc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		prev, err := uc.statuses.ClearReaction(ctx, messageID, userID)
		if err != nil {
			return err
		}
		if prev == nil {
			return nil
		}
		if err := uc.messages.RemoveReaction(ctx, messageID, prev.Emoji); err != nil {
			return err
		}
		return uc.messages.Delete(ctx, prev.MessageReactionID)
	})
}

// Pin toggle the pin flag of a message
func (uc *MessageUseCase) Pin(ctx context.Context, messageID primitive.ObjectID, pinned bool) error {
	return uc.messages.SetPinned(ctx, messageID, pinned)
}

// ClearRoom queue the bulk soft delete of one user's chat history in a room
func (uc *MessageUseCase) ClearRoom(ctx context.Context, roomID, userID primitive.ObjectID) error {
	return uc.jobs.Enqueue(ctx, queue.KindClearRoomChat, queue.ClearRoomChat{
		RoomID: roomID.Hex(),
		UserID: userID.Hex(),
	}, nil)
}
