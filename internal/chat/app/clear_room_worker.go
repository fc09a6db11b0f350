package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"
	"github.com/AnkitChadoker/micro-chat/pkg/database"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
	"github.com/AnkitChadoker/micro-chat/pkg/queue"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClearRoomWorker handles clear-room-chat jobs: soft delete every status of
// one user in one room, batched, one transaction. Other recipients keep
// their view of the same messages.
type ClearRoomWorker struct {
	statuses repository.MessageStatusRepository
	tx       database.TxRunner
}

// NewClearRoomWorker create a ClearRoomWorker
func NewClearRoomWorker(statuses repository.MessageStatusRepository, tx database.TxRunner) *ClearRoomWorker {
	return &ClearRoomWorker{statuses: statuses, tx: tx}
}

// Handle run one clear-room-chat job
func (w *ClearRoomWorker) Handle(ctx context.Context, payload []byte) error {
	var job queue.ClearRoomChat
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decode clear-room-chat payload: %w", err)
	}

	roomID, err := primitive.ObjectIDFromHex(job.RoomID)
	if err != nil {
		return fmt.Errorf("bad roomId %q: %w", job.RoomID, err)
	}
	userID, err := primitive.ObjectIDFromHex(job.UserID)
	if err != nil {
		return fmt.Errorf("bad userId %q: %w", job.UserID, err)
	}

	return w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		batch := make([]primitive.ObjectID, 0, batchSize)
		count := 0

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := w.statuses.BulkSoftDelete(ctx, batch); err != nil {
				return err
			}
			count += len(batch)
			batch = batch[:0]
			return nil
		}

		err := w.statuses.EachVisibleInRoom(ctx, userID, roomID, func(statusID primitive.ObjectID) error {
			batch = append(batch, statusID)
			if len(batch) == batchSize {
				return flush()
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := flush(); err != nil {
			return err
		}

		logger.Log.Info(fmt.Sprintf("cleared %d message statuses for user[%s] in room[%s]", count, job.UserID, job.RoomID))
		return nil
	})
}
