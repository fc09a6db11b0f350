package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"
	"github.com/AnkitChadoker/micro-chat/pkg/database"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
	"github.com/AnkitChadoker/micro-chat/pkg/queue"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// batchSize bulk write payload size, not a commit boundary
const batchSize = 1000

// FanOutWorker handles process-message jobs: one MessageStatus per current
// room member, the sender's pre-acknowledged. All batches commit in one
// transaction or none do.
type FanOutWorker struct {
	members  repository.RoomMemberRepository
	statuses repository.MessageStatusRepository
	tx       database.TxRunner
}

// NewFanOutWorker create a FanOutWorker
func NewFanOutWorker(members repository.RoomMemberRepository, statuses repository.MessageStatusRepository, tx database.TxRunner) *FanOutWorker {
	return &FanOutWorker{members: members, statuses: statuses, tx: tx}
}

// Handle run one process-message job
func (w *FanOutWorker) Handle(ctx context.Context, payload []byte) error {
	var job queue.ProcessMessage
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decode process-message payload: %w", err)
	}

	messageID, err := primitive.ObjectIDFromHex(job.MessageID)
	if err != nil {
		return fmt.Errorf("bad messageId %q: %w", job.MessageID, err)
	}
	roomID, err := primitive.ObjectIDFromHex(job.RoomID)
	if err != nil {
		return fmt.Errorf("bad roomId %q: %w", job.RoomID, err)
	}
	senderID, err := primitive.ObjectIDFromHex(job.SenderID)
	if err != nil {
		return fmt.Errorf("bad senderId %q: %w", job.SenderID, err)
	}

	return w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		batch := make([]domain.MessageStatus, 0, batchSize)
		count := 0

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := w.statuses.BulkInsert(ctx, batch); err != nil {
				return err
			}
			count += len(batch)
			batch = batch[:0]
			return nil
		}

		err := w.members.EachMember(ctx, roomID, func(m domain.RoomMember) error {
			now := time.Now()
			status := domain.MessageStatus{
				MessageID: messageID,
				UserID:    m.UserID,
				SentAt:    now,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if m.UserID == senderID {
				// the sender auto-acknowledges their own message
				status.DeliveredAt = &now
				status.SeenAt = &now
			}
			batch = append(batch, status)

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

		logger.Log.Info(fmt.Sprintf("inserted %d message statuses for message[%s]", count, job.MessageID))
		return nil
	})
}
