package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"
	"github.com/AnkitChadoker/micro-chat/pkg/database"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
	"github.com/AnkitChadoker/micro-chat/pkg/queue"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LastMessageWorker handles handle-last-message jobs. An inserted message
// becomes every member's pointer unconditionally; jobs for one room arrive in
// send order from the enqueue path, so no timestamp check is done here. A
// deleted message triggers a per member recompute from their own visible
// history, only for members still pointing at it.
type LastMessageWorker struct {
	members  repository.RoomMemberRepository
	statuses repository.MessageStatusRepository
	tx       database.TxRunner
}

// NewLastMessageWorker create a LastMessageWorker
func NewLastMessageWorker(members repository.RoomMemberRepository, statuses repository.MessageStatusRepository, tx database.TxRunner) *LastMessageWorker {
	return &LastMessageWorker{members: members, statuses: statuses, tx: tx}
}

// Handle run one handle-last-message job
func (w *LastMessageWorker) Handle(ctx context.Context, payload []byte) error {
	var job queue.HandleLastMessage
	if err := json.Unmarshal(payload, &job); err != nil {
		return fmt.Errorf("decode handle-last-message payload: %w", err)
	}

	roomID, err := primitive.ObjectIDFromHex(job.RoomID)
	if err != nil {
		return fmt.Errorf("bad roomId %q: %w", job.RoomID, err)
	}

	if job.InsertedMessageID != "" {
		insertedID, err := primitive.ObjectIDFromHex(job.InsertedMessageID)
		if err != nil {
			return fmt.Errorf("bad insertedMessageId %q: %w", job.InsertedMessageID, err)
		}
		if err := w.members.SetLastMessageForRoom(ctx, roomID, insertedID); err != nil {
			return err
		}
	}

	if job.DeletedMessageID != "" {
		deletedID, err := primitive.ObjectIDFromHex(job.DeletedMessageID)
		if err != nil {
			return fmt.Errorf("bad deletedMessageId %q: %w", job.DeletedMessageID, err)
		}
		if err := w.recompute(ctx, roomID, deletedID); err != nil {
			return err
		}
	}

	return nil
}

// recompute walk the room members and repoint everyone whose pointer was the
// deleted message, batched, one transaction for the whole job
func (w *LastMessageWorker) recompute(ctx context.Context, roomID, deletedID primitive.ObjectID) error {
	return w.tx.WithTransaction(ctx, func(ctx context.Context) error {
		batch := make([]repository.LastMessageUpdate, 0, batchSize)
		count := 0

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := w.members.BulkSetLastMessage(ctx, batch); err != nil {
				return err
			}
			count += len(batch)
			batch = batch[:0]
			return nil
		}

		err := w.members.EachMember(ctx, roomID, func(m domain.RoomMember) error {
			if m.LastMessageID == nil || *m.LastMessageID != deletedID {
				return nil
			}

			lastID, err := w.statuses.LatestVisibleMessageID(ctx, m.UserID, roomID)
			if err != nil {
				return err
			}

			batch = append(batch, repository.LastMessageUpdate{
				MemberID:      m.ID,
				LastMessageID: lastID,
			})

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

		logger.Log.Info(fmt.Sprintf("repointed %d members in room[%s]", count, roomID.Hex()))
		return nil
	})
}
