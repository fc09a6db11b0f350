package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
	"github.com/AnkitChadoker/micro-chat/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func lastMessagePayload(t *testing.T, job queue.HandleLastMessage) []byte {
	t.Helper()
	payload, err := json.Marshal(job)
	assert.NoError(t, err)
	return payload
}

func TestLastMessageWorker_Handle_Inserted(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	insertedID := primitive.NewObjectID()

	mockMembers := new(MockRoomMemberRepository)
	mockMembers.On("SetLastMessageForRoom", mock.Anything, roomID, insertedID).Return(nil)

	w := NewLastMessageWorker(mockMembers, new(MockMessageStatusRepository), fakeTxRunner{})
	err := w.Handle(ctx, lastMessagePayload(t, queue.HandleLastMessage{
		RoomID:            roomID.Hex(),
		InsertedMessageID: insertedID.Hex(),
	}))

	assert.NoError(t, err)
	mockMembers.AssertExpectations(t)
	// an insertion never triggers a per member recompute
	mockMembers.AssertNotCalled(t, "EachMember", mock.Anything, mock.Anything)
}

func TestLastMessageWorker_Handle_Deleted(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	deletedID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	previousID := primitive.NewObjectID()

	pointing := domain.RoomMember{ID: primitive.NewObjectID(), RoomID: roomID, UserID: primitive.NewObjectID(), LastMessageID: &deletedID}
	elsewhere := domain.RoomMember{ID: primitive.NewObjectID(), RoomID: roomID, UserID: primitive.NewObjectID(), LastMessageID: &otherID}
	fresh := domain.RoomMember{ID: primitive.NewObjectID(), RoomID: roomID, UserID: primitive.NewObjectID()}
	emptied := domain.RoomMember{ID: primitive.NewObjectID(), RoomID: roomID, UserID: primitive.NewObjectID(), LastMessageID: &deletedID}

	mockMembers := new(MockRoomMemberRepository)
	mockMembers.Members = []domain.RoomMember{pointing, elsewhere, fresh, emptied}
	mockMembers.On("EachMember", mock.Anything, roomID).Return(nil)

	mockStatuses := new(MockMessageStatusRepository)
	mockStatuses.On("LatestVisibleMessageID", mock.Anything, pointing.UserID, roomID).Return(&previousID, nil)
	// this member has nothing visible left, their pointer goes null
	mockStatuses.On("LatestVisibleMessageID", mock.Anything, emptied.UserID, roomID).Return(nil, nil)

	var updates []repository.LastMessageUpdate
	mockMembers.On("BulkSetLastMessage", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		updates = append(updates, args.Get(1).([]repository.LastMessageUpdate)...)
	}).Return(nil)

	w := NewLastMessageWorker(mockMembers, mockStatuses, fakeTxRunner{})
	err := w.Handle(ctx, lastMessagePayload(t, queue.HandleLastMessage{
		RoomID:           roomID.Hex(),
		DeletedMessageID: deletedID.Hex(),
	}))

	assert.NoError(t, err)
	assert.Len(t, updates, 2)
	assert.Equal(t, pointing.ID, updates[0].MemberID)
	assert.Equal(t, &previousID, updates[0].LastMessageID)
	assert.Equal(t, emptied.ID, updates[1].MemberID)
	assert.Nil(t, updates[1].LastMessageID)

	// members pointing elsewhere are never recomputed
	mockStatuses.AssertNotCalled(t, "LatestVisibleMessageID", mock.Anything, elsewhere.UserID, roomID)
	mockStatuses.AssertNotCalled(t, "LatestVisibleMessageID", mock.Anything, fresh.UserID, roomID)
	mockMembers.AssertExpectations(t)
	mockStatuses.AssertExpectations(t)
}

func TestLastMessageWorker_Handle_DeletedNoOne(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()

	mockMembers := new(MockRoomMemberRepository)
	mockMembers.Members = []domain.RoomMember{
		{ID: primitive.NewObjectID(), RoomID: roomID, UserID: primitive.NewObjectID(), LastMessageID: &otherID},
	}
	mockMembers.On("EachMember", mock.Anything, roomID).Return(nil)

	w := NewLastMessageWorker(mockMembers, new(MockMessageStatusRepository), fakeTxRunner{})
	err := w.Handle(ctx, lastMessagePayload(t, queue.HandleLastMessage{
		RoomID:           roomID.Hex(),
		DeletedMessageID: primitive.NewObjectID().Hex(),
	}))

	assert.NoError(t, err)
	mockMembers.AssertNotCalled(t, "BulkSetLastMessage", mock.Anything, mock.Anything)
}

func TestLastMessageWorker_Handle_BadRoomID(t *testing.T) {
	logger.SetNewNop()

	w := NewLastMessageWorker(new(MockRoomMemberRepository), new(MockMessageStatusRepository), fakeTxRunner{})
	err := w.Handle(context.Background(), []byte(`{"roomId":"nope"}`))
	assert.Error(t, err)
}
