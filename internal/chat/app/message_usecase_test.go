package app

import (
	"context"
	"errors"
	"testing"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
	"github.com/AnkitChadoker/micro-chat/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newMessageUseCaseMocks() (*MockMessageRepository, *MockMessageStatusRepository, *MockRoomRepository, *MockJobQueue, *MockMessageEvents) {
	return new(MockMessageRepository), new(MockMessageStatusRepository), new(MockRoomRepository), new(MockJobQueue), new(MockMessageEvents)
}

func TestMessageUseCase_Send(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	senderID := primitive.NewObjectID()

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockMsgs.On("Insert", mock.Anything, mock.Anything).Return(nil)
	mockRooms.On("TouchActivity", mock.Anything, roomID, mock.Anything, senderID).Return(nil)
	mockJobs.On("Enqueue", mock.Anything, queue.KindProcessMessage, mock.Anything, (*queue.Options)(nil)).Return(nil)
	mockJobs.On("Enqueue", mock.Anything, queue.KindHandleLastMessage, mock.Anything, (*queue.Options)(nil)).Return(nil)
	mockEvents.On("MessageCreated", mock.Anything, mock.Anything).Return(nil)

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	msg, err := uc.Send(ctx, roomID, senderID, "hello")

	assert.NoError(t, err)
	assert.NotNil(t, msg)
	assert.False(t, msg.ID.IsZero())
	assert.Equal(t, domain.MessageTypeManual, msg.Type)
	assert.Equal(t, "hello", msg.Content)

	mockMsgs.AssertExpectations(t)
	mockRooms.AssertExpectations(t)
	mockJobs.AssertExpectations(t)
	mockEvents.AssertExpectations(t)

	// the fan out and the pointer update are two separate jobs
	fanOut := mockJobs.Calls[0].Arguments.Get(2).(queue.ProcessMessage)
	assert.Equal(t, msg.ID.Hex(), fanOut.MessageID)
	assert.Equal(t, roomID.Hex(), fanOut.RoomID)
	assert.Equal(t, senderID.Hex(), fanOut.SenderID)

	pointer := mockJobs.Calls[1].Arguments.Get(2).(queue.HandleLastMessage)
	assert.Equal(t, msg.ID.Hex(), pointer.InsertedMessageID)
	assert.Empty(t, pointer.DeletedMessageID)
}

func TestMessageUseCase_Send_InsertFails(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockMsgs.On("Insert", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	msg, err := uc.Send(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "hello")

	assert.Error(t, err)
	assert.Nil(t, msg)
	// nothing is queued when the message never committed
	assert.Empty(t, mockJobs.Calls)
}

func TestMessageUseCase_Send_EventPublishFailureIsNotFatal(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	senderID := primitive.NewObjectID()

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockMsgs.On("Insert", mock.Anything, mock.Anything).Return(nil)
	mockRooms.On("TouchActivity", mock.Anything, roomID, mock.Anything, senderID).Return(nil)
	mockJobs.On("Enqueue", mock.Anything, mock.Anything, mock.Anything, (*queue.Options)(nil)).Return(nil)
	mockEvents.On("MessageCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	msg, err := uc.Send(ctx, roomID, senderID, "hello")

	assert.NoError(t, err)
	assert.NotNil(t, msg)
}

func TestMessageUseCase_Delete(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	messageID := primitive.NewObjectID()

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockMsgs.On("SoftDelete", mock.Anything, messageID).Return(nil)
	mockJobs.On("Enqueue", mock.Anything, queue.KindHandleLastMessage, mock.Anything, (*queue.Options)(nil)).Return(nil)
	mockEvents.On("MessageDeleted", mock.Anything, messageID).Return(nil)

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	err := uc.Delete(ctx, roomID, messageID)

	assert.NoError(t, err)
	mockMsgs.AssertExpectations(t)
	mockJobs.AssertExpectations(t)

	pointer := mockJobs.Calls[0].Arguments.Get(2).(queue.HandleLastMessage)
	assert.Equal(t, messageID.Hex(), pointer.DeletedMessageID)
	assert.Empty(t, pointer.InsertedMessageID)
}

func TestMessageUseCase_React_FirstReaction(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	messageID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockMsgs.On("Insert", mock.Anything, mock.Anything).Return(nil)
	mockStatuses.On("ClearReaction", mock.Anything, messageID, userID).Return(nil, nil)
	mockStatuses.On("SetReaction", mock.Anything, messageID, userID, mock.Anything).Return(nil)
	mockMsgs.On("AddReaction", mock.Anything, messageID, "👍").Return(nil)

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	reactionMsg, err := uc.React(ctx, roomID, messageID, userID, "👍")

	assert.NoError(t, err)
	assert.NotNil(t, reactionMsg)
	assert.Equal(t, domain.MessageTypeReaction, reactionMsg.Type)
	assert.Equal(t, &messageID, reactionMsg.ReactedMessageID)

	mockMsgs.AssertNotCalled(t, "RemoveReaction", mock.Anything, mock.Anything, mock.Anything)
	mockMsgs.AssertExpectations(t)
	mockStatuses.AssertExpectations(t)
}

func TestMessageUseCase_React_ReplacesPrevious(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	messageID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	prevReactionMsgID := primitive.NewObjectID()

	prev := &domain.StatusReaction{Emoji: "👍", MessageReactionID: prevReactionMsgID}

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockMsgs.On("Insert", mock.Anything, mock.Anything).Return(nil)
	mockStatuses.On("ClearReaction", mock.Anything, messageID, userID).Return(prev, nil)
	mockMsgs.On("RemoveReaction", mock.Anything, messageID, "👍").Return(nil)
	mockMsgs.On("Delete", mock.Anything, prevReactionMsgID).Return(nil)
	mockStatuses.On("SetReaction", mock.Anything, messageID, userID, mock.Anything).Return(nil)
	mockMsgs.On("AddReaction", mock.Anything, messageID, "🎉").Return(nil)

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	reactionMsg, err := uc.React(ctx, roomID, messageID, userID, "🎉")

	assert.NoError(t, err)
	assert.Equal(t, "🎉", reactionMsg.Content)
	mockMsgs.AssertExpectations(t)
	mockStatuses.AssertExpectations(t)
}

func TestMessageUseCase_Unreact(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	messageID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	reactionMsgID := primitive.NewObjectID()

	prev := &domain.StatusReaction{Emoji: "👍", MessageReactionID: reactionMsgID}

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockStatuses.On("ClearReaction", mock.Anything, messageID, userID).Return(prev, nil)
	mockMsgs.On("RemoveReaction", mock.Anything, messageID, "👍").Return(nil)
	mockMsgs.On("Delete", mock.Anything, reactionMsgID).Return(nil)

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	err := uc.Unreact(ctx, messageID, userID)

	assert.NoError(t, err)
	mockMsgs.AssertExpectations(t)
	mockStatuses.AssertExpectations(t)
}

func TestMessageUseCase_Unreact_NothingToRemove(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	messageID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockStatuses.On("ClearReaction", mock.Anything, messageID, userID).Return(nil, nil)

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	err := uc.Unreact(ctx, messageID, userID)

	assert.NoError(t, err)
	mockMsgs.AssertNotCalled(t, "RemoveReaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestMessageUseCase_ClearRoom(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents := newMessageUseCaseMocks()
	mockJobs.On("Enqueue", mock.Anything, queue.KindClearRoomChat, queue.ClearRoomChat{
		RoomID: roomID.Hex(),
		UserID: userID.Hex(),
	}, (*queue.Options)(nil)).Return(nil)

	uc := NewMessageUseCase(mockMsgs, mockStatuses, mockRooms, mockJobs, mockEvents, fakeTxRunner{})
	err := uc.ClearRoom(ctx, roomID, userID)

	assert.NoError(t, err)
	mockJobs.AssertExpectations(t)
}
