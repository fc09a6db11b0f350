package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRoomUseCase_Members(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()
	plainID := primitive.NewObjectID()
	joined := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	mockMembers := new(MockRoomMemberRepository)
	mockMembers.On("ListByRoom", ctx, roomID).Return([]domain.RoomMember{
		{ID: primitive.NewObjectID(), RoomID: roomID, UserID: adminID, IsAdmin: true, JoinedAt: joined},
		{ID: primitive.NewObjectID(), RoomID: roomID, UserID: plainID, JoinedAt: joined},
	}, nil)

	adminUser := domain.User{ID: adminID.Hex(), FirstName: "Ada"}

	mockCache := new(MockUserCache)
	mockCache.On("GetMany", ctx, []string{"user:" + adminID.Hex(), "user:" + plainID.Hex()}).
		Return(map[string]domain.User{"user:" + adminID.Hex(): adminUser}, []string{"user:" + plainID.Hex()})

	mockAuth := new(MockAuthClient)
	// the second member's account is gone, the view keeps the slot with a nil user
	mockAuth.On("UsersDetail", ctx, []string{plainID.Hex()}).Return([]domain.User{}, nil)

	uc := NewRoomUseCase(mockMembers, NewUserResolver(mockCache, mockAuth))
	views, err := uc.Members(ctx, roomID)

	assert.NoError(t, err)
	assert.Len(t, views, 2)

	assert.True(t, views[0].IsAdmin)
	assert.Equal(t, "2024-03-01 10:30:00", views[0].MemberSince)
	assert.NotNil(t, views[0].User)
	assert.Equal(t, "Ada", views[0].User.FirstName)

	assert.False(t, views[1].IsAdmin)
	assert.Nil(t, views[1].User)

	mockMembers.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockAuth.AssertExpectations(t)
}

func TestRoomUseCase_Members_ListFails(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	roomID := primitive.NewObjectID()

	mockMembers := new(MockRoomMemberRepository)
	mockMembers.On("ListByRoom", ctx, roomID).Return(nil, errors.New("find failed"))

	uc := NewRoomUseCase(mockMembers, NewUserResolver(new(MockUserCache), new(MockAuthClient)))
	views, err := uc.Members(ctx, roomID)

	assert.Error(t, err)
	assert.Nil(t, views)
}
