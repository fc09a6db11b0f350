package app

import (
	"context"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoomMemberView one room member enriched with their user projection. User
// is nil when the projection resolved nowhere, the caller treats that as an
// unknown user.
type RoomMemberView struct {
	UserID      string       `json:"userId"`
	IsAdmin     bool         `json:"isAdmin"`
	MemberSince string       `json:"memberSince"`
	User        *domain.User `json:"user"`
}

// RoomUseCase room read flows
type RoomUseCase struct {
	members  repository.RoomMemberRepository
	resolver *UserResolver
}

// NewRoomUseCase create a RoomUseCase
func NewRoomUseCase(members repository.RoomMemberRepository, resolver *UserResolver) *RoomUseCase {
	return &RoomUseCase{members: members, resolver: resolver}
}

// Members list a room's members with their user projections, resolved in one
// batched pass
func (uc *RoomUseCase) Members(ctx context.Context, roomID primitive.ObjectID) ([]RoomMemberView, error) {
	members, err := uc.members.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID.Hex()
	}
	users := uc.resolver.GetMany(ctx, ids)

	views := make([]RoomMemberView, len(members))
	for i, m := range members {
		views[i] = RoomMemberView{
			UserID:      m.UserID.Hex(),
			IsAdmin:     m.IsAdmin,
			MemberSince: m.JoinedAt.Format("2006-01-02 15:04:05"),
			User:        users[i],
		}
	}
	return views, nil
}
