package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// RoomCollection mongo collection name
	RoomCollection = "rooms"
	// RoomMemberCollection mongo collection name
	RoomMemberCollection = "room_members"
)

// RoomStats denormalized room activity info
type RoomStats struct {
	TotalMembers    int                 `bson:"totalMembers" json:"totalMembers"`
	LastActivityAt  *time.Time          `bson:"lastActivityAt,omitempty" json:"lastActivityAt,omitempty"`
	LastActedUserID *primitive.ObjectID `bson:"lastActedUserId,omitempty" json:"lastActedUserId,omitempty"`
	LastMessageID   *primitive.ObjectID `bson:"lastMessageId,omitempty" json:"lastMessageId,omitempty"`
}

// Room definition chat room
type Room struct {
	ID                       primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name                     string              `bson:"name,omitempty" json:"name,omitempty"`
	Description              string              `bson:"description,omitempty" json:"description,omitempty"`
	IsPrivate                bool                `bson:"isPrivate" json:"isPrivate"`
	OwnerID                  primitive.ObjectID  `bson:"ownerId" json:"ownerId"`
	PendingMemberID          *primitive.ObjectID `bson:"pendingMemberId,omitempty" json:"pendingMemberId,omitempty"`
	OnlyAdminCanSendMessages bool                `bson:"onlyAdminCanSendMessages" json:"onlyAdminCanSendMessages"`
	Stats                    RoomStats           `bson:"stats" json:"stats"`
	CreatedAt                time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt                time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// RoomMember (room, user) membership, unique on the pair. LastMessageID is
// the member's pointer to the newest message they can still see; the
// maintenance worker is the only writer of that field here.
type RoomMember struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	RoomID        primitive.ObjectID  `bson:"roomId" json:"roomId"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	JoinedAt      time.Time           `bson:"joinedAt" json:"joinedAt"`
	IsAdmin       bool                `bson:"isAdmin" json:"isAdmin"`
	LastMessageID *primitive.ObjectID `bson:"lastMessageId,omitempty" json:"lastMessageId,omitempty"`
}
