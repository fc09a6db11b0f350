package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageCollection mongo collection name
const MessageCollection = "messages"

// MessageType definition message type
type MessageType string

const (
	// MessageTypeManual a user-authored message
	MessageTypeManual MessageType = "manual"
	// MessageTypeSystem a room lifecycle notice
	MessageTypeSystem MessageType = "system"
	// MessageTypeReaction the system generated message behind a reaction
	MessageTypeReaction MessageType = "reaction"
)

// ReactionStat one emoji counter on a message. Count never drops below 1,
// an entry that would reach 0 is pruned in the same unit of work.
type ReactionStat struct {
	Emoji string `bson:"emoji" json:"emoji"`
	Count int    `bson:"count" json:"count"`
}

// MessageStats mutable aggregates of a message
type MessageStats struct {
	Reactions []ReactionStat `bson:"reactions" json:"reactions"`
}

// Message definition chat message
type Message struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	RoomID           primitive.ObjectID  `bson:"roomId" json:"roomId"`
	SenderID         primitive.ObjectID  `bson:"senderId" json:"senderId"`
	Content          string              `bson:"content" json:"content"`
	Type             MessageType         `bson:"type" json:"type"`
	ReactedMessageID *primitive.ObjectID `bson:"reactedMessageId,omitempty" json:"reactedMessageId,omitempty"`
	ParentID         *primitive.ObjectID `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Stats            MessageStats        `bson:"stats" json:"stats"`
	IsDeleted        bool                `bson:"isDeleted,omitempty" json:"isDeleted"`
	IsPinned         bool                `bson:"isPinned,omitempty" json:"isPinned"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}
