package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStatusCollection mongo collection name
const MessageStatusCollection = "message_statuses"

// StatusReaction the reaction one recipient left on a message, pointing at
// the system generated reaction message
type StatusReaction struct {
	Emoji             string             `bson:"emoji" json:"emoji"`
	ReactedAt         time.Time          `bson:"reactedAt" json:"reactedAt"`
	MessageReactionID primitive.ObjectID `bson:"messageReactionId" json:"messageReactionId"`
}

// MessageStatus one delivery/read/reaction row per (message, recipient)
// pair, unique on that pair. Deleted is user scoped: the row stays so other
// recipients keep their timeline.
type MessageStatus struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MessageID   primitive.ObjectID `bson:"messageId" json:"messageId"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	SentAt      time.Time          `bson:"sentAt" json:"sentAt"`
	DeliveredAt *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	SeenAt      *time.Time         `bson:"seenAt,omitempty" json:"seenAt,omitempty"`
	Deleted     bool               `bson:"deleted,omitempty" json:"deleted,omitempty"`
	Reaction    *StatusReaction    `bson:"reaction,omitempty" json:"reaction,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
