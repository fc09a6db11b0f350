package repository

import (
	"context"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MessageRepository definition message access
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	// Delete physically removes a message. Only used to cascade a superseded
	// reaction message; regular messages are soft deleted.
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error
	// AddReaction increments the emoji counter on the message, creating the
	// entry at count 1 when absent
	AddReaction(ctx context.Context, id primitive.ObjectID, emoji string) error
	// RemoveReaction decrements the emoji counter and prunes entries at or
	// below zero. Run it inside the caller's transaction so the decrement
	// and the prune are one unit of work.
	RemoveReaction(ctx context.Context, id primitive.ObjectID, emoji string) error
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection(domain.MessageCollection),
	}
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	now := time.Now()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	if msg.Type == "" {
		msg.Type = domain.MessageTypeManual
	}
	msg.CreatedAt = now
	msg.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error) {
	var msg domain.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now()}},
	)
	return err
}

func (r *messageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *messageRepository) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isPinned": pinned, "updatedAt": time.Now()}},
	)
	return err
}

func (r *messageRepository) AddReaction(ctx context.Context, id primitive.ObjectID, emoji string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stats.reactions.emoji": emoji},
		bson.M{"$inc": bson.M{"stats.reactions.$.count": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// no counter for this emoji yet
	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"stats.reactions": domain.ReactionStat{Emoji: emoji, Count: 1}}},
	)
	return err
}

func (r *messageRepository) RemoveReaction(ctx context.Context, id primitive.ObjectID, emoji string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stats.reactions.emoji": emoji},
		bson.M{"$inc": bson.M{"stats.reactions.$.count": -1}},
	)
	if err != nil {
		return err
	}

	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"stats.reactions": bson.M{"count": bson.M{"$lte": 0}}}},
	)
	return err
}
