package repository

import (
	"context"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoomRepository definition chat room access
type RoomRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Room, error)
	// TouchActivity bumps the room's denormalized last activity stats
	TouchActivity(ctx context.Context, roomID, messageID, userID primitive.ObjectID) error
}

type roomRepository struct {
	coll *mongo.Collection
}

// NewMongoRoomRepository create a RoomRepository
func NewMongoRoomRepository(db *mongo.Database) RoomRepository {
	return &roomRepository{
		coll: db.Collection(domain.RoomCollection),
	}
}

func (r *roomRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Room, error) {
	var room domain.Room
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) TouchActivity(ctx context.Context, roomID, messageID, userID primitive.ObjectID) error {
	now := time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": roomID},
		bson.M{"$set": bson.M{
			"stats.lastActivityAt":  now,
			"stats.lastMessageId":   messageID,
			"stats.lastActedUserId": userID,
			"updatedAt":             now,
		}},
	)
	return err
}
