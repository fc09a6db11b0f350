package repository

import (
	"context"
	"errors"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageStatusRepository definition per recipient status access
type MessageStatusRepository interface {
	// BulkInsert inserts statuses unordered. Duplicate key errors are treated
	// as success so a redelivered job cannot fail on rows it already wrote.
	BulkInsert(ctx context.Context, statuses []domain.MessageStatus) error
	// LatestVisibleMessageID finds the newest message in the room the user
	// has a non deleted status for, nil when none remains
	LatestVisibleMessageID(ctx context.Context, userID, roomID primitive.ObjectID) (*primitive.ObjectID, error)
	// EachVisibleInRoom streams the ids of the user's non deleted statuses in
	// the room, newest message first, via an aggregation cursor
	EachVisibleInRoom(ctx context.Context, userID, roomID primitive.ObjectID, fn func(statusID primitive.ObjectID) error) error
	// BulkSoftDelete marks statuses deleted in one unordered bulk write
	BulkSoftDelete(ctx context.Context, ids []primitive.ObjectID) error
	SetReaction(ctx context.Context, messageID, userID primitive.ObjectID, reaction domain.StatusReaction) error
	// ClearReaction removes the user's reaction sub record and returns what
	// it was, nil when there was none
	ClearReaction(ctx context.Context, messageID, userID primitive.ObjectID) (*domain.StatusReaction, error)
}

type messageStatusRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageStatusRepository create a MessageStatusRepository
func NewMongoMessageStatusRepository(db *mongo.Database) MessageStatusRepository {
	return &messageStatusRepository{
		coll: db.Collection(domain.MessageStatusCollection),
	}
}

// isDuplicateKeyOnly report whether every write error in err is the unique
// index firing (code 11000)
func isDuplicateKeyOnly(err error) bool {
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		if bwe.WriteConcernError != nil {
			return false
		}
		for _, we := range bwe.WriteErrors {
			if we.Code != 11000 {
				return false
			}
		}
		return len(bwe.WriteErrors) > 0
	}
	return mongo.IsDuplicateKeyError(err)
}

func (r *messageStatusRepository) BulkInsert(ctx context.Context, statuses []domain.MessageStatus) error {
	if len(statuses) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(statuses))
	for _, s := range statuses {
		docs = append(docs, s)
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && isDuplicateKeyOnly(err) {
		// redelivered job re-inserting rows it already owns
		return nil
	}
	return err
}

// visiblePipeline statuses of one user joined to the messages of one room,
// newest message first. Visible means the status is not user-deleted AND the
// message itself is not soft deleted; without the second filter a deleted
// message would win its own pointer recompute.
func visiblePipeline(userID, roomID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "userId", Value: userID},
			{Key: "deleted", Value: bson.D{{Key: "$ne", Value: true}}},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: domain.MessageCollection},
			{Key: "localField", Value: "messageId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "message"},
		}}},
		bson.D{{Key: "$unwind", Value: "$message"}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "message.roomId", Value: roomID},
			{Key: "message.isDeleted", Value: bson.D{{Key: "$ne", Value: true}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "message.createdAt", Value: -1},
		}}},
	}
}

func (r *messageStatusRepository) LatestVisibleMessageID(ctx context.Context, userID, roomID primitive.ObjectID) (*primitive.ObjectID, error) {
	pipeline := append(visiblePipeline(userID, roomID),
		bson.D{{Key: "$limit", Value: 1}},
	)

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []struct {
		Message struct {
			ID primitive.ObjectID `bson:"_id"`
		} `bson:"message"`
	}
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0].Message.ID, nil
}

func (r *messageStatusRepository) EachVisibleInRoom(ctx context.Context, userID, roomID primitive.ObjectID, fn func(statusID primitive.ObjectID) error) error {
	cur, err := r.coll.Aggregate(ctx, visiblePipeline(userID, roomID))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return err
		}
		if err := fn(doc.ID); err != nil {
			return err
		}
	}
	return cur.Err()
}

func (r *messageStatusRepository) BulkSoftDelete(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"deleted": true}}))
	}

	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (r *messageStatusRepository) SetReaction(ctx context.Context, messageID, userID primitive.ObjectID, reaction domain.StatusReaction) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"messageId": messageID, "userId": userID},
		bson.M{"$set": bson.M{"reaction": reaction}},
	)
	return err
}

func (r *messageStatusRepository) ClearReaction(ctx context.Context, messageID, userID primitive.ObjectID) (*domain.StatusReaction, error) {
	var before domain.MessageStatus
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"messageId": messageID, "userId": userID},
		bson.M{"$unset": bson.M{"reaction": ""}},
	).Decode(&before)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return before.Reaction, nil
}
