package repository

import (
	"context"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LastMessageUpdate one member's recomputed pointer. LastMessageID nil means
// the member has no visible message left.
type LastMessageUpdate struct {
	MemberID      primitive.ObjectID
	LastMessageID *primitive.ObjectID
}

// RoomMemberRepository definition room membership access
type RoomMemberRepository interface {
	// EachMember streams every member of a room through fn via a cursor, the
	// result set is unbounded and never loaded at once
	EachMember(ctx context.Context, roomID primitive.ObjectID, fn func(domain.RoomMember) error) error
	// SetLastMessageForRoom points every member of the room at messageID
	SetLastMessageForRoom(ctx context.Context, roomID, messageID primitive.ObjectID) error
	// BulkSetLastMessage applies recomputed pointers in one unordered bulk write
	BulkSetLastMessage(ctx context.Context, updates []LastMessageUpdate) error
	ListByRoom(ctx context.Context, roomID primitive.ObjectID) ([]domain.RoomMember, error)
	FindByRoomAndUser(ctx context.Context, roomID, userID primitive.ObjectID) (*domain.RoomMember, error)
}

type roomMemberRepository struct {
	coll *mongo.Collection
}

// NewMongoRoomMemberRepository create a RoomMemberRepository
func NewMongoRoomMemberRepository(db *mongo.Database) RoomMemberRepository {
	return &roomMemberRepository{
		coll: db.Collection(domain.RoomMemberCollection),
	}
}

func (r *roomMemberRepository) EachMember(ctx context.Context, roomID primitive.ObjectID, fn func(domain.RoomMember) error) error {
	cur, err := r.coll.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var member domain.RoomMember
		if err := cur.Decode(&member); err != nil {
			return err
		}
		if err := fn(member); err != nil {
			return err
		}
	}
	return cur.Err()
}

func (r *roomMemberRepository) SetLastMessageForRoom(ctx context.Context, roomID, messageID primitive.ObjectID) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"roomId": roomID},
		bson.M{"$set": bson.M{"lastMessageId": messageID}},
	)
	return err
}

func (r *roomMemberRepository) BulkSetLastMessage(ctx context.Context, updates []LastMessageUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": u.MemberID}).
			SetUpdate(bson.M{"$set": bson.M{"lastMessageId": u.LastMessageID}}))
	}

	_, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (r *roomMemberRepository) ListByRoom(ctx context.Context, roomID primitive.ObjectID) ([]domain.RoomMember, error) {
	cur, err := r.coll.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, err
	}
	var members []domain.RoomMember
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *roomMemberRepository) FindByRoomAndUser(ctx context.Context, roomID, userID primitive.ObjectID) (*domain.RoomMember, error) {
	var member domain.RoomMember
	err := r.coll.FindOne(ctx, bson.M{"roomId": roomID, "userId": userID}).Decode(&member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}
