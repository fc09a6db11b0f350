package app

import (
	"context"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"
	"github.com/AnkitChadoker/micro-chat/pkg/queue"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeTxRunner runs the function directly, no session
type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockRoomMemberRepository Mock RoomMemberRepository
type MockRoomMemberRepository struct {
	mock.Mock
	// Members are fed to the EachMember callback in order
	Members []domain.RoomMember
}

// EachMember mock stream members
func (m *MockRoomMemberRepository) EachMember(ctx context.Context, roomID primitive.ObjectID, fn func(domain.RoomMember) error) error {
	args := m.Called(ctx, roomID)
	if err := args.Error(0); err != nil {
		return err
	}
	for _, member := range m.Members {
		if err := fn(member); err != nil {
			return err
		}
	}
	return nil
}

// SetLastMessageForRoom mock room wide pointer update
func (m *MockRoomMemberRepository) SetLastMessageForRoom(ctx context.Context, roomID, messageID primitive.ObjectID) error {
	args := m.Called(ctx, roomID, messageID)
	return args.Error(0)
}

// BulkSetLastMessage mock bulk pointer update
func (m *MockRoomMemberRepository) BulkSetLastMessage(ctx context.Context, updates []repository.LastMessageUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

// ListByRoom mock list members
func (m *MockRoomMemberRepository) ListByRoom(ctx context.Context, roomID primitive.ObjectID) ([]domain.RoomMember, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.RoomMember), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByRoomAndUser mock find one membership
func (m *MockRoomMemberRepository) FindByRoomAndUser(ctx context.Context, roomID, userID primitive.ObjectID) (*domain.RoomMember, error) {
	args := m.Called(ctx, roomID, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.RoomMember), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageStatusRepository Mock MessageStatusRepository
type MockMessageStatusRepository struct {
	mock.Mock
	// VisibleStatusIDs are fed to the EachVisibleInRoom callback in order
	VisibleStatusIDs []primitive.ObjectID
}

// BulkInsert mock bulk status insert
func (m *MockMessageStatusRepository) BulkInsert(ctx context.Context, statuses []domain.MessageStatus) error {
	args := m.Called(ctx, statuses)
	return args.Error(0)
}

// LatestVisibleMessageID mock per member recompute lookup
func (m *MockMessageStatusRepository) LatestVisibleMessageID(ctx context.Context, userID, roomID primitive.ObjectID) (*primitive.ObjectID, error) {
	args := m.Called(ctx, userID, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*primitive.ObjectID), args.Error(1)
	}
	return nil, args.Error(1)
}

// EachVisibleInRoom mock stream visible status ids
func (m *MockMessageStatusRepository) EachVisibleInRoom(ctx context.Context, userID, roomID primitive.ObjectID, fn func(statusID primitive.ObjectID) error) error {
	args := m.Called(ctx, userID, roomID)
	if err := args.Error(0); err != nil {
		return err
	}
	for _, id := range m.VisibleStatusIDs {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

// BulkSoftDelete mock bulk status soft delete
func (m *MockMessageStatusRepository) BulkSoftDelete(ctx context.Context, ids []primitive.ObjectID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// SetReaction mock set reaction
func (m *MockMessageStatusRepository) SetReaction(ctx context.Context, messageID, userID primitive.ObjectID, reaction domain.StatusReaction) error {
	args := m.Called(ctx, messageID, userID, reaction)
	return args.Error(0)
}

// ClearReaction mock clear reaction
func (m *MockMessageStatusRepository) ClearReaction(ctx context.Context, messageID, userID primitive.ObjectID) (*domain.StatusReaction, error) {
	args := m.Called(ctx, messageID, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.StatusReaction), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	return args.Error(0)
}

// FindByID mock find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// SoftDelete mock soft delete message
func (m *MockMessageRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Delete mock physical delete message
func (m *MockMessageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// SetPinned mock pin toggle
func (m *MockMessageRepository) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	args := m.Called(ctx, id, pinned)
	return args.Error(0)
}

// AddReaction mock reaction counter increment
func (m *MockMessageRepository) AddReaction(ctx context.Context, id primitive.ObjectID, emoji string) error {
	args := m.Called(ctx, id, emoji)
	return args.Error(0)
}

// RemoveReaction mock reaction counter decrement
func (m *MockMessageRepository) RemoveReaction(ctx context.Context, id primitive.ObjectID, emoji string) error {
	args := m.Called(ctx, id, emoji)
	return args.Error(0)
}

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// FindByID mock find room by id
func (m *MockRoomRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

// TouchActivity mock room activity bump
func (m *MockRoomRepository) TouchActivity(ctx context.Context, roomID, messageID, userID primitive.ObjectID) error {
	args := m.Called(ctx, roomID, messageID, userID)
	return args.Error(0)
}

// MockJobQueue Mock JobQueue
type MockJobQueue struct {
	mock.Mock
}

// Enqueue mock enqueue job
func (m *MockJobQueue) Enqueue(ctx context.Context, kind queue.Kind, payload interface{}, opts *queue.Options) error {
	args := m.Called(ctx, kind, payload, opts)
	return args.Error(0)
}

// MockMessageEvents Mock MessageEvents
type MockMessageEvents struct {
	mock.Mock
}

// MessageCreated mock created event publish
func (m *MockMessageEvents) MessageCreated(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MessageDeleted mock deleted event publish
func (m *MockMessageEvents) MessageDeleted(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserCache Mock UserCache
type MockUserCache struct {
	mock.Mock
}

// Get mock cache read
func (m *MockUserCache) Get(ctx context.Context, key string) (domain.User, bool) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.User), args.Bool(1)
}

// GetMany mock batched cache read
func (m *MockUserCache) GetMany(ctx context.Context, keys []string) (map[string]domain.User, []string) {
	args := m.Called(ctx, keys)
	var missing []string
	if args.Get(1) != nil {
		missing = args.Get(1).([]string)
	}
	return args.Get(0).(map[string]domain.User), missing
}

// Set mock cache write
func (m *MockUserCache) Set(ctx context.Context, key string, value domain.User, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Refresh mock cache refresh
func (m *MockUserCache) Refresh(ctx context.Context, key string, value domain.User) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// Delete mock cache evict
func (m *MockUserCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockAuthClient Mock AuthClient
type MockAuthClient struct {
	mock.Mock
}

// VerifyToken mock token check
func (m *MockAuthClient) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// UserDetail mock single user lookup
func (m *MockAuthClient) UserDetail(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// UserDetailByUsername mock username lookup
func (m *MockAuthClient) UserDetailByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// UsersDetail mock batched user lookup
func (m *MockAuthClient) UsersDetail(ctx context.Context, ids []string) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageFetcher Mock MessageFetcher
type MockMessageFetcher struct {
	mock.Mock
}

// FetchMessage mock fetch one event
func (m *MockMessageFetcher) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

// CommitMessages mock offset commit
func (m *MockMessageFetcher) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

// Close mock close
func (m *MockMessageFetcher) Close() error {
	args := m.Called()
	return args.Error(0)
}
