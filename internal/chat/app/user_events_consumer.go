package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// fetchRetryDelay pause before re-fetching after a transient broker error
const fetchRetryDelay = time.Second

const (
	eventUserCreated     = "userCreated"
	eventUserUpdated     = "userUpdated"
	eventUserDeleted     = "userDeleted"
	eventUserNameUpdated = "userNameUpdated"
)

// userEvent the envelope carried on the users topic
type userEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MessageFetcher the subset of *kafka.Reader the consumer uses
type MessageFetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// UserEventsConsumer keeps cached user projections honest against the auth
// service's lifecycle events. Events only correct or evict entries that are
// already cached, they never populate the cache; the resolver repopulates on
// the next lookup. Delivery is at least once, every effect is safe to repeat.
type UserEventsConsumer struct {
	reader MessageFetcher
	cache  UserCache
}

// NewUserEventsConsumer create a UserEventsConsumer
func NewUserEventsConsumer(reader MessageFetcher, cache UserCache) *UserEventsConsumer {
	return &UserEventsConsumer{reader: reader, cache: cache}
}

// Run consume events one at a time, in order, until ctx is cancelled
func (c *UserEventsConsumer) Run(ctx context.Context) {
	logger.Log.Info("user events consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Log.Info("user events consumer stopping")
				return
			}
			// the consumer must outlive broker hiccups, keep fetching
			logger.Log.Errorf("fetch user event:", err)
			select {
			case <-time.After(fetchRetryDelay):
			case <-ctx.Done():
				logger.Log.Info("user events consumer stopping")
				return
			}
			continue
		}

		if err := c.Handle(ctx, msg.Value); err != nil {
			// cache correction is best effort, the entry ages out on TTL
			logger.Log.Warn(fmt.Sprintf("handle user event: %v", err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Log.Errorf("commit user event offset:", err)
		}
	}
}

// Handle apply one event to the cache
func (c *UserEventsConsumer) Handle(ctx context.Context, value []byte) error {
	var event userEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode user event: %w", err)
	}

	switch event.Event {
	case eventUserUpdated:
		var u domain.User
		if err := json.Unmarshal(event.Data, &u); err != nil {
			return fmt.Errorf("decode %s data: %w", event.Event, err)
		}
		// overwrite only in the tiers that already hold the entry
		return c.cache.Refresh(ctx, UserCacheKey(u.ID), u)

	case eventUserDeleted:
		var data struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("decode %s data: %w", event.Event, err)
		}
		return c.cache.Delete(ctx, UserCacheKey(data.ID))

	case eventUserNameUpdated:
		var data struct {
			OldUsername string `json:"oldUsername"`
			NewUsername string `json:"newUsername"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return fmt.Errorf("decode %s data: %w", event.Event, err)
		}
		// evict the stale key only; the new name is cached on the next lookup
		return c.cache.Delete(ctx, UserCacheKey(data.OldUsername))

	case eventUserCreated:
		// nothing can be cached for a brand new user

	default:
		logger.Log.Debug(fmt.Sprintf("ignoring user event %q", event.Event))
	}
	return nil
}
