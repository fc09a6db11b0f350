package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
)

const userKeyPrefix = "user:"

// UserCacheKey cache key of one user projection
func UserCacheKey(id string) string {
	return userKeyPrefix + id
}

// UserCache the two tier cache as the resolver and the events consumer see it
type UserCache interface {
	Get(ctx context.Context, key string) (domain.User, bool)
	GetMany(ctx context.Context, keys []string) (map[string]domain.User, []string)
	Set(ctx context.Context, key string, value domain.User, ttl time.Duration) error
	Refresh(ctx context.Context, key string, value domain.User) error
	Delete(ctx context.Context, key string) error
}

// UserResolver resolves user projections: local tier, shared tier, then the
// auth service, populating both tiers on a remote hit. Every failure on the
// way degrades to "unknown user", never to a caller error.
type UserResolver struct {
	cache UserCache
	auth  repository.AuthClient
}

// NewUserResolver create a UserResolver
func NewUserResolver(cache UserCache, auth repository.AuthClient) *UserResolver {
	return &UserResolver{cache: cache, auth: auth}
}

// GetOne resolve one user id, nil when it resolves nowhere
func (r *UserResolver) GetOne(ctx context.Context, id string) *domain.User {
	key := UserCacheKey(id)
	if u, ok := r.cache.Get(ctx, key); ok {
		return &u
	}

	u, err := r.auth.UserDetail(ctx, id)
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("user lookup[%s] failed: %v", id, err))
		return nil
	}
	if u == nil {
		return nil
	}

	if err := r.cache.Set(ctx, key, *u, 0); err != nil {
		logger.Log.Warn(fmt.Sprintf("cache user[%s]: %v", id, err))
	}
	return u
}

// GetByUsername resolve one username, nil when it resolves nowhere. Username
// keyed entries share the cache with id keyed ones; the userNameUpdated event
// evicts them when the name changes.
func (r *UserResolver) GetByUsername(ctx context.Context, username string) *domain.User {
	key := UserCacheKey(username)
	if u, ok := r.cache.Get(ctx, key); ok {
		return &u
	}

	u, err := r.auth.UserDetailByUsername(ctx, username)
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("user lookup by username[%s] failed: %v", username, err))
		return nil
	}
	if u == nil {
		return nil
	}

	if err := r.cache.Set(ctx, key, *u, 0); err != nil {
		logger.Log.Warn(fmt.Sprintf("cache user[%s]: %v", username, err))
	}
	return u
}

// GetMany resolve several ids at once, shared tier misses batched into one
// round trip and one RPC. The result keeps the input order and cardinality,
// nil where an id resolves to nothing.
func (r *UserResolver) GetMany(ctx context.Context, ids []string) []*domain.User {
	results := make(map[string]domain.User, len(ids))

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = UserCacheKey(id)
	}

	found, missingKeys := r.cache.GetMany(ctx, keys)
	for key, u := range found {
		results[strings.TrimPrefix(key, userKeyPrefix)] = u
	}

	if len(missingKeys) > 0 {
		missing := make([]string, len(missingKeys))
		for i, key := range missingKeys {
			missing[i] = strings.TrimPrefix(key, userKeyPrefix)
		}

		fetched, err := r.auth.UsersDetail(ctx, missing)
		if err != nil {
			logger.Log.Warn(fmt.Sprintf("users lookup failed: %v", err))
		} else {
			for _, u := range fetched {
				results[u.ID] = u
				if err := r.cache.Set(ctx, UserCacheKey(u.ID), u, 0); err != nil {
					logger.Log.Warn(fmt.Sprintf("cache user[%s]: %v", u.ID, err))
				}
			}
		}
	}

	out := make([]*domain.User, len(ids))
	for i, id := range ids {
		if u, ok := results[id]; ok {
			u := u
			out[i] = &u
		}
	}
	return out
}
