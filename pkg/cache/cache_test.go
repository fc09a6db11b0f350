package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/AnkitChadoker/micro-chat/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
)

type testUser struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// fakeSharedStore in-memory stand in for the redis tier
type fakeSharedStore struct {
	data map[string]string
	err  error
}

func newFakeSharedStore() *fakeSharedStore {
	return &fakeSharedStore{data: map[string]string{}}
}

func (f *fakeSharedStore) put(t *testing.T, key string, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	assert.NoError(t, err)
	f.data[key] = string(raw)
}

func (f *fakeSharedStore) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeSharedStore) MGet(ctx context.Context, keys ...string) *redis.SliceCmd {
	if f.err != nil {
		return redis.NewSliceResult(nil, f.err)
	}
	values := make([]interface{}, len(keys))
	for i, key := range keys {
		if v, ok := f.data[key]; ok {
			values[i] = v
		}
	}
	return redis.NewSliceResult(values, nil)
}

func (f *fakeSharedStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeSharedStore) SetXX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; !ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewBoolResult(true, nil)
}

func (f *fakeSharedStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func newTestCache(store *fakeSharedStore) *TwoTier[testUser] {
	return newWithStore[testUser](store, Config{})
}

func TestGet_LocalHit(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	store := newFakeSharedStore()
	c := newTestCache(store)

	assert.NoError(t, c.Set(ctx, "user:u1", testUser{ID: "u1", Name: "Ada"}, 0))

	// a later shared outage must not break a local hit
	store.err = errors.New("connection refused")

	v, ok := c.Get(ctx, "user:u1")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v.Name)
}

func TestGet_SharedHitBackfillsLocal(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	store := newFakeSharedStore()
	store.put(t, "user:u1", testUser{ID: "u1", Name: "Ada"})
	c := newTestCache(store)

	v, ok := c.Get(ctx, "user:u1")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v.Name)

	// shared goes away, the backfilled local copy still answers
	store.err = errors.New("connection refused")
	v, ok = c.Get(ctx, "user:u1")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v.Name)
}

func TestGet_Miss(t *testing.T) {
	logger.SetNewNop()

	c := newTestCache(newFakeSharedStore())

	_, ok := c.Get(context.Background(), "user:missing")
	assert.False(t, ok)
}

func TestGet_SharedErrorDegradesToMiss(t *testing.T) {
	logger.SetNewNop()

	store := newFakeSharedStore()
	store.err = errors.New("connection refused")
	c := newTestCache(store)

	_, ok := c.Get(context.Background(), "user:u1")
	assert.False(t, ok)
}

func TestGetMany(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	store := newFakeSharedStore()
	store.put(t, "user:u2", testUser{ID: "u2", Name: "Grace"})
	c := newTestCache(store)

	assert.NoError(t, c.Set(ctx, "user:u1", testUser{ID: "u1", Name: "Ada"}, 0))

	found, missing := c.GetMany(ctx, []string{"user:u1", "user:u2", "user:u3"})

	assert.Len(t, found, 2)
	assert.Equal(t, "Ada", found["user:u1"].Name)
	assert.Equal(t, "Grace", found["user:u2"].Name)
	assert.Equal(t, []string{"user:u3"}, missing)
}

func TestGetMany_SharedErrorReportsAllMissing(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	store := newFakeSharedStore()
	c := newTestCache(store)

	assert.NoError(t, c.Set(ctx, "user:u1", testUser{ID: "u1", Name: "Ada"}, 0))
	store.err = errors.New("connection refused")

	found, missing := c.GetMany(ctx, []string{"user:u1", "user:u2"})

	// the local hit survives, the rest stays missing
	assert.Len(t, found, 1)
	assert.Equal(t, []string{"user:u2"}, missing)
}

func TestSet_WritesBothTiers(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	store := newFakeSharedStore()
	c := newTestCache(store)

	assert.NoError(t, c.Set(ctx, "user:u1", testUser{ID: "u1", Name: "Ada"}, time.Minute))

	assert.Contains(t, store.data, "user:u1")
	v, ok := c.local.Get("user:u1")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v.Name)
}

func TestRefresh_OnlyTouchesExistingEntries(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	store := newFakeSharedStore()
	c := newTestCache(store)

	assert.NoError(t, c.Refresh(ctx, "user:u1", testUser{ID: "u1", Name: "Ada"}))

	// neither tier held the key, neither may gain it
	assert.NotContains(t, store.data, "user:u1")
	_, ok := c.local.Get("user:u1")
	assert.False(t, ok)
}

func TestRefresh_OverwritesExistingEntries(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	store := newFakeSharedStore()
	c := newTestCache(store)

	assert.NoError(t, c.Set(ctx, "user:u1", testUser{ID: "u1", Name: "Ada"}, 0))
	assert.NoError(t, c.Refresh(ctx, "user:u1", testUser{ID: "u1", Name: "Ada L."}))

	v, ok := c.Get(ctx, "user:u1")
	assert.True(t, ok)
	assert.Equal(t, "Ada L.", v.Name)

	var shared testUser
	assert.NoError(t, json.Unmarshal([]byte(store.data["user:u1"]), &shared))
	assert.Equal(t, "Ada L.", shared.Name)
}

func TestDelete_EvictsBothTiers(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	store := newFakeSharedStore()
	c := newTestCache(store)

	assert.NoError(t, c.Set(ctx, "user:u1", testUser{ID: "u1", Name: "Ada"}, 0))
	assert.NoError(t, c.Delete(ctx, "user:u1"))

	assert.NotContains(t, store.data, "user:u1")
	_, ok := c.Get(ctx, "user:u1")
	assert.False(t, ok)
}
