// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-poll/models"
	"github.com/danielhkuo/quickly-poll/store"
	"github.com/danielhkuo/quickly-poll/testutil"
)

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := store.NewRedisClient(context.Background(), "not-a-redis-url"); err == nil {
		t.Error("expected error for malformed URL")
	}
}

func TestUserCache_FallsBackWhenRedisIsDown(t *testing.T) {
	mem := store.NewMemoryStore()
	alice := testutil.CreateTestUser(t, mem, "alice")
	bob := testutil.CreateTestUser(t, mem, "bob")

	// Nothing listens on port 1
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	cache := store.NewUserCache(mem, rdb, time.Minute)

	users, err := cache.UsersByIDs(context.Background(), []int64{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("UsersByIDs failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users from the wrapped store, got %d", len(users))
	}

	empty, err := cache.UsersByIDs(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result without error, got %v %v", empty, err)
	}

	// Methods not overridden go straight to the store
	got, err := cache.UserByUsername(context.Background(), "alice")
	if err != nil || got.ID != alice.ID {
		t.Errorf("UserByUsername through cache: %+v %v", got, err)
	}
}

// userLookups records the id sets that reach the wrapped store
type userLookups struct {
	store.Store
	calls [][]int64
}

func (u *userLookups) UsersByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	u.calls = append(u.calls, append([]int64(nil), ids...))
	return u.Store.UsersByIDs(ctx, ids)
}

func sortedIDs(users []models.User) []int64 {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestUserCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rdb, err := store.NewRedisClient(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer rdb.Close()

	mem := store.NewMemoryStore()
	alice := testutil.CreateTestUser(t, mem, "alice")
	bob := testutil.CreateTestUser(t, mem, "bob")
	carol := testutil.CreateTestUser(t, mem, "carol")

	lookups := &userLookups{Store: mem}
	cache := store.NewUserCache(lookups, rdb, time.Minute)

	// Cold cache: everything comes from the store and gets written back
	users, err := cache.UsersByIDs(ctx, []int64{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("UsersByIDs() error = %v", err)
	}
	if got := sortedIDs(users); len(got) != 2 || got[0] != alice.ID || got[1] != bob.ID {
		t.Errorf("unexpected users %v", got)
	}
	if len(lookups.calls) != 1 || len(lookups.calls[0]) != 2 {
		t.Fatalf("expected one store lookup for both ids, got %v", lookups.calls)
	}
	for _, u := range []models.User{alice, bob} {
		key := "user:" + strconv.FormatInt(u.ID, 10) + ":summary"
		if !mr.Exists(key) {
			t.Errorf("expected %s to be cached", key)
		}
		if ttl := mr.TTL(key); ttl != time.Minute {
			t.Errorf("expected TTL 1m on %s, got %v", key, ttl)
		}
	}

	// Warm for alice and bob, cold for carol
	users, err = cache.UsersByIDs(ctx, []int64{alice.ID, bob.ID, carol.ID})
	if err != nil {
		t.Fatalf("UsersByIDs() error = %v", err)
	}
	if got := sortedIDs(users); len(got) != 3 || got[0] != alice.ID || got[1] != bob.ID || got[2] != carol.ID {
		t.Errorf("expected each user exactly once, got %v", got)
	}
	if len(lookups.calls) != 2 || len(lookups.calls[1]) != 1 || lookups.calls[1][0] != carol.ID {
		t.Fatalf("expected only carol to reach the store, got %v", lookups.calls)
	}

	// Fully warm: the store is not touched
	users, err = cache.UsersByIDs(ctx, []int64{carol.ID, alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("UsersByIDs() error = %v", err)
	}
	if len(users) != 3 || len(lookups.calls) != 2 {
		t.Errorf("expected 3 cached users and no store lookup, got %d users, %d lookups", len(users), len(lookups.calls))
	}
	for _, u := range users {
		if u.Username == "" || u.PasswordHash != "" {
			t.Errorf("cached user should carry public fields only: %+v", u)
		}
	}
}
