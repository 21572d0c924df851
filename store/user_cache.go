// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/quickly-poll/models"
)

// NewRedisClient parses a redis:// URL and verifies the server answers
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return c, nil
}

// UserCache wraps a Store and serves UsersByIDs from Redis where it can.
// Only public profile fields are cached. Any Redis failure falls through to
// the wrapped Store.
type UserCache struct {
	Store
	rdb *redis.Client
	ttl time.Duration
}

func NewUserCache(s Store, rdb *redis.Client, ttl time.Duration) *UserCache {
	return &UserCache{Store: s, rdb: rdb, ttl: ttl}
}

type cachedUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func userKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10) + ":summary"
}

func (c *UserCache) UsersByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Warn("user cache read failed", "error", err)
		return c.Store.UsersByIDs(ctx, ids)
	}

	users := make([]models.User, 0, len(ids))
	var misses []int64
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var cu cachedUser
		if err := json.Unmarshal([]byte(raw), &cu); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		users = append(users, models.User{ID: cu.ID, Name: cu.Name, Username: cu.Username, CreatedAt: cu.CreatedAt})
	}

	if len(misses) == 0 {
		return users, nil
	}

	loaded, err := c.Store.UsersByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}

	pipe := c.rdb.Pipeline()
	for _, u := range loaded {
		b, err := json.Marshal(cachedUser{ID: u.ID, Name: u.Name, Username: u.Username, CreatedAt: u.CreatedAt})
		if err != nil {
			continue
		}
		pipe.Set(ctx, userKey(u.ID), b, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("user cache write failed", "error", err)
	}

	return append(users, loaded...), nil
}
