// Package cache keeps per-user unread counters in Redis in front of the
// database count.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	"github.com/redis/go-redis/v9"
)

// versionTTL outlives any read-then-set window by a wide margin.
const versionTTL = 24 * time.Hour

// setIfVersion stores the counter only while the user's version is the
// one the caller read before going to the database.
var setIfVersion = redis.NewScript(`
local v = redis.call('GET', KEYS[2])
if (v or '0') ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// Unread stores a counter under unread:<user> and a version under
// unread:ver:<user>. Invalidate bumps the version, so a count computed
// before an invalidation can never be written after it.
type Unread struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewUnread(client *redis.Client, ttl time.Duration) *Unread {
	return &Unread{client: client, prefix: "unread:", ttl: ttl}
}

func (c *Unread) key(userId domain.UserId) string {
	return c.prefix + strconv.FormatInt(userId, 10)
}

func (c *Unread) versionKey(userId domain.UserId) string {
	return c.prefix + "ver:" + strconv.FormatInt(userId, 10)
}

// Get returns the cached counter and the version to pass to Set on a miss.
func (c *Unread) Get(ctx context.Context, userId domain.UserId) (int, int64, bool, error) {
	vals, err := c.client.MGet(ctx, c.key(userId), c.versionKey(userId)).Result()
	if err != nil {
		return 0, 0, false, fmt.Errorf("get unread counter: %w", err)
	}
	var version int64
	if v, ok := vals[1].(string); ok {
		if version, err = strconv.ParseInt(v, 10, 64); err != nil {
			return 0, 0, false, fmt.Errorf("parse unread counter version: %w", err)
		}
	}
	raw, ok := vals[0].(string)
	if !ok {
		return 0, version, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse unread counter: %w", err)
	}
	return n, version, true, nil
}

// Set stores count unless the user was invalidated after version was read.
func (c *Unread) Set(ctx context.Context, userId domain.UserId, count int, version int64) error {
	err := setIfVersion.Run(ctx, c.client,
		[]string{c.key(userId), c.versionKey(userId)},
		count, strconv.FormatInt(version, 10), c.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("set unread counter: %w", err)
	}
	return nil
}

func (c *Unread) Invalidate(ctx context.Context, userIds ...domain.UserId) error {
	if len(userIds) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIds {
			pipe.Incr(ctx, c.versionKey(id))
			pipe.Expire(ctx, c.versionKey(id), versionTTL)
			pipe.Del(ctx, c.key(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate unread counters: %w", err)
	}
	return nil
}
