// Package inbox 记录每个消费者已处理的 eventId，重复投递直接跳过。
package inbox

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const defaultTTL = 7 * 24 * time.Hour

// RedisInbox 以 inbox:{consumer}:{eventId} 为 key。
type RedisInbox struct {
	rdb goredis.UniversalClient
	ttl time.Duration
}

func NewRedisInbox(rdb goredis.UniversalClient, ttl time.Duration) *RedisInbox {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisInbox{rdb: rdb, ttl: ttl}
}

func key(consumer, eventID string) string {
	return "inbox:" + consumer + ":" + eventID
}

// Seen 判断事件是否已被该消费者处理。
func (i *RedisInbox) Seen(ctx context.Context, consumer, eventID string) (bool, error) {
	n, err := i.rdb.Exists(ctx, key(consumer, eventID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "inbox exists")
	}
	return n > 0, nil
}

// MarkProcessed 在处理成功后调用。
func (i *RedisInbox) MarkProcessed(ctx context.Context, consumer, eventID string) error {
	if err := i.rdb.SetNX(ctx, key(consumer, eventID), time.Now().Unix(), i.ttl).Err(); err != nil {
		return errors.Wrap(err, "inbox setnx")
	}
	return nil
}
