package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupeTTL = 48 * time.Hour

// Deduper remembers which chat messages have already been processed so that
// edits and re-deliveries do not produce duplicate signals.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDeduper(client *redis.Client) *Deduper {
	return &Deduper{client: client, ttl: dedupeTTL}
}

// FirstSeen marks the message as processed and reports whether this was the
// first time it was seen. With no Redis client configured every message
// counts as first seen.
func (d *Deduper) FirstSeen(ctx context.Context, chatID, messageID int64) (bool, error) {
	if d == nil || d.client == nil {
		return true, nil
	}
	key := fmt.Sprintf("chartwatch:seen:%d:%d", chatID, messageID)
	return d.client.SetNX(ctx, key, 1, d.ttl).Result()
}
