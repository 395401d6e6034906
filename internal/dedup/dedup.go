// Package dedup marks chat updates as processed so a re-delivered
// update does not append the same note twice across restarts.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker records processed update IDs in Redis with a TTL.
type Marker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed marker.
func New(addr, password, prefix string, ttl time.Duration) (*Marker, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("dedup redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "booknotes:update"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Marker{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

// FirstSeen returns true when this chat message has not been processed
// before and marks it processed. Message IDs are only unique within a
// chat, so the key is chat-scoped. On Redis failures it fails open and
// returns true: a duplicate note is preferable to dropping updates
// while Redis is down.
func (m *Marker) FirstSeen(ctx context.Context, chatID int64, messageID int) bool {
	if m == nil {
		return true
	}
	key := fmt.Sprintf("%s:%d:%d", m.prefix, chatID, messageID)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	set, err := m.client.SetNX(ctx, key, 1, m.ttl).Result()
	if err != nil {
		return true
	}
	return set
}

// Close releases the Redis connection.
func (m *Marker) Close() error {
	if m == nil {
		return nil
	}
	return m.client.Close()
}
