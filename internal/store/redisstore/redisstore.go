// Package redisstore keeps the short-lived and per-user state in Redis:
// bearer tokens, client preferences, favorites and workflow events.
package redisstore

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Key prefixes.
const (
	tokenPrefix = "board:token:"
	prefsPrefix = "board:prefs:"
)

func favoritesKey(email string) string { return "users:" + email + ":favorites" }

// Publisher implements apply.Publisher on Redis pub/sub.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher returns a Publisher on rdb.
func NewPublisher(rdb *redis.Client) *Publisher { return &Publisher{rdb: rdb} }

func (p *Publisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}
