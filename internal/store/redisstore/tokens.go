package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"leja/board-service/internal/auth"
)

// Tokens implements auth.TokenStore; expiry is the key TTL.
type Tokens struct {
	rdb *redis.Client
}

// NewTokens returns a token store on rdb.
func NewTokens(rdb *redis.Client) *Tokens { return &Tokens{rdb: rdb} }

func (s *Tokens) Put(ctx context.Context, token, email string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, tokenPrefix+token, email, ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (s *Tokens) Get(ctx context.Context, token string) (string, error) {
	email, err := s.rdb.Get(ctx, tokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", auth.ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return email, nil
}

func (s *Tokens) Touch(ctx context.Context, token string, ttl time.Duration) error {
	ok, err := s.rdb.Expire(ctx, tokenPrefix+token, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire token: %w", err)
	}
	if !ok {
		return auth.ErrInvalidToken
	}
	return nil
}

func (s *Tokens) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, tokenPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}

var _ auth.TokenStore = (*Tokens)(nil)
