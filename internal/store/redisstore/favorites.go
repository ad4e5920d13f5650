package redisstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"leja/board-service/internal/favorites"
)

// Favorites implements favorites.Store with one hash per user mapping posting
// id to the creation time in epoch milliseconds.
type Favorites struct {
	rdb *redis.Client
}

// NewFavorites returns a favorites store on rdb.
func NewFavorites(rdb *redis.Client) *Favorites { return &Favorites{rdb: rdb} }

func (s *Favorites) HasFavorite(ctx context.Context, email, jobID string) (bool, error) {
	ok, err := s.rdb.HExists(ctx, favoritesKey(email), jobID).Result()
	if err != nil {
		return false, fmt.Errorf("redis hexists favorite: %w", err)
	}
	return ok, nil
}

func (s *Favorites) AddFavorite(ctx context.Context, email, jobID string, createdAt int64) error {
	if err := s.rdb.HSet(ctx, favoritesKey(email), jobID, createdAt).Err(); err != nil {
		return fmt.Errorf("redis hset favorite: %w", err)
	}
	return nil
}

func (s *Favorites) RemoveFavorite(ctx context.Context, email, jobID string) error {
	if err := s.rdb.HDel(ctx, favoritesKey(email), jobID).Err(); err != nil {
		return fmt.Errorf("redis hdel favorite: %w", err)
	}
	return nil
}

func (s *Favorites) ListFavorites(ctx context.Context, email string) ([]string, error) {
	ids, err := s.rdb.HKeys(ctx, favoritesKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hkeys favorites: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

var _ favorites.Store = (*Favorites)(nil)
