package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"leja/board-service/internal/prefs"
)

// Hash fields of a preference record.
const (
	fieldRole    = "role"
	fieldOrg     = "org"
	fieldPending = "pending"
)

// Prefs implements prefs.Store with one hash per client.
type Prefs struct {
	rdb *redis.Client
}

// NewPrefs returns a preference store on rdb.
func NewPrefs(rdb *redis.Client) *Prefs { return &Prefs{rdb: rdb} }

func (s *Prefs) Load(ctx context.Context, clientID string) (prefs.Values, error) {
	m, err := s.rdb.HGetAll(ctx, prefsPrefix+clientID).Result()
	if err != nil {
		return prefs.Values{}, fmt.Errorf("redis load prefs: %w", err)
	}
	v := prefs.Values{Org: m[fieldOrg], Pending: prefs.DecodePending(m[fieldPending])}
	if raw := m[fieldRole]; raw != "" {
		v.Role = prefs.ParseRole(raw)
	}
	return v, nil
}

func (s *Prefs) SetRole(ctx context.Context, clientID string, role prefs.Role) error {
	return s.set(ctx, clientID, fieldRole, string(role))
}

func (s *Prefs) SetOrg(ctx context.Context, clientID, org string) error {
	return s.set(ctx, clientID, fieldOrg, org)
}

func (s *Prefs) SetPending(ctx context.Context, clientID string, p prefs.PendingAction) error {
	raw, err := prefs.EncodePending(p)
	if err != nil {
		return fmt.Errorf("encode pending: %w", err)
	}
	return s.set(ctx, clientID, fieldPending, raw)
}

func (s *Prefs) TakePending(ctx context.Context, clientID string) (*prefs.PendingAction, error) {
	key := prefsPrefix + clientID
	var get *redis.StringCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGet(ctx, key, fieldPending)
		pipe.HDel(ctx, key, fieldPending)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis take pending: %w", err)
	}
	raw, err := get.Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis take pending: %w", err)
	}
	return prefs.DecodePending(raw), nil
}

func (s *Prefs) ClearIdentity(ctx context.Context, clientID string) error {
	if err := s.rdb.HDel(ctx, prefsPrefix+clientID, fieldRole, fieldOrg).Err(); err != nil {
		return fmt.Errorf("redis clear identity: %w", err)
	}
	return nil
}

func (s *Prefs) set(ctx context.Context, clientID, field, value string) error {
	if err := s.rdb.HSet(ctx, prefsPrefix+clientID, field, value).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", field, err)
	}
	return nil
}

var _ prefs.Store = (*Prefs)(nil)
