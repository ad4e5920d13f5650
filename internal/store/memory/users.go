package memory

import (
	"context"
	"sync"
	"time"

	"leja/board-service/internal/auth"
)

// Users implements auth.UserStore.
type Users struct {
	mu   sync.RWMutex
	rows map[string]auth.User
}

// NewUsers returns an empty account store.
func NewUsers() *Users { return &Users{rows: make(map[string]auth.User)} }

func (s *Users) CreateUser(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[u.Email]; ok {
		return auth.ErrEmailTaken
	}
	s.rows[u.Email] = *u
	return nil
}

func (s *Users) GetUser(_ context.Context, email string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.rows[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

// Tokens implements auth.TokenStore with expiry checked on read.
type Tokens struct {
	mu   sync.Mutex
	rows map[string]tokenRow
	now  func() time.Time
}

type tokenRow struct {
	email   string
	expires time.Time
}

// NewTokens returns an empty token store.
func NewTokens() *Tokens { return &Tokens{rows: make(map[string]tokenRow), now: time.Now} }

// SetClock replaces the time source.
func (s *Tokens) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Tokens) Put(_ context.Context, token, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[token] = tokenRow{email: email, expires: s.now().Add(ttl)}
	return nil
}

func (s *Tokens) Get(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[token]
	if !ok {
		return "", auth.ErrInvalidToken
	}
	if !s.now().Before(row.expires) {
		delete(s.rows, token)
		return "", auth.ErrInvalidToken
	}
	return row.email, nil
}

func (s *Tokens) Touch(_ context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[token]
	if !ok {
		return auth.ErrInvalidToken
	}
	row.expires = s.now().Add(ttl)
	s.rows[token] = row
	return nil
}

func (s *Tokens) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, token)
	return nil
}

var (
	_ auth.UserStore  = (*Users)(nil)
	_ auth.TokenStore = (*Tokens)(nil)
)
