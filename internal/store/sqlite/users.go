package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leja/board-service/internal/auth"
)

// Users implements auth.UserStore.
type Users struct {
	db *sql.DB
}

// NewUsers returns an account store on db.
func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

func (s *Users) CreateUser(ctx context.Context, u *auth.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, display_name, password_hash, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (email) DO NOTHING`,
		u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrEmailTaken
	}
	return nil
}

func (s *Users) GetUser(ctx context.Context, email string) (*auth.User, error) {
	var (
		u         auth.User
		createdMs int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT email, display_name, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.Email, &u.DisplayName, &u.PasswordHash, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &u, nil
}

var _ auth.UserStore = (*Users)(nil)
