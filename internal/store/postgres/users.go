package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leja/board-service/internal/auth"
)

// uniqueViolation is the SQLSTATE for a duplicate key.
const uniqueViolation = "23505"

// Users implements auth.UserStore.
type Users struct {
	pool *pgxpool.Pool
}

// NewUsers returns an account store on pool.
func NewUsers(pool *pgxpool.Pool) *Users { return &Users{pool: pool} }

func (s *Users) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (email, display_name, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return auth.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("createUser: %w", err)
	}
	return nil
}

func (s *Users) GetUser(ctx context.Context, email string) (*auth.User, error) {
	var u auth.User
	err := s.pool.QueryRow(ctx,
		`SELECT email, display_name, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getUser: %w", err)
	}
	return &u, nil
}

var _ auth.UserStore = (*Users)(nil)
