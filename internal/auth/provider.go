// Package auth is the identity provider: it verifies credentials, issues
// opaque bearer tokens and announces every auth-state transition to its
// subscribers. Subscribers are the only place that learn whether somebody
// signed in or out.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Principal is an authenticated identity.
type Principal struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// User is the stored account record.
type User struct {
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// EventKind names an auth-state transition.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Event is delivered to subscribers on every transition.
type Event struct {
	Kind      EventKind
	Principal Principal
	At        time.Time
}

// Provider is what the rest of the service needs from identity.
type Provider interface {
	SignUp(ctx context.Context, c Credentials) (Principal, string, error)
	SignIn(ctx context.Context, email, password string) (Principal, string, error)
	SignOut(ctx context.Context, token string) error
	// Resolve returns nil without error when token does not name a live session.
	Resolve(ctx context.Context, token string) (*Principal, error)
	Refresh(ctx context.Context, token string) error
	Subscribe(fn func(Event)) (unsubscribe func())
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser returns ErrEmailTaken when the email already exists.
	CreateUser(ctx context.Context, u *User) error
	// GetUser returns ErrUserNotFound when no account matches.
	GetUser(ctx context.Context, email string) (*User, error)
}

// TokenStore maps bearer tokens to principal emails with an expiry.
type TokenStore interface {
	Put(ctx context.Context, token, email string, ttl time.Duration) error
	// Get returns ErrInvalidToken for unknown or expired tokens.
	Get(ctx context.Context, token string) (string, error)
	Touch(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func wrap(op string, err error) error { return fmt.Errorf("auth %s: %w", op, err) }
