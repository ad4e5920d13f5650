package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 8

// Credentials is the sign-up form.
type Credentials struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"min=8"`
	DisplayName string
}

// Service implements Provider on top of a UserStore and a TokenStore.
type Service struct {
	users  UserStore
	tokens TokenStore
	ttl    time.Duration
	hub    hub
	now    func() time.Time
}

// NewService returns a Service issuing tokens valid for ttl.
func NewService(users UserStore, tokens TokenStore, ttl time.Duration) *Service {
	return &Service{users: users, tokens: tokens, ttl: ttl, now: time.Now}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the account and signs it in.
func (s *Service) SignUp(ctx context.Context, c Credentials) (Principal, string, error) {
	c.Email = NormalizeEmail(c.Email)
	c.DisplayName = strings.TrimSpace(c.DisplayName)
	if err := validate.Struct(c); err != nil {
		return Principal{}, "", &ValidationError{Msg: "email and password (at least 8 characters) are required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, "", wrap("hash password", err)
	}

	u := &User{
		Email:        c.Email,
		DisplayName:  c.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Principal{}, "", err
		}
		return Principal{}, "", wrap("create user", err)
	}

	return s.issue(ctx, u)
}

// SignIn verifies the password and issues a new token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Principal, string, error) {
	u, err := s.users.GetUser(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Principal{}, "", ErrInvalidCredentials
		}
		return Principal{}, "", wrap("get user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Principal{}, "", ErrInvalidCredentials
	}
	return s.issue(ctx, u)
}

func (s *Service) issue(ctx context.Context, u *User) (Principal, string, error) {
	token := uuid.NewString()
	if err := s.tokens.Put(ctx, token, u.Email, s.ttl); err != nil {
		return Principal{}, "", wrap("store token", err)
	}
	p := Principal{Email: u.Email, DisplayName: u.DisplayName}
	s.hub.publish(Event{Kind: EventSignedIn, Principal: p, At: s.now()})
	return p, token, nil
}

// SignOut revokes token. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	p, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	if err := s.tokens.Delete(ctx, token); err != nil {
		return wrap("delete token", err)
	}
	s.hub.publish(Event{Kind: EventSignedOut, Principal: *p, At: s.now()})
	return nil
}

// Resolve maps a token to its principal.
func (s *Service) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, nil
	}
	email, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, nil
		}
		return nil, wrap("resolve token", err)
	}

	u, err := s.users.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, wrap("get user", err)
	}
	return &Principal{Email: u.Email, DisplayName: u.DisplayName}, nil
}

// Refresh extends the lifetime of a live token.
func (s *Service) Refresh(ctx context.Context, token string) error {
	p, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrInvalidToken
	}
	if err := s.tokens.Touch(ctx, token, s.ttl); err != nil {
		return wrap("touch token", err)
	}
	s.hub.publish(Event{Kind: EventTokenRefreshed, Principal: *p, At: s.now()})
	return nil
}

// Subscribe registers fn for every auth-state transition.
func (s *Service) Subscribe(fn func(Event)) func() {
	return s.hub.subscribe(fn)
}

var _ Provider = (*Service)(nil)
