// Package session derives the current actor from two inputs: the principal
// the auth provider vouches for and the client's preference values. Identity
// is authoritative; role and organisation are client-asserted.
package session

import (
	"context"
	"errors"
	"fmt"

	"leja/board-service/internal/auth"
	"leja/board-service/internal/prefs"
)

// RoleSourcePreference marks a role read from the preference store.
const RoleSourcePreference = "preference"

// Session is the resolved actor.
type Session struct {
	Email      string     `json:"email"`
	Role       prefs.Role `json:"role"`
	Org        string     `json:"org,omitempty"`
	RoleSource string     `json:"roleSource"`
}

// IsRecruiter reports whether the session declares the recruiter role.
func (s *Session) IsRecruiter() bool { return s != nil && s.Role == prefs.RoleRecruiter }

// IsCandidate reports whether the session declares the candidate role.
func (s *Session) IsCandidate() bool { return s != nil && s.Role == prefs.RoleCandidate }

// Compose builds a Session. It returns nil iff principal is nil and performs
// no I/O.
func Compose(principal *auth.Principal, v prefs.Values) *Session {
	if principal == nil {
		return nil
	}
	role := v.Role
	if role == "" {
		role = prefs.RoleCandidate
	}
	return &Session{
		Email:      principal.Email,
		Role:       role,
		Org:        v.Org,
		RoleSource: RoleSourcePreference,
	}
}

// ─── Gates ───────────────────────────────────────────────────────────────────

var (
	ErrSignInRequired    = errors.New("sign in required")
	ErrRecruiterRequired = errors.New("must be signed in as a recruiter")
	ErrCandidateRequired = errors.New("must be signed in as a candidate")
)

// RequireSignedIn rejects a nil session.
func RequireSignedIn(s *Session) error {
	if s == nil {
		return ErrSignInRequired
	}
	return nil
}

// RequireRecruiter rejects anything but a recruiter session.
func RequireRecruiter(s *Session) error {
	if !s.IsRecruiter() {
		return ErrRecruiterRequired
	}
	return nil
}

// RequireCandidate rejects a nil session. Recruiters may still act as
// candidates, the same way the web client only checked for a signed-in user.
func RequireCandidate(s *Session) error {
	if s == nil {
		return ErrCandidateRequired
	}
	return nil
}

// IsGateError reports whether err came from one of the gates above.
func IsGateError(err error) bool {
	return errors.Is(err, ErrSignInRequired) ||
		errors.Is(err, ErrRecruiterRequired) ||
		errors.Is(err, ErrCandidateRequired)
}

// ─── Resolver ────────────────────────────────────────────────────────────────

// Resolver performs the two reads Compose needs.
type Resolver struct {
	auth  auth.Provider
	prefs prefs.Store
}

// NewResolver returns a Resolver.
func NewResolver(a auth.Provider, p prefs.Store) *Resolver {
	return &Resolver{auth: a, prefs: p}
}

// Resolve returns the session for token, or nil when nobody is signed in.
// clientID selects the preference record; it defaults to the token.
func (r *Resolver) Resolve(ctx context.Context, token, clientID string) (*Session, error) {
	principal, err := r.auth.Resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", err)
	}
	if principal == nil {
		return nil, nil
	}
	if clientID == "" {
		clientID = token
	}
	v, err := r.prefs.Load(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return Compose(principal, v), nil
}
