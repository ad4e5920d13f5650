// Package prefs is the per-client preference store: the declared role, the
// organisation name and the action a signed-out user was attempting. Values
// here are client-asserted hints and are never treated as authority.
package prefs

import (
	"context"
	"encoding/json"
)

// Role tags a client as candidate or recruiter.
type Role string

const (
	RoleCandidate Role = "candidato"
	RoleRecruiter Role = "reclutador"
)

// ParseRole maps a raw value to a Role; anything unknown is a candidate.
func ParseRole(s string) Role {
	if Role(s) == RoleRecruiter {
		return RoleRecruiter
	}
	return RoleCandidate
}

// PendingApply is the only pending action kind.
const PendingApply = "apply"

// PendingAction is what the user tried before being sent to sign in.
type PendingAction struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
}

// Values is everything stored for one client.
type Values struct {
	Role    Role           `json:"role,omitempty"`
	Org     string         `json:"org,omitempty"`
	Pending *PendingAction `json:"pending,omitempty"`
}

// Store persists Values per client id.
type Store interface {
	Load(ctx context.Context, clientID string) (Values, error)
	SetRole(ctx context.Context, clientID string, role Role) error
	SetOrg(ctx context.Context, clientID, org string) error
	SetPending(ctx context.Context, clientID string, p PendingAction) error
	// TakePending returns and clears the pending action, nil if none.
	TakePending(ctx context.Context, clientID string) (*PendingAction, error)
	// ClearIdentity removes role and org (sign-out).
	ClearIdentity(ctx context.Context, clientID string) error
}

// EncodePending serialises p the way the stores keep it.
func EncodePending(p PendingAction) (string, error) {
	b, err := json.Marshal(p)
	return string(b), err
}

// DecodePending is the inverse of EncodePending. Unreadable values are
// treated as absent.
func DecodePending(raw string) *PendingAction {
	if raw == "" {
		return nil
	}
	var p PendingAction
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Type == "" {
		return nil
	}
	return &p
}
