// Package apply defines the application workflow: a tagged state of status
// plus a single-slot unread marker, and the transitions that move it.
//
// Status graph (the recruiter may pick any status at any time):
//
//	pendiente ◄──► aceptado ◄──► rechazado
//	    ▲                            │
//	    └────────────────────────────┘
//
// Unread marker:
//
//	submit            → owner
//	status or reply   → "candidate"
//	read by addressee → ""
package apply

import "fmt"

// Status values stored on every application.
type Status string

const (
	StatusPending  Status = "pendiente"
	StatusAccepted Status = "aceptado"
	StatusRejected Status = "rechazado"
)

// UnreadCandidate is the marker addressed to the applicant. Any other
// non-empty marker is the owning recruiter's email.
const UnreadCandidate = "candidate"

var allStatuses = []Status{StatusPending, StatusAccepted, StatusRejected}

// validTransitions lists every allowed (from → to) pair. Self-transitions are
// allowed: re-selecting a status still notifies the candidate.
var validTransitions = map[Status][]Status{
	StatusPending:  allStatuses,
	StatusAccepted: allStatuses,
	StatusRejected: allStatuses,
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusAccepted, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted.
func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsDecided returns true once the recruiter accepted or rejected.
func IsDecided(s Status) bool { return s == StatusAccepted || s == StatusRejected }

// State is the mutable part of an application.
type State struct {
	Status    Status `json:"status"`
	UnreadFor string `json:"unreadFor"`
}

// Initial is the state of a fresh submission: pending and unread for owner.
func Initial(owner string) State {
	return State{Status: StatusPending, UnreadFor: owner}
}

// WithStatus sets the status and always addresses the candidate, even when
// the status does not change.
func (s State) WithStatus(to Status) State {
	return State{Status: to, UnreadFor: UnreadCandidate}
}

// WithReply addresses the candidate after a recruiter reply.
func (s State) WithReply() State {
	s.UnreadFor = UnreadCandidate
	return s
}

// Acknowledge clears the marker when it is addressed to forWhom. The bool is
// false when nothing changed.
func (s State) Acknowledge(forWhom string) (State, bool) {
	if forWhom == "" || s.UnreadFor != forWhom {
		return s, false
	}
	s.UnreadFor = ""
	return s, true
}

// IsUnreadFor reports whether the marker names who.
func (s State) IsUnreadFor(who string) bool { return who != "" && s.UnreadFor == who }
