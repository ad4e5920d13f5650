package apply

import (
	"context"
	"errors"
)

// Application is a candidate's submission against a posting. Posting title,
// company and owner are copied at submission time and never re-synced.
type Application struct {
	ID               string `json:"id"`
	JobID            string `json:"jobId"`
	JobTitle         string `json:"jobTitle"`
	Company          string `json:"company"`
	Owner            string `json:"owner"`
	Candidate        string `json:"candidate"`
	CandidateName    string `json:"candidateName"`
	CandidateEmail   string `json:"candidateEmail"`
	CandidatePhone   string `json:"candidateTel"`
	CandidateMessage string `json:"candidateMessage"`
	CreatedAt        int64  `json:"createdAt"` // epoch milliseconds
	Status           Status `json:"status"`
	Message          string `json:"message"`             // recruiter reply
	RepliedAt        int64  `json:"repliedAt,omitempty"` // epoch milliseconds, 0 until replied
	UnreadFor        string `json:"unreadFor"`
}

// State returns the tagged state of a.
func (a Application) State() State { return State{Status: a.Status, UnreadFor: a.UnreadFor} }

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Status    *Status
	Message   *string
	RepliedAt *int64
	UnreadFor *string
}

// ApplyTo merges the patch into a.
func (p Patch) ApplyTo(a *Application) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Message != nil {
		a.Message = *p.Message
	}
	if p.RepliedAt != nil {
		a.RepliedAt = *p.RepliedAt
	}
	if p.UnreadFor != nil {
		a.UnreadFor = *p.UnreadFor
	}
}

// Store is the document-store port for applications.
type Store interface {
	// CreateApply inserts a and sets a.ID.
	CreateApply(ctx context.Context, a *Application) error
	// GetApply returns ErrNotFound when id does not exist.
	GetApply(ctx context.Context, id string) (*Application, error)
	// UpdateApply merges patch into application id owned by owner. Returns
	// ErrNotFound when no such application exists.
	UpdateApply(ctx context.Context, id, owner string, patch Patch) error
	// ClearUnread empties the marker of id only when it equals forWhom and
	// reports whether a record changed.
	ClearUnread(ctx context.Context, id, forWhom string) (bool, error)
	// ListByOwner returns owner's applications, newest first.
	ListByOwner(ctx context.Context, owner string) ([]Application, error)
	// ListByCandidate returns applications whose candidate or candidateEmail
	// equals email, without duplicates, newest first.
	ListByCandidate(ctx context.Context, email string) ([]Application, error)
}

// Publisher announces workflow events to back-office consumers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Event channels.
const (
	EventCreated = "EVENT_APPLY_CREATED"
	EventStatus  = "EVENT_APPLY_STATUS"
	EventReplied = "EVENT_APPLY_REPLIED"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when an application is missing or does not belong
// to the caller.
var ErrNotFound = errors.New("application not found")

// ErrPostingClosed is returned when submitting against a deleted or occupied
// posting.
var ErrPostingClosed = errors.New("posting is not accepting applications")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
