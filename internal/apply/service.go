package apply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"leja/board-service/internal/jobs"
	"leja/board-service/internal/session"
)

var validate = validator.New()

// MinMessageLength is the shortest candidate message accepted, counted in
// characters after trimming.
const MinMessageLength = 50

// Submission is the candidate's application form.
type Submission struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	AcceptTerms bool   `json:"acceptTerms" validate:"eq=true"`
}

func (s *Submission) trim() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Message = strings.TrimSpace(s.Message)
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates the application workflow. It never mutates a record
// locally before the store confirmed the write.
type Service struct {
	store  Store
	events Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewService returns a configured Service. events may be nil.
func NewService(store Store, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, events: events, logger: logger, now: time.Now}
}

// Submit files an application against posting. Validation happens before any
// write.
func (s *Service) Submit(ctx context.Context, sess *session.Session, posting jobs.Posting, sub Submission) (*Application, error) {
	if err := session.RequireSignedIn(sess); err != nil {
		return nil, err
	}
	sub.trim()
	if err := validate.Struct(sub); err != nil || utf8.RuneCountInString(sub.Message) < MinMessageLength {
		return nil, &ValidationError{
			Msg: fmt.Sprintf("name, a message of at least %d characters and accepting the terms are required", MinMessageLength),
		}
	}
	if !posting.AcceptsApplications() {
		return nil, ErrPostingClosed
	}

	email := sub.Email
	if email == "" {
		email = sess.Email
	}
	st := Initial(posting.Owner)
	a := &Application{
		JobID:            posting.ID,
		JobTitle:         posting.Title,
		Company:          posting.Company,
		Owner:            posting.Owner,
		Candidate:        sess.Email,
		CandidateName:    sub.Name,
		CandidateEmail:   email,
		CandidatePhone:   sub.Phone,
		CandidateMessage: sub.Message,
		CreatedAt:        s.now().UnixMilli(),
		Status:           st.Status,
		UnreadFor:        st.UnreadFor,
	}
	if err := s.store.CreateApply(ctx, a); err != nil {
		s.logger.Error("create application failed", "jobId", posting.ID, "candidate", sess.Email, "err", err)
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.publish(ctx, EventCreated, map[string]string{
		"applicationId": a.ID,
		"jobId":         a.JobID,
		"owner":         a.Owner,
		"candidate":     a.Candidate,
	})
	return a, nil
}

// ListForOwner returns the recruiter's applications matching q, newest first.
func (s *Service) ListForOwner(ctx context.Context, sess *session.Session, q OwnerQuery) ([]Application, error) {
	if err := session.RequireRecruiter(sess); err != nil {
		return nil, err
	}
	apps, err := s.store.ListByOwner(ctx, sess.Email)
	if err != nil {
		return nil, fmt.Errorf("list owner applications: %w", err)
	}
	sortNewestFirst(apps)
	return FilterOwner(apps, q), nil
}

// ListForCandidate returns every application the caller filed, either as the
// signed-in candidate or under the contact email, newest first.
func (s *Service) ListForCandidate(ctx context.Context, sess *session.Session) ([]Application, error) {
	if err := session.RequireSignedIn(sess); err != nil {
		return nil, err
	}
	apps, err := s.store.ListByCandidate(ctx, sess.Email)
	if err != nil {
		return nil, fmt.Errorf("list candidate applications: %w", err)
	}
	apps = dedupe(apps)
	sortNewestFirst(apps)
	return apps, nil
}

// Get returns an application visible to the caller: the owner or the
// candidate.
func (s *Service) Get(ctx context.Context, sess *session.Session, id string) (*Application, error) {
	if err := session.RequireSignedIn(sess); err != nil {
		return nil, err
	}
	a, err := s.store.GetApply(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Owner != sess.Email && a.Candidate != sess.Email && a.CandidateEmail != sess.Email {
		return nil, ErrNotFound
	}
	return a, nil
}

// OpenForOwner returns the recruiter's application and marks it read when it
// was addressed to them.
func (s *Service) OpenForOwner(ctx context.Context, sess *session.Session, id string) (*Application, error) {
	a, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if a.State().IsUnreadFor(sess.Email) {
		ok, err := s.Acknowledge(ctx, id, sess.Email)
		if err != nil {
			return nil, err
		}
		if ok {
			a.UnreadFor = ""
		}
	}
	return a, nil
}

// SetStatus sets the status of the recruiter's application. The candidate is
// notified even when the status does not change.
func (s *Service) SetStatus(ctx context.Context, sess *session.Session, id string, to Status) (*Application, error) {
	if err := session.RequireRecruiter(sess); err != nil {
		return nil, err
	}
	if _, err := ParseStatus(string(to)); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	a, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	from := a.Status
	if !IsTransitionAllowed(from, to) {
		return nil, &ValidationError{Msg: fmt.Sprintf("transition %s → %s is not allowed", from, to)}
	}

	next := a.State().WithStatus(to)
	patch := Patch{Status: &next.Status, UnreadFor: &next.UnreadFor}
	if err := s.store.UpdateApply(ctx, id, sess.Email, patch); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("set application status failed", "applicationId", id, "status", to, "err", err)
		}
		return nil, fmt.Errorf("set application status: %w", err)
	}
	patch.ApplyTo(a)

	s.publish(ctx, EventStatus, map[string]string{
		"applicationId": id,
		"candidate":     a.Candidate,
		"from":          string(from),
		"to":            string(to),
	})
	return a, nil
}

// Reply stores the recruiter's answer and notifies the candidate.
func (s *Service) Reply(ctx context.Context, sess *session.Session, id, message string) (*Application, error) {
	if err := session.RequireRecruiter(sess); err != nil {
		return nil, err
	}
	a, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	message = strings.TrimSpace(message)
	at := s.now().UnixMilli()
	next := a.State().WithReply()
	patch := Patch{Message: &message, RepliedAt: &at, UnreadFor: &next.UnreadFor}
	if err := s.store.UpdateApply(ctx, id, sess.Email, patch); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("reply to application failed", "applicationId", id, "err", err)
		}
		return nil, fmt.Errorf("reply to application: %w", err)
	}
	patch.ApplyTo(a)

	s.publish(ctx, EventReplied, map[string]string{
		"applicationId": id,
		"candidate":     a.Candidate,
	})
	return a, nil
}

// Acknowledge clears the unread marker of id when it is addressed to forWhom
// and reports whether it did.
func (s *Service) Acknowledge(ctx context.Context, id, forWhom string) (bool, error) {
	if forWhom == "" {
		return false, nil
	}
	ok, err := s.store.ClearUnread(ctx, id, forWhom)
	if err != nil {
		s.logger.Error("acknowledge application failed", "applicationId", id, "err", err)
		return false, fmt.Errorf("acknowledge application: %w", err)
	}
	return ok, nil
}

// AcknowledgeForCandidate clears the candidate marker on every application in
// apps that carries it and returns apps with the markers cleared. It stops at
// the first store failure.
func (s *Service) AcknowledgeForCandidate(ctx context.Context, apps []Application) ([]Application, error) {
	out := make([]Application, len(apps))
	copy(out, apps)
	for i := range out {
		if !out[i].State().IsUnreadFor(UnreadCandidate) {
			continue
		}
		ok, err := s.Acknowledge(ctx, out[i].ID, UnreadCandidate)
		if err != nil {
			return out, err
		}
		if ok {
			out[i].UnreadFor = ""
		}
	}
	return out, nil
}

// owned loads id and checks the caller owns it.
func (s *Service) owned(ctx context.Context, sess *session.Session, id string) (*Application, error) {
	if err := session.RequireRecruiter(sess); err != nil {
		return nil, err
	}
	a, err := s.store.GetApply(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Owner != sess.Email {
		return nil, ErrNotFound
	}
	return a, nil
}

// publish is non-fatal: a failure is logged and the workflow continues.
func (s *Service) publish(ctx context.Context, channel string, fields map[string]string) {
	if s.events == nil {
		return
	}
	fields["type"] = channel
	event, _ := json.Marshal(fields)
	if err := s.events.Publish(ctx, channel, event); err != nil {
		s.logger.Warn("publish "+channel+" failed", "err", err)
	}
}

func sortNewestFirst(apps []Application) {
	sort.SliceStable(apps, func(i, j int) bool { return apps[i].CreatedAt > apps[j].CreatedAt })
}

func dedupe(apps []Application) []Application {
	seen := make(map[string]bool, len(apps))
	out := apps[:0]
	for _, a := range apps {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}
