package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leja/board-service/internal/apply"
)

const applyColumns = `id, job_id, job_title, company, owner, candidate, candidate_name,
	candidate_email, candidate_tel, candidate_message, created_at, status, message,
	replied_at, unread_for`

// Applies implements apply.Store.
type Applies struct {
	db *sql.DB
}

// NewApplies returns an application store on db.
func NewApplies(db *sql.DB) *Applies { return &Applies{db: db} }

func (s *Applies) CreateApply(ctx context.Context, a *apply.Application) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applies (`+applyColumns+`) VALUES (`+placeholders(15)+`)`,
		a.ID, a.JobID, a.JobTitle, a.Company, a.Owner, a.Candidate, a.CandidateName,
		a.CandidateEmail, a.CandidatePhone, a.CandidateMessage, a.CreatedAt, string(a.Status), a.Message,
		a.RepliedAt, a.UnreadFor,
	)
	if err != nil {
		return fmt.Errorf("create apply: %w", err)
	}
	return nil
}

func (s *Applies) GetApply(ctx context.Context, id string) (*apply.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applyColumns+` FROM applies WHERE id = ?`, id)
	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apply.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get apply: %w", err)
	}
	return &a, nil
}

func (s *Applies) UpdateApply(ctx context.Context, id, owner string, pt apply.Patch) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE applies SET
		   status     = COALESCE(?, status),
		   message    = COALESCE(?, message),
		   replied_at = COALESCE(?, replied_at),
		   unread_for = COALESCE(?, unread_for)
		 WHERE id = ? AND owner = ?`,
		nullStr(pt.Status), nullStr(pt.Message), nullInt(pt.RepliedAt), nullStr(pt.UnreadFor), id, owner,
	)
	if err != nil {
		return fmt.Errorf("update apply: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apply.ErrNotFound
	}
	return nil
}

func (s *Applies) ClearUnread(ctx context.Context, id, forWhom string) (bool, error) {
	if forWhom == "" {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE applies SET unread_for = '' WHERE id = ? AND unread_for = ?`, id, forWhom)
	if err != nil {
		return false, fmt.Errorf("clear unread: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Applies) ListByOwner(ctx context.Context, owner string) ([]apply.Application, error) {
	return s.list(ctx, `SELECT `+applyColumns+` FROM applies WHERE owner = ? ORDER BY created_at DESC, id`, owner)
}

func (s *Applies) ListByCandidate(ctx context.Context, email string) ([]apply.Application, error) {
	return s.list(ctx,
		`SELECT `+applyColumns+` FROM applies
		 WHERE candidate = ? OR candidate_email = ?
		 ORDER BY created_at DESC, id`, email, email)
}

func (s *Applies) list(ctx context.Context, query string, args ...any) ([]apply.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applies: %w", err)
	}
	defer rows.Close()

	out := make([]apply.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan apply: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applies: %w", err)
	}
	return out, nil
}

func scanApplication(row scanner) (apply.Application, error) {
	var (
		a      apply.Application
		status string
	)
	err := row.Scan(
		&a.ID, &a.JobID, &a.JobTitle, &a.Company, &a.Owner, &a.Candidate, &a.CandidateName,
		&a.CandidateEmail, &a.CandidatePhone, &a.CandidateMessage, &a.CreatedAt, &status, &a.Message,
		&a.RepliedAt, &a.UnreadFor,
	)
	a.Status = apply.Status(status)
	return a, err
}

var _ apply.Store = (*Applies)(nil)
