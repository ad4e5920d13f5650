package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leja/board-service/internal/apply"
)

const applyColumns = `id, job_id, job_title, company, owner, candidate, candidate_name,
	candidate_email, candidate_tel, candidate_message, created_at, status, message,
	replied_at, unread_for`

// Applies implements apply.Store.
type Applies struct {
	pool *pgxpool.Pool
}

// NewApplies returns an application store on pool.
func NewApplies(pool *pgxpool.Pool) *Applies { return &Applies{pool: pool} }

func (s *Applies) CreateApply(ctx context.Context, a *apply.Application) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO applies (`+applyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.JobID, a.JobTitle, a.Company, a.Owner, a.Candidate, a.CandidateName,
		a.CandidateEmail, a.CandidatePhone, a.CandidateMessage, a.CreatedAt, string(a.Status), a.Message,
		a.RepliedAt, a.UnreadFor,
	)
	if err != nil {
		return fmt.Errorf("createApply: %w", err)
	}
	return nil
}

func (s *Applies) GetApply(ctx context.Context, id string) (*apply.Application, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+applyColumns+` FROM applies WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getApply query: %w", err)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanApplication)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apply.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getApply scan: %w", err)
	}
	return &a, nil
}

func (s *Applies) UpdateApply(ctx context.Context, id, owner string, pt apply.Patch) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE applies SET
		   status     = COALESCE($1, status),
		   message    = COALESCE($2, message),
		   replied_at = COALESCE($3, replied_at),
		   unread_for = COALESCE($4, unread_for)
		 WHERE id = $5 AND owner = $6`,
		strPtr(pt.Status), pt.Message, pt.RepliedAt, pt.UnreadFor, id, owner,
	)
	if err != nil {
		return fmt.Errorf("updateApply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apply.ErrNotFound
	}
	return nil
}

func (s *Applies) ClearUnread(ctx context.Context, id, forWhom string) (bool, error) {
	if forWhom == "" {
		return false, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE applies SET unread_for = '' WHERE id = $1 AND unread_for = $2`,
		id, forWhom,
	)
	if err != nil {
		return false, fmt.Errorf("clearUnread: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Applies) ListByOwner(ctx context.Context, owner string) ([]apply.Application, error) {
	return s.list(ctx, `SELECT `+applyColumns+` FROM applies WHERE owner = $1 ORDER BY created_at DESC, id`, owner)
}

func (s *Applies) ListByCandidate(ctx context.Context, email string) ([]apply.Application, error) {
	return s.list(ctx,
		`SELECT `+applyColumns+` FROM applies
		 WHERE candidate = $1 OR candidate_email = $1
		 ORDER BY created_at DESC, id`, email)
}

func (s *Applies) list(ctx context.Context, query string, arg any) ([]apply.Application, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listApplies query: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanApplication)
	if err != nil {
		return nil, fmt.Errorf("listApplies scan: %w", err)
	}
	if out == nil {
		out = []apply.Application{}
	}
	return out, nil
}

func scanApplication(row pgx.CollectableRow) (apply.Application, error) {
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
