package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leja/board-service/internal/jobs"
)

const jobColumns = `id, title, company, owner, type, salary, period, description,
	region_id, region_name, sub_region, location, created_at, status`

// Jobs implements jobs.Store.
type Jobs struct {
	db *sql.DB
}

// NewJobs returns a posting store on db.
func NewJobs(db *sql.DB) *Jobs { return &Jobs{db: db} }

func (s *Jobs) CreateJob(ctx context.Context, p *jobs.Posting) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (`+placeholders(14)+`)`,
		p.ID, p.Title, p.Company, p.Owner, string(p.Type), p.Salary, string(p.Period), p.Description,
		p.RegionID, p.RegionName, p.SubRegion, p.Location, p.CreatedAt, string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *Jobs) UpdateJob(ctx context.Context, id, owner string, pt jobs.Patch) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET
		   title       = COALESCE(?, title),
		   company     = COALESCE(?, company),
		   type        = COALESCE(?, type),
		   salary      = COALESCE(?, salary),
		   period      = COALESCE(?, period),
		   description = COALESCE(?, description),
		   region_id   = COALESCE(?, region_id),
		   region_name = COALESCE(?, region_name),
		   sub_region  = COALESCE(?, sub_region),
		   location    = COALESCE(?, location),
		   created_at  = COALESCE(?, created_at),
		   status      = COALESCE(?, status)
		 WHERE id = ? AND owner = ?`,
		nullStr(pt.Title), nullStr(pt.Company), nullStr(pt.Type), nullInt(pt.Salary), nullStr(pt.Period),
		nullStr(pt.Description), nullStr(pt.RegionID), nullStr(pt.RegionName), nullStr(pt.SubRegion),
		nullStr(pt.Location), nullInt(pt.CreatedAt), nullStr(pt.Status),
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

func (s *Jobs) GetJob(ctx context.Context, id string) (*jobs.Posting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &p, nil
}

func (s *Jobs) ListByOwner(ctx context.Context, owner string) ([]jobs.Posting, error) {
	return s.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE owner = ? ORDER BY created_at DESC, id`, owner)
}

func (s *Jobs) ListByStatus(ctx context.Context, statuses []jobs.Status) ([]jobs.Posting, error) {
	if len(statuses) == 0 {
		return []jobs.Posting{}, nil
	}
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	return s.list(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status IN (`+placeholders(len(statuses))+`) ORDER BY created_at DESC, id`,
		args...)
}

func (s *Jobs) list(ctx context.Context, query string, args ...any) ([]jobs.Posting, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	out := make([]jobs.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanPosting(row scanner) (jobs.Posting, error) {
	var (
		p                   jobs.Posting
		typ, period, status string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Company, &p.Owner, &typ, &p.Salary, &period, &p.Description,
		&p.RegionID, &p.RegionName, &p.SubRegion, &p.Location, &p.CreatedAt, &status,
	)
	p.Type, p.Period, p.Status = jobs.EmploymentType(typ), jobs.PayPeriod(period), jobs.Status(status)
	return p, err
}

var _ jobs.Store = (*Jobs)(nil)
