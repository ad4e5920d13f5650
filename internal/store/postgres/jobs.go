package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leja/board-service/internal/jobs"
)

const jobColumns = `id, title, company, owner, type, salary, period, description,
	region_id, region_name, sub_region, location, created_at, status`

// Jobs implements jobs.Store.
type Jobs struct {
	pool *pgxpool.Pool
}

// NewJobs returns a posting store on pool.
func NewJobs(pool *pgxpool.Pool) *Jobs { return &Jobs{pool: pool} }

func (s *Jobs) CreateJob(ctx context.Context, p *jobs.Posting) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.Title, p.Company, p.Owner, string(p.Type), p.Salary, string(p.Period), p.Description,
		p.RegionID, p.RegionName, p.SubRegion, p.Location, p.CreatedAt, string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("createJob: %w", err)
	}
	return nil
}

func (s *Jobs) UpdateJob(ctx context.Context, id, owner string, pt jobs.Patch) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET
		   title       = COALESCE($1, title),
		   company     = COALESCE($2, company),
		   type        = COALESCE($3, type),
		   salary      = COALESCE($4, salary),
		   period      = COALESCE($5, period),
		   description = COALESCE($6, description),
		   region_id   = COALESCE($7, region_id),
		   region_name = COALESCE($8, region_name),
		   sub_region  = COALESCE($9, sub_region),
		   location    = COALESCE($10, location),
		   created_at  = COALESCE($11, created_at),
		   status      = COALESCE($12, status)
		 WHERE id = $13 AND owner = $14`,
		pt.Title, pt.Company, strPtr(pt.Type), pt.Salary, strPtr(pt.Period), pt.Description,
		pt.RegionID, pt.RegionName, pt.SubRegion, pt.Location, pt.CreatedAt, strPtr(pt.Status),
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("updateJob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

func (s *Jobs) GetJob(ctx context.Context, id string) (*jobs.Posting, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getJob query: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPosting)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getJob scan: %w", err)
	}
	return &p, nil
}

func (s *Jobs) ListByOwner(ctx context.Context, owner string) ([]jobs.Posting, error) {
	return s.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE owner = $1 ORDER BY created_at DESC, id`, owner)
}

func (s *Jobs) ListByStatus(ctx context.Context, statuses []jobs.Status) ([]jobs.Posting, error) {
	raw := make([]string, len(statuses))
	for i, st := range statuses {
		raw[i] = string(st)
	}
	return s.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = ANY($1) ORDER BY created_at DESC, id`, raw)
}

func (s *Jobs) list(ctx context.Context, query string, arg any) ([]jobs.Posting, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanPosting)
	if err != nil {
		return nil, fmt.Errorf("listJobs scan: %w", err)
	}
	if out == nil {
		out = []jobs.Posting{}
	}
	return out, nil
}

func scanPosting(row pgx.CollectableRow) (jobs.Posting, error) {
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
