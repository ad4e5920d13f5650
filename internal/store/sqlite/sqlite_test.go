package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/auth"
	"leja/board-service/internal/db"
	"leja/board-service/internal/jobs"
	"leja/board-service/internal/store/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	sqldb, err := db.NewSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { sqldb.Close() })
	if err := sqlite.Migrate(ctx, sqldb); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return sqldb
}

// ── Jobs ───────────────────────────────────────────────────────────────────

func TestJobs_CreateUpdateList(t *testing.T) {
	ctx := context.Background()
	s := sqlite.NewJobs(openDB(t))

	for i, st := range []jobs.Status{jobs.StatusPublished, jobs.StatusOccupied, jobs.StatusDeleted} {
		p := &jobs.Posting{
			Title: "Puesto", Company: "ACME", Owner: "rh@acme.mx", Type: jobs.TypeFullTime,
			Salary: 1000 * (i + 1), Period: jobs.PeriodMonthly, Description: "d",
			CreatedAt: int64(i + 1), Status: st,
		}
		if err := s.CreateJob(ctx, p); err != nil || p.ID == "" {
			t.Fatalf("CreateJob: %v (id %q)", err, p.ID)
		}
	}

	public, err := s.ListByStatus(ctx, jobs.PublicStatuses)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(public) != 2 || public[0].Status != jobs.StatusOccupied || public[1].Status != jobs.StatusPublished {
		t.Errorf("ListByStatus = %+v, want occupied then published", public)
	}

	title := "Panadero"
	if err := s.UpdateJob(ctx, public[0].ID, "rh@acme.mx", jobs.Patch{Title: &title}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	got, err := s.GetJob(ctx, public[0].ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Title != "Panadero" || got.Company != "ACME" || got.Salary != 2000 {
		t.Errorf("after partial update = %+v", got)
	}

	if err := s.UpdateJob(ctx, public[0].ID, "otro@acme.mx", jobs.Patch{Title: &title}); !errors.Is(err, jobs.ErrNotFound) {
		t.Errorf("UpdateJob by non-owner error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, jobs.ErrNotFound) {
		t.Errorf("GetJob(missing) error = %v", err)
	}
	mine, _ := s.ListByOwner(ctx, "rh@acme.mx")
	if len(mine) != 3 {
		t.Errorf("ListByOwner = %d, want 3", len(mine))
	}
}

// ── Applies ────────────────────────────────────────────────────────────────

func TestApplies_Workflow(t *testing.T) {
	ctx := context.Background()
	s := sqlite.NewApplies(openDB(t))

	a := &apply.Application{
		JobID: "j1", JobTitle: "Panadero", Company: "ACME", Owner: "rh@acme.mx",
		Candidate: "ana@example.com", CandidateName: "Ana", CandidateEmail: "ana.contacto@example.com",
		CandidateMessage: "hola", CreatedAt: 1, Status: apply.StatusPending, UnreadFor: "rh@acme.mx",
	}
	if err := s.CreateApply(ctx, a); err != nil {
		t.Fatalf("CreateApply: %v", err)
	}

	ok, err := s.ClearUnread(ctx, a.ID, apply.UnreadCandidate)
	if err != nil || ok {
		t.Errorf("ClearUnread(candidate) = %v, %v; want false", ok, err)
	}
	ok, err = s.ClearUnread(ctx, a.ID, "rh@acme.mx")
	if err != nil || !ok {
		t.Errorf("ClearUnread(owner) = %v, %v; want true", ok, err)
	}

	status, unread := apply.StatusAccepted, apply.UnreadCandidate
	if err := s.UpdateApply(ctx, a.ID, "rh@acme.mx", apply.Patch{Status: &status, UnreadFor: &unread}); err != nil {
		t.Fatalf("UpdateApply: %v", err)
	}
	if err := s.UpdateApply(ctx, a.ID, "otro@acme.mx", apply.Patch{Status: &status}); !errors.Is(err, apply.ErrNotFound) {
		t.Errorf("UpdateApply by non-owner error = %v", err)
	}
	got, _ := s.GetApply(ctx, a.ID)
	if got.Status != apply.StatusAccepted || got.UnreadFor != apply.UnreadCandidate || got.CandidateMessage != "hola" {
		t.Errorf("after update = %+v", got)
	}

	for _, email := range []string{"ana@example.com", "ana.contacto@example.com"} {
		list, err := s.ListByCandidate(ctx, email)
		if err != nil || len(list) != 1 {
			t.Errorf("ListByCandidate(%s) = %d, %v", email, len(list), err)
		}
	}
}

// ── Users ──────────────────────────────────────────────────────────────────

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := sqlite.NewUsers(openDB(t))
	u := &auth.User{Email: "ana@example.com", PasswordHash: "hash", CreatedAt: time.UnixMilli(1700000000000)}

	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, u); !errors.Is(err, auth.ErrEmailTaken) {
		t.Errorf("duplicate CreateUser error = %v, want ErrEmailTaken", err)
	}
	got, err := s.GetUser(ctx, "ana@example.com")
	if err != nil || got.PasswordHash != "hash" || !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("GetUser = %+v, %v", got, err)
	}
	if _, err := s.GetUser(ctx, "nadie@example.com"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("GetUser(missing) error = %v", err)
	}
}
