package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"leja/board-service/internal/session"
)

var validate = validator.New()

// RegionNamer resolves a region id to its display name.
type RegionNamer interface {
	RegionName(id string) string
}

// Draft is the publish/edit form.
type Draft struct {
	Title       string         `json:"title" validate:"required"`
	Company     string         `json:"company" validate:"required"`
	RegionID    string         `json:"regionId" validate:"required"`
	SubRegion   string         `json:"subRegion" validate:"required"`
	Type        EmploymentType `json:"type" validate:"required,oneof=tiempo-completo medio-tiempo remoto"`
	Salary      int            `json:"salary" validate:"gt=0"`
	Period      string         `json:"period"`
	Description string         `json:"description" validate:"required"`
}

func (d *Draft) trim() {
	d.Title = strings.TrimSpace(d.Title)
	d.Company = strings.TrimSpace(d.Company)
	d.RegionID = strings.TrimSpace(d.RegionID)
	d.SubRegion = strings.TrimSpace(d.SubRegion)
	d.Description = strings.TrimSpace(d.Description)
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service runs the recruiter side of postings: publish, edit, soft delete and
// status changes. Every write refreshes the directory afterwards.
type Service struct {
	store   Store
	dir     *Directory
	regions RegionNamer
	logger  *slog.Logger
	now     func() time.Time
}

// NewService returns a configured Service.
func NewService(store Store, dir *Directory, regions RegionNamer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, dir: dir, regions: regions, logger: logger, now: time.Now}
}

// Save publishes a new posting when id is empty, otherwise merges the draft
// into the caller's posting id. Either way createdAt is reset to now and the
// status to publicada.
func (s *Service) Save(ctx context.Context, sess *session.Session, id string, d Draft) (*Posting, error) {
	if err := session.RequireRecruiter(sess); err != nil {
		return nil, err
	}
	d.trim()
	if err := validate.Struct(d); err != nil {
		return nil, &ValidationError{Msg: "all fields are required and salary must be greater than zero"}
	}
	period, err := ParsePayPeriod(d.Period)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	regionName := s.regions.RegionName(d.RegionID)
	p := Posting{
		ID:          id,
		Title:       d.Title,
		Company:     d.Company,
		Owner:       sess.Email,
		Type:        d.Type,
		Salary:      d.Salary,
		Period:      period,
		Description: d.Description,
		RegionID:    d.RegionID,
		RegionName:  regionName,
		SubRegion:   d.SubRegion,
		Location:    ComposeLocation(d.SubRegion, regionName),
		CreatedAt:   s.now().UnixMilli(),
		Status:      StatusPublished,
	}

	if id == "" {
		if err := s.store.CreateJob(ctx, &p); err != nil {
			s.logger.Error("create posting failed", "owner", sess.Email, "err", err)
			return nil, fmt.Errorf("create posting: %w", err)
		}
	} else {
		if err := s.store.UpdateJob(ctx, id, sess.Email, draftPatch(p)); err != nil {
			if !errors.Is(err, ErrNotFound) {
				s.logger.Error("update posting failed", "id", id, "owner", sess.Email, "err", err)
			}
			return nil, fmt.Errorf("update posting: %w", err)
		}
	}

	s.refresh(ctx)
	return &p, nil
}

// Delete soft-deletes the caller's posting.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id string) error {
	return s.SetStatus(ctx, sess, id, StatusDeleted)
}

// SetStatus changes the status of the caller's posting.
func (s *Service) SetStatus(ctx context.Context, sess *session.Session, id string, status Status) error {
	if err := session.RequireRecruiter(sess); err != nil {
		return err
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	if err := s.store.UpdateJob(ctx, id, sess.Email, Patch{Status: &status}); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("set posting status failed", "id", id, "status", status, "err", err)
		}
		return fmt.Errorf("set posting status: %w", err)
	}
	s.refresh(ctx)
	return nil
}

// ListMine returns the caller's postings split into active and deleted, both
// newest first.
func (s *Service) ListMine(ctx context.Context, sess *session.Session) (active, deleted []Posting, err error) {
	if err := session.RequireRecruiter(sess); err != nil {
		return nil, nil, err
	}
	all, err := s.store.ListByOwner(ctx, sess.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("list own postings: %w", err)
	}
	active, deleted = make([]Posting, 0, len(all)), make([]Posting, 0)
	for _, p := range all {
		if p.Status == StatusDeleted {
			deleted = append(deleted, p)
		} else {
			active = append(active, p)
		}
	}
	return active, deleted, nil
}

// Get returns a posting from the store, whatever its status.
func (s *Service) Get(ctx context.Context, id string) (*Posting, error) {
	return s.store.GetJob(ctx, id)
}

// refresh reloads the directory; a failure is logged and the write still
// counts as done.
func (s *Service) refresh(ctx context.Context) {
	if s.dir == nil {
		return
	}
	if _, err := s.dir.Refresh(ctx); err != nil {
		s.logger.Warn("directory refresh after write failed", "err", err)
	}
}

func draftPatch(p Posting) Patch {
	return Patch{
		Title:       &p.Title,
		Company:     &p.Company,
		Type:        &p.Type,
		Salary:      &p.Salary,
		Period:      &p.Period,
		Description: &p.Description,
		RegionID:    &p.RegionID,
		RegionName:  &p.RegionName,
		SubRegion:   &p.SubRegion,
		Location:    &p.Location,
		CreatedAt:   &p.CreatedAt,
		Status:      &p.Status,
	}
}
