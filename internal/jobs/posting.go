// Package jobs owns postings: the publish/edit workflow, the in-memory public
// directory and the filter engine that narrows it.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Status is the posting lifecycle. StatusDeleted is a soft-delete marker: the
// record is kept and only hidden.
type Status string

const (
	StatusPublished Status = "publicada"
	StatusOccupied  Status = "ocupada"
	StatusDeleted   Status = "borrada"
)

// PublicStatuses are the statuses the directory lists.
var PublicStatuses = []Status{StatusPublished, StatusOccupied}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPublished, StatusOccupied, StatusDeleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown posting status %q", s)
}

// EmploymentType is the posting category.
type EmploymentType string

const (
	TypeFullTime EmploymentType = "tiempo-completo"
	TypePartTime EmploymentType = "medio-tiempo"
	TypeRemote   EmploymentType = "remoto"
)

// PayPeriod qualifies the salary amount.
type PayPeriod string

const (
	PeriodMonthly  PayPeriod = "Mensual"
	PeriodBiweekly PayPeriod = "Quincenal"
	PeriodWeekly   PayPeriod = "Semanal"
	PeriodHourly   PayPeriod = "Por hora"
)

// ParsePayPeriod defaults an empty value to monthly.
func ParsePayPeriod(s string) (PayPeriod, error) {
	p := PayPeriod(strings.TrimSpace(s))
	switch p {
	case "":
		return PeriodMonthly, nil
	case PeriodMonthly, PeriodBiweekly, PeriodWeekly, PeriodHourly:
		return p, nil
	}
	return "", fmt.Errorf("unknown pay period %q", s)
}

// Posting is a job listing.
type Posting struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Company     string         `json:"company"`
	Owner       string         `json:"owner"`
	Type        EmploymentType `json:"type"`
	Salary      int            `json:"salary"`
	Period      PayPeriod      `json:"period"`
	Description string         `json:"description"`
	RegionID    string         `json:"regionId"`
	RegionName  string         `json:"region"`
	SubRegion   string         `json:"subRegion"`
	Location    string         `json:"location"`
	CreatedAt   int64          `json:"createdAt"` // epoch milliseconds
	Status      Status         `json:"status"`
}

// ComposeLocation builds the "<sub-region>, <region>" label, falling back to
// the region name alone.
func ComposeLocation(subRegion, regionName string) string {
	if subRegion != "" && regionName != "" {
		return subRegion + ", " + regionName
	}
	return regionName
}

// LocationLabel is the label shown for p: the stored label, else the
// sub-region and region joined.
func (p Posting) LocationLabel() string {
	if p.Location != "" {
		return p.Location
	}
	parts := make([]string, 0, 2)
	for _, s := range []string{p.SubRegion, p.RegionName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// AcceptsApplications is false for deleted and occupied postings.
func (p Posting) AcceptsApplications() bool {
	return p.Status != StatusDeleted && p.Status != StatusOccupied
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title       *string
	Company     *string
	Type        *EmploymentType
	Salary      *int
	Period      *PayPeriod
	Description *string
	RegionID    *string
	RegionName  *string
	SubRegion   *string
	Location    *string
	CreatedAt   *int64
	Status      *Status
}

// ApplyTo merges the patch into p.
func (pt Patch) ApplyTo(p *Posting) {
	if pt.Title != nil {
		p.Title = *pt.Title
	}
	if pt.Company != nil {
		p.Company = *pt.Company
	}
	if pt.Type != nil {
		p.Type = *pt.Type
	}
	if pt.Salary != nil {
		p.Salary = *pt.Salary
	}
	if pt.Period != nil {
		p.Period = *pt.Period
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.RegionID != nil {
		p.RegionID = *pt.RegionID
	}
	if pt.RegionName != nil {
		p.RegionName = *pt.RegionName
	}
	if pt.SubRegion != nil {
		p.SubRegion = *pt.SubRegion
	}
	if pt.Location != nil {
		p.Location = *pt.Location
	}
	if pt.CreatedAt != nil {
		p.CreatedAt = *pt.CreatedAt
	}
	if pt.Status != nil {
		p.Status = *pt.Status
	}
}

// Store is the document-store port for postings.
type Store interface {
	// CreateJob inserts p and sets p.ID.
	CreateJob(ctx context.Context, p *Posting) error
	// UpdateJob merges patch into the posting id owned by owner. Returns
	// ErrNotFound when no such posting exists.
	UpdateJob(ctx context.Context, id, owner string, patch Patch) error
	GetJob(ctx context.Context, id string) (*Posting, error)
	// ListByOwner returns owner's postings, newest first.
	ListByOwner(ctx context.Context, owner string) ([]Posting, error)
	// ListByStatus returns postings whose status is in statuses, newest first.
	ListByStatus(ctx context.Context, statuses []Status) ([]Posting, error)
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when a posting is missing or not owned by the caller.
var ErrNotFound = errors.New("posting not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
