// Package view drives navigation between the board's views and builds the
// JSON models a renderer draws. Entering a view is what reloads its data.
package view

import (
	"fmt"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/catalog"
	"leja/board-service/internal/jobs"
	"leja/board-service/internal/session"
)

// Name identifies a view.
type Name string

const (
	Home     Name = "home"
	Listings Name = "vacantes"
	Publish  Name = "publicar"
	Panel    Name = "panel"
	Profile  Name = "perfil"
)

// Names lists every view.
var Names = []Name{Home, Listings, Publish, Panel, Profile}

// ParseName converts a raw string to a Name.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Model is what one navigation renders. Exactly one of the per-view sections
// is set, matching View.
type Model struct {
	View           Name             `json:"view"`
	Generation     uint64           `json:"generation"`
	RedirectedFrom Name             `json:"redirectedFrom,omitempty"`
	Session        *session.Session `json:"session,omitempty"`
	Open           *jobs.Posting    `json:"open,omitempty"`

	Listings *ListingsModel `json:"listings,omitempty"`
	Publish  *PublishModel  `json:"publish,omitempty"`
	Panel    *PanelModel    `json:"panel,omitempty"`
	Profile  *ProfileModel  `json:"profile,omitempty"`
}

// ListingsModel backs home and vacantes.
type ListingsModel struct {
	Criteria jobs.Criteria  `json:"criteria"`
	Postings []jobs.Posting `json:"postings"`
	Version  uint64         `json:"version"`
}

// PublishModel shows the form when Allowed, otherwise a sign-in prompt.
type PublishModel struct {
	Allowed bool             `json:"allowed"`
	Regions []catalog.Region `json:"regions,omitempty"`
}

// PanelModel is the recruiter dashboard.
type PanelModel struct {
	Active       []jobs.Posting      `json:"active"`
	Deleted      []jobs.Posting      `json:"deleted"`
	Applications []apply.Application `json:"applications"`
	Counts       map[string]int      `json:"counts"`
	Query        apply.OwnerQuery    `json:"query"`
	Unread       int                 `json:"unread"`
	Undecided    int                 `json:"undecided"` // still pendiente
	Error        string              `json:"error,omitempty"`
}

// ProfileModel is the signed-in user's page. Favorites and applications are
// only loaded for candidates; each section fails on its own.
type ProfileModel struct {
	Email             string              `json:"email"`
	Role              string              `json:"role"`
	Org               string              `json:"org,omitempty"`
	Favorites         []jobs.Posting      `json:"favorites,omitempty"`
	FavoritesError    string              `json:"favoritesError,omitempty"`
	Applications      []apply.Application `json:"applications,omitempty"`
	ApplicationsError string              `json:"applicationsError,omitempty"`
}
