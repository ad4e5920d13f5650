package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/catalog"
	"leja/board-service/internal/favorites"
	"leja/board-service/internal/jobs"
	"leja/board-service/internal/prefs"
	"leja/board-service/internal/session"
)

// ErrStale is returned when a newer navigation started before this one
// finished. Its model is discarded.
var ErrStale = errors.New("navigation superseded")

// Deps are the services a controller reads from.
type Deps struct {
	Catalog   *catalog.Catalog
	Directory *jobs.Directory
	Jobs      *jobs.Service
	Applies   *apply.Service
	Favorites *favorites.Ledger
	Logger    *slog.Logger
}

// Controller tracks one client's active view. Each Navigate takes a new
// generation; only the latest generation renders.
type Controller struct {
	deps Deps

	mu       sync.Mutex
	active   Name
	gen      uint64
	email    string // principal of the last navigation
	criteria jobs.Criteria
	query    apply.OwnerQuery
	openID   string

	rmu       sync.Mutex
	renderers map[int]func(Model)
	nextR     int
}

// NewController starts on the home view.
func NewController(deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Controller{deps: deps, active: Home, renderers: make(map[int]func(Model))}
}

// Active returns the current view.
func (c *Controller) Active() Name {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetCriteria replaces the directory filter used by home and vacantes.
func (c *Controller) SetCriteria(cr jobs.Criteria) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.criteria = cr
}

// SetQuery replaces the panel's application filter.
func (c *Controller) SetQuery(q apply.OwnerQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
}

// Open remembers the posting being viewed by id.
func (c *Controller) Open(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openID = jobID
}

// Current resolves the open posting against the latest directory snapshot.
func (c *Controller) Current() (jobs.Posting, bool) {
	c.mu.Lock()
	id := c.openID
	c.mu.Unlock()
	if id == "" || c.deps.Directory == nil {
		return jobs.Posting{}, false
	}
	return c.deps.Directory.Find(id)
}

// OnRender registers fn for every non-stale model. The returned func
// unregisters it.
func (c *Controller) OnRender(fn func(Model)) func() {
	c.rmu.Lock()
	defer c.rmu.Unlock()
	id := c.nextR
	c.nextR++
	c.renderers[id] = fn
	return func() {
		c.rmu.Lock()
		defer c.rmu.Unlock()
		delete(c.renderers, id)
	}
}

// Navigate activates name and reloads its data. Panel requires a recruiter
// and perfil a session; otherwise the controller lands on home.
func (c *Controller) Navigate(ctx context.Context, sess *session.Session, name Name) (*Model, error) {
	target, from := gate(sess, name)

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.active = target
	c.email = emailOf(sess)
	criteria, query := c.criteria, c.query
	c.mu.Unlock()

	m := &Model{View: target, Generation: gen, RedirectedFrom: from, Session: sess}
	if p, ok := c.Current(); ok {
		m.Open = &p
	}

	switch target {
	case Home, Listings:
		m.Listings = c.listings(criteria)
	case Publish:
		m.Publish = c.publish(sess)
	case Panel:
		m.Panel = c.panel(ctx, sess, query)
	case Profile:
		m.Profile = c.profile(ctx, sess)
	}

	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()
	if stale {
		return nil, ErrStale
	}
	c.render(*m)
	if m.Profile != nil && len(m.Profile.Applications) > 0 {
		c.acknowledge(ctx, sess, m.Profile.Applications)
	}
	return m, nil
}

// SignedIn resumes a pending apply by reopening its posting, then lands a
// recruiter on the panel and a candidate on vacantes.
func (c *Controller) SignedIn(ctx context.Context, sess *session.Session, pending *prefs.PendingAction) (*Model, error) {
	if pending != nil && pending.Type == prefs.PendingApply && pending.JobID != "" && c.deps.Directory != nil {
		if _, ok := c.deps.Directory.Find(pending.JobID); ok {
			c.Open(pending.JobID)
		}
	}
	if sess.IsRecruiter() {
		return c.Navigate(ctx, sess, Panel)
	}
	return c.Navigate(ctx, sess, Listings)
}

// SignedOut forgets the open posting and returns home.
func (c *Controller) SignedOut(ctx context.Context) (*Model, error) {
	c.Open("")
	return c.Navigate(ctx, nil, Home)
}

// gate returns the view to land on and, when redirected, the one asked for.
func gate(sess *session.Session, name Name) (Name, Name) {
	switch name {
	case Panel:
		if session.RequireRecruiter(sess) != nil {
			return Home, name
		}
	case Profile:
		if session.RequireSignedIn(sess) != nil {
			return Home, name
		}
	}
	return name, ""
}

func (c *Controller) listings(cr jobs.Criteria) *ListingsModel {
	lm := &ListingsModel{Criteria: cr, Postings: []jobs.Posting{}}
	if c.deps.Directory == nil {
		return lm
	}
	lm.Postings = c.deps.Directory.Filter(cr)
	lm.Version = c.deps.Directory.Snapshot().Version
	return lm
}

func (c *Controller) publish(sess *session.Session) *PublishModel {
	pm := &PublishModel{Allowed: session.RequireRecruiter(sess) == nil}
	if pm.Allowed && c.deps.Catalog != nil {
		pm.Regions = c.deps.Catalog.Regions()
	}
	return pm
}

func (c *Controller) panel(ctx context.Context, sess *session.Session, q apply.OwnerQuery) *PanelModel {
	pm := &PanelModel{
		Active:       []jobs.Posting{},
		Deleted:      []jobs.Posting{},
		Applications: []apply.Application{},
		Counts:       map[string]int{},
		Query:        q,
	}
	if c.deps.Jobs != nil {
		active, deleted, err := c.deps.Jobs.ListMine(ctx, sess)
		if err != nil {
			c.deps.Logger.Error("load own postings failed", "owner", sess.Email, "err", err)
			pm.Error = "couldn't load your postings"
			return pm
		}
		pm.Active, pm.Deleted = active, deleted
	}
	if c.deps.Applies != nil {
		all, err := c.deps.Applies.ListForOwner(ctx, sess, apply.OwnerQuery{})
		if err != nil {
			c.deps.Logger.Error("load owner applications failed", "owner", sess.Email, "err", err)
			pm.Error = "couldn't load applications"
			return pm
		}
		pm.Counts = apply.CountByJob(all)
		for _, a := range all {
			if a.State().IsUnreadFor(sess.Email) {
				pm.Unread++
			}
			if !apply.IsDecided(a.Status) {
				pm.Undecided++
			}
		}
		pm.Applications = apply.FilterOwner(all, q)
	}
	return pm
}

func (c *Controller) profile(ctx context.Context, sess *session.Session) *ProfileModel {
	pm := &ProfileModel{Email: sess.Email, Role: string(sess.Role), Org: sess.Org}
	if !sess.IsCandidate() {
		return pm
	}

	if c.deps.Favorites != nil {
		ids, err := c.deps.Favorites.List(ctx, sess.Email)
		if err != nil {
			c.deps.Logger.Error("load favorites failed", "email", sess.Email, "err", err)
			pm.FavoritesError = "couldn't load favorites"
		} else {
			var snapshot []jobs.Posting
			if c.deps.Directory != nil {
				snapshot = c.deps.Directory.Snapshot().Postings
			}
			pm.Favorites = favorites.Resolve(ids, snapshot)
		}
	}

	if c.deps.Applies != nil {
		apps, err := c.deps.Applies.ListForCandidate(ctx, sess)
		if err != nil {
			c.deps.Logger.Error("load candidate applications failed", "email", sess.Email, "err", err)
			pm.ApplicationsError = "couldn't load your applications"
			return pm
		}
		// The list keeps its markers so this render can flag new updates;
		// Navigate clears them once the model is current.
		pm.Applications = apps
	}
	return pm
}

// acknowledge clears the candidate markers of a rendered profile.
func (c *Controller) acknowledge(ctx context.Context, sess *session.Session, apps []apply.Application) {
	if _, err := c.deps.Applies.AcknowledgeForCandidate(ctx, apps); err != nil {
		c.deps.Logger.Warn("acknowledge candidate applications failed", "email", sess.Email, "err", err)
	}
}

func (c *Controller) render(m Model) {
	c.rmu.Lock()
	fns := make([]func(Model), 0, len(c.renderers))
	for _, fn := range c.renderers {
		fns = append(fns, fn)
	}
	c.rmu.Unlock()
	for _, fn := range fns {
		fn(m)
	}
}

func (c *Controller) principal() (string, Name) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email, c.active
}

func emailOf(s *session.Session) string {
	if s == nil {
		return ""
	}
	return s.Email
}
