package view_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/auth"
	"leja/board-service/internal/catalog"
	"leja/board-service/internal/favorites"
	"leja/board-service/internal/jobs"
	"leja/board-service/internal/prefs"
	"leja/board-service/internal/session"
	"leja/board-service/internal/store/memory"
	"leja/board-service/internal/view"
)

var (
	recruiter = &session.Session{Email: "rh@acme.mx", Role: prefs.RoleRecruiter, Org: "ACME"}
	candidate = &session.Session{Email: "ana@example.com", Role: prefs.RoleCandidate}
)

type fixture struct {
	deps    view.Deps
	jobs    jobs.Store
	applies *memory.Applies
}

func newFixture(t *testing.T, jobStore jobs.Store) *fixture {
	t.Helper()
	if jobStore == nil {
		jobStore = memory.NewJobs()
	}
	cat := catalog.New([]catalog.Region{{ID: "14", Name: "Jalisco", SubRegions: []string{"Zapopan"}}})
	dir := jobs.NewDirectory(jobStore, nil)
	applies := memory.NewApplies()
	return &fixture{
		deps: view.Deps{
			Catalog:   cat,
			Directory: dir,
			Jobs:      jobs.NewService(jobStore, dir, cat, nil),
			Applies:   apply.NewService(applies, nil, nil),
			Favorites: favorites.NewLedger(memory.NewFavorites(), nil),
		},
		jobs:    jobStore,
		applies: applies,
	}
}

func (f *fixture) publish(t *testing.T, title string) *jobs.Posting {
	t.Helper()
	p, err := f.deps.Jobs.Save(context.Background(), recruiter, "", jobs.Draft{
		Title: title, Company: "ACME", RegionID: "14", SubRegion: "Zapopan",
		Type: jobs.TypeFullTime, Salary: 10000, Description: "Descripción",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return p
}

func (f *fixture) apply(t *testing.T, p *jobs.Posting) *apply.Application {
	t.Helper()
	a, err := f.deps.Applies.Submit(context.Background(), candidate, *p, apply.Submission{
		Name: "Ana", Message: strings.Repeat("x", apply.MinMessageLength), AcceptTerms: true,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return a
}

// ── Gates ──────────────────────────────────────────────────────────────────

func TestNavigate_GatedViewsRedirectHome(t *testing.T) {
	f := newFixture(t, nil)
	c := view.NewController(f.deps)
	ctx := context.Background()

	cases := []struct {
		sess *session.Session
		name view.Name
	}{
		{nil, view.Panel},
		{candidate, view.Panel},
		{nil, view.Profile},
	}
	for _, tc := range cases {
		m, err := c.Navigate(ctx, tc.sess, tc.name)
		if err != nil {
			t.Fatalf("Navigate(%s): %v", tc.name, err)
		}
		if m.View != view.Home || m.RedirectedFrom != tc.name || m.Listings == nil {
			t.Errorf("Navigate(%s) = view %s from %q", tc.name, m.View, m.RedirectedFrom)
		}
		if c.Active() != view.Home {
			t.Errorf("Active = %s, want home", c.Active())
		}
	}
}

func TestNavigate_PublishGate(t *testing.T) {
	f := newFixture(t, nil)
	c := view.NewController(f.deps)

	m, _ := c.Navigate(context.Background(), candidate, view.Publish)
	if m.Publish == nil || m.Publish.Allowed {
		t.Errorf("candidate publish model = %+v, want sign-in prompt", m.Publish)
	}
	m, _ = c.Navigate(context.Background(), recruiter, view.Publish)
	if !m.Publish.Allowed || len(m.Publish.Regions) != 1 {
		t.Errorf("recruiter publish model = %+v", m.Publish)
	}
}

// ── Data reloads ───────────────────────────────────────────────────────────

func TestNavigate_ListingsUsesCriteria(t *testing.T) {
	f := newFixture(t, nil)
	f.publish(t, "Panadero")
	f.publish(t, "Soldador")
	c := view.NewController(f.deps)
	c.SetCriteria(jobs.Criteria{Text: "pan"})

	m, err := c.Navigate(context.Background(), nil, view.Listings)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if len(m.Listings.Postings) != 1 || m.Listings.Postings[0].Title != "Panadero" {
		t.Errorf("postings = %+v", m.Listings.Postings)
	}
}

func TestNavigate_PanelLoadsPostingsAndApplications(t *testing.T) {
	f := newFixture(t, nil)
	p := f.publish(t, "Panadero")
	gone := f.publish(t, "Soldador")
	_ = f.deps.Jobs.Delete(context.Background(), recruiter, gone.ID)
	f.apply(t, p)

	m, err := view.NewController(f.deps).Navigate(context.Background(), recruiter, view.Panel)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	pm := m.Panel
	if len(pm.Active) != 1 || len(pm.Deleted) != 1 {
		t.Errorf("active/deleted = %d/%d", len(pm.Active), len(pm.Deleted))
	}
	if len(pm.Applications) != 1 || pm.Counts[p.ID] != 1 || pm.Unread != 1 || pm.Undecided != 1 {
		t.Errorf("panel applications = %d, counts %v, unread %d, undecided %d",
			len(pm.Applications), pm.Counts, pm.Unread, pm.Undecided)
	}
}

func TestNavigate_ProfileAcknowledgesCandidateMarkers(t *testing.T) {
	f := newFixture(t, nil)
	p := f.publish(t, "Panadero")
	a := f.apply(t, p)
	ctx := context.Background()
	if _, err := f.deps.Applies.SetStatus(ctx, recruiter, a.ID, apply.StatusAccepted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := f.deps.Favorites.Toggle(ctx, candidate, p.ID); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	m, err := view.NewController(f.deps).Navigate(ctx, candidate, view.Profile)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	pm := m.Profile
	if len(pm.Favorites) != 1 || pm.Favorites[0].ID != p.ID {
		t.Errorf("favorites = %+v", pm.Favorites)
	}
	if len(pm.Applications) != 1 || pm.Applications[0].UnreadFor != apply.UnreadCandidate {
		t.Errorf("rendered applications = %+v, want the new marker visible", pm.Applications)
	}
	stored, _ := f.applies.GetApply(ctx, a.ID)
	if stored.UnreadFor != "" {
		t.Errorf("stored unreadFor = %q, want acknowledged", stored.UnreadFor)
	}
}

func TestNavigate_ProfileSectionFailureIsIsolated(t *testing.T) {
	f := newFixture(t, nil)
	f.applies.Fail = errors.New("unavailable")

	m, err := view.NewController(f.deps).Navigate(context.Background(), candidate, view.Profile)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if m.Profile.ApplicationsError == "" || m.Profile.FavoritesError != "" {
		t.Errorf("profile errors = %q / %q", m.Profile.FavoritesError, m.Profile.ApplicationsError)
	}
}

// ── Generations ────────────────────────────────────────────────────────────

type blockingJobs struct {
	*memory.Jobs
	entered chan struct{}
	release chan struct{}
}

func (b *blockingJobs) ListByOwner(ctx context.Context, owner string) ([]jobs.Posting, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.Jobs.ListByOwner(ctx, owner)
}

func TestNavigate_StaleCompletionIsDiscarded(t *testing.T) {
	store := &blockingJobs{Jobs: memory.NewJobs(), entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, store)
	c := view.NewController(f.deps)

	var rendered []view.Name
	c.OnRender(func(m view.Model) { rendered = append(rendered, m.View) })

	done := make(chan error, 1)
	go func() {
		_, err := c.Navigate(context.Background(), recruiter, view.Panel)
		done <- err
	}()
	<-store.entered

	if _, err := c.Navigate(context.Background(), recruiter, view.Listings); err != nil {
		t.Fatalf("second Navigate: %v", err)
	}
	close(store.release)

	select {
	case err := <-done:
		if !errors.Is(err, view.ErrStale) {
			t.Errorf("first Navigate error = %v, want ErrStale", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first Navigate did not return")
	}
	if len(rendered) != 1 || rendered[0] != view.Listings {
		t.Errorf("rendered = %v, want only vacantes", rendered)
	}
	if c.Active() != view.Listings {
		t.Errorf("Active = %s", c.Active())
	}
}

type blockingFavorites struct {
	*memory.Favorites
	entered chan struct{}
	release chan struct{}
}

func (b *blockingFavorites) ListFavorites(ctx context.Context, email string) ([]string, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.Favorites.ListFavorites(ctx, email)
}

func TestNavigate_StaleProfileKeepsCandidateMarkers(t *testing.T) {
	f := newFixture(t, nil)
	p := f.publish(t, "Panadero")
	a := f.apply(t, p)
	ctx := context.Background()
	if _, err := f.deps.Applies.SetStatus(ctx, recruiter, a.ID, apply.StatusRejected); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	favs := &blockingFavorites{Favorites: memory.NewFavorites(), entered: make(chan struct{}), release: make(chan struct{})}
	f.deps.Favorites = favorites.NewLedger(favs, nil)
	c := view.NewController(f.deps)

	done := make(chan error, 1)
	go func() {
		_, err := c.Navigate(ctx, candidate, view.Profile)
		done <- err
	}()
	<-favs.entered

	if _, err := c.Navigate(ctx, candidate, view.Listings); err != nil {
		t.Fatalf("second Navigate: %v", err)
	}
	close(favs.release)

	select {
	case err := <-done:
		if !errors.Is(err, view.ErrStale) {
			t.Fatalf("profile Navigate error = %v, want ErrStale", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("profile Navigate did not return")
	}
	stored, _ := f.applies.GetApply(ctx, a.ID)
	if stored.UnreadFor != apply.UnreadCandidate {
		t.Errorf("stored unreadFor = %q, want the marker kept for an unrendered profile", stored.UnreadFor)
	}
}

// ── Open / Current ─────────────────────────────────────────────────────────

func TestCurrent_ReResolvesAfterRefresh(t *testing.T) {
	f := newFixture(t, nil)
	p := f.publish(t, "Panadero")
	c := view.NewController(f.deps)
	c.Open(p.ID)

	if got, ok := c.Current(); !ok || got.Title != "Panadero" {
		t.Fatalf("Current = %+v, %v", got, ok)
	}
	d := jobs.Draft{Title: "Panadero Sr", Company: "ACME", RegionID: "14", SubRegion: "Zapopan",
		Type: jobs.TypeFullTime, Salary: 12000, Description: "Descripción"}
	if _, err := f.deps.Jobs.Save(context.Background(), recruiter, p.ID, d); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got, _ := c.Current(); got.Title != "Panadero Sr" {
		t.Errorf("Current after refresh = %q", got.Title)
	}
	_ = f.deps.Jobs.Delete(context.Background(), recruiter, p.ID)
	if _, ok := c.Current(); ok {
		t.Error("Current still resolves a deleted posting")
	}
}

// ── Sign-in / sign-out ─────────────────────────────────────────────────────

func TestSignedIn_ResumesPendingApply(t *testing.T) {
	f := newFixture(t, nil)
	p := f.publish(t, "Panadero")
	c := view.NewController(f.deps)

	m, err := c.SignedIn(context.Background(), candidate, &prefs.PendingAction{Type: prefs.PendingApply, JobID: p.ID})
	if err != nil {
		t.Fatalf("SignedIn: %v", err)
	}
	if m.View != view.Listings || m.Open == nil || m.Open.ID != p.ID {
		t.Errorf("model = view %s open %+v", m.View, m.Open)
	}

	m, _ = view.NewController(f.deps).SignedIn(context.Background(), recruiter, nil)
	if m.View != view.Panel {
		t.Errorf("recruiter lands on %s, want panel", m.View)
	}
}

func TestRegistry_SignOutLeavesGatedViews(t *testing.T) {
	f := newFixture(t, nil)
	provider := auth.NewService(memory.NewUsers(), memory.NewTokens(), time.Hour)
	reg := view.NewRegistry(f.deps)
	defer reg.Attach(provider)()
	ctx := context.Background()

	_, token, err := provider.SignUp(ctx, auth.Credentials{Email: recruiter.Email, Password: "secreto123"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	c := reg.For("client-1")
	if reg.For("client-1") != c || reg.Len() != 1 {
		t.Fatal("registry did not reuse the controller")
	}
	if _, err := c.Navigate(ctx, recruiter, view.Panel); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	if err := provider.SignOut(ctx, token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if c.Active() != view.Home {
		t.Errorf("Active after sign-out = %s, want home", c.Active())
	}
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	reg := view.NewRegistry(newFixture(t, nil).deps)
	reg.SetLimit(2)

	first := reg.For("a")
	reg.For("b")
	reg.For("a") // a is now the most recent
	reg.For("c")

	if reg.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reg.Len())
	}
	if _, ok := reg.Peek("b"); ok {
		t.Error("b should have been evicted")
	}
	if got, ok := reg.Peek("a"); !ok || got != first {
		t.Error("a should have been kept")
	}

	if _, ok := reg.Peek("unknown"); ok || reg.Len() != 2 {
		t.Error("Peek must not create controllers")
	}
	reg.Forget("a")
	if reg.Len() != 1 {
		t.Errorf("Len after Forget = %d, want 1", reg.Len())
	}
}

func TestParseName(t *testing.T) {
	for _, n := range view.Names {
		if got, err := view.ParseName(string(n)); err != nil || got != n {
			t.Errorf("ParseName(%q) = %q, %v", n, got, err)
		}
	}
	if _, err := view.ParseName("admin"); err == nil {
		t.Error("ParseName(\"admin\") expected error")
	}
}
