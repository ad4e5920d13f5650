package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/auth"
	"leja/board-service/internal/catalog"
	"leja/board-service/internal/favorites"
	"leja/board-service/internal/httpapi"
	"leja/board-service/internal/jobs"
	"leja/board-service/internal/session"
	"leja/board-service/internal/store/memory"
	"leja/board-service/internal/view"
)

type client struct {
	t       *testing.T
	handler http.Handler
	auth    *auth.Service
	views   *view.Registry

	remoteAddr string // overrides httptest's default when set
}

func newClient(t *testing.T, authRate int) *client {
	t.Helper()
	authSvc := auth.NewService(memory.NewUsers(), memory.NewTokens(), time.Hour)
	prefStore := memory.NewPrefs()
	cat := catalog.New([]catalog.Region{{ID: "14", Name: "Jalisco", SubRegions: []string{"Zapopan", "Tlaquepaque"}}})
	jobStore := memory.NewJobs()
	dir := jobs.NewDirectory(jobStore, nil)
	jobSvc := jobs.NewService(jobStore, dir, cat, nil)
	applySvc := apply.NewService(memory.NewApplies(), nil, nil)
	ledger := favorites.NewLedger(memory.NewFavorites(), nil)
	views := view.NewRegistry(view.Deps{
		Catalog:   cat,
		Directory: dir,
		Jobs:      jobSvc,
		Applies:   applySvc,
		Favorites: ledger,
	})
	views.Attach(authSvc)

	h := httpapi.NewHandler(httpapi.Deps{
		Auth:              authSvc,
		Prefs:             prefStore,
		Sessions:          session.NewResolver(authSvc, prefStore),
		Catalog:           cat,
		Directory:         dir,
		Jobs:              jobSvc,
		Applies:           applySvc,
		Favorites:         ledger,
		Views:             views,
		AuthRatePerMinute: authRate,
		Version:           "test",
	})
	return &client{t: t, handler: h.Routes(), auth: authSvc, views: views}
}

// do sends a request and decodes the JSON response into a map.
func (c *client) do(method, path, token, clientID string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if c.remoteAddr != "" {
		req.RemoteAddr = c.remoteAddr
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if clientID != "" {
		req.Header.Set("x-client-id", clientID)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			c.t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (c *client) signUp(email, role, clientID string) (string, map[string]any) {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/auth/signup", "", clientID, map[string]any{
		"email":    email,
		"password": "secreto123",
		"role":     role,
		"org":      "ACME",
	})
	if code != http.StatusOK {
		c.t.Fatalf("signup %s: status %d body %v", email, code, body)
	}
	return body["token"].(string), body
}

func (c *client) publish(token, clientID string) string {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/jobs", token, clientID, map[string]any{
		"title":       "Panadero",
		"company":     "La Espiga",
		"regionId":    "14",
		"subRegion":   "Zapopan",
		"type":        "tiempo-completo",
		"salary":      9000,
		"description": "Turno matutino",
	})
	if code != http.StatusCreated {
		c.t.Fatalf("publish: status %d body %v", code, body)
	}
	return body["id"].(string)
}

func field(m map[string]any, path ...string) any {
	var cur any = m
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[p]
	}
	return cur
}

func listLen(v any) int {
	l, _ := v.([]any)
	return len(l)
}

var applicationBody = map[string]any{
	"name":        "Ana",
	"message":     strings.Repeat("Tengo experiencia en panadería. ", 3),
	"acceptTerms": true,
}

// ── Health and catalog ──────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	c := newClient(t, 30)
	code, body := c.do(http.MethodGet, "/health", "", "", nil)
	if code != http.StatusOK || body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("health = %d %v", code, body)
	}
}

func TestCatalog(t *testing.T) {
	c := newClient(t, 30)
	_, body := c.do(http.MethodGet, "/catalog/regions", "", "", nil)
	if n := listLen(body["regions"]); n != 1 {
		t.Errorf("regions = %d, want 1", n)
	}
	_, body = c.do(http.MethodGet, "/catalog/regions/14/subregions", "", "", nil)
	if n := listLen(body["subRegions"]); n != 2 {
		t.Errorf("subRegions = %d, want 2", n)
	}
	code, body := c.do(http.MethodGet, "/catalog/regions/99/subregions", "", "", nil)
	if code != http.StatusOK || listLen(body["subRegions"]) != 0 {
		t.Errorf("unknown region = %d %v, want 200 with empty list", code, body)
	}
}

// ── Auth ────────────────────────────────────────────────────────────────────

func TestSignUp_RecruiterLandsOnPanel(t *testing.T) {
	c := newClient(t, 30)
	_, body := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	if got := field(body, "session", "role"); got != "reclutador" {
		t.Errorf("session.role = %v", got)
	}
	if got := field(body, "session", "org"); got != "ACME" {
		t.Errorf("session.org = %v", got)
	}
	if got := field(body, "view", "view"); got != string(view.Panel) {
		t.Errorf("view = %v, want panel", got)
	}
}

func TestSignUp_Errors(t *testing.T) {
	c := newClient(t, 30)
	c.signUp("ana@example.com", "candidato", "")

	code, _ := c.do(http.MethodPost, "/auth/signup", "", "", map[string]any{"email": "ana@example.com", "password": "secreto123"})
	if code != http.StatusConflict {
		t.Errorf("duplicate signup = %d, want 409", code)
	}
	code, _ = c.do(http.MethodPost, "/auth/signup", "", "", map[string]any{"email": "x@example.com", "password": "corto"})
	if code != http.StatusBadRequest {
		t.Errorf("short password = %d, want 400", code)
	}
	code, _ = c.do(http.MethodPost, "/auth/signin", "", "", map[string]any{"email": "ana@example.com", "password": "incorrecta"})
	if code != http.StatusUnauthorized {
		t.Errorf("bad credentials = %d, want 401", code)
	}
}

func TestSignOut_RevokesToken(t *testing.T) {
	c := newClient(t, 30)
	token, _ := c.signUp("ana@example.com", "candidato", "cand-client")

	code, body := c.do(http.MethodPost, "/auth/signout", token, "cand-client", nil)
	if code != http.StatusOK || body["signedOut"] != true {
		t.Fatalf("signout = %d %v", code, body)
	}
	if got := field(body, "view", "view"); got != string(view.Home) {
		t.Errorf("view after signout = %v, want home", got)
	}
	code, _ = c.do(http.MethodGet, "/applications/mine", token, "cand-client", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("revoked token = %d, want 401", code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	c := newClient(t, 1)
	body := map[string]any{"email": "nadie@example.com", "password": "secreto123"}
	c.remoteAddr = "198.51.100.7:4000"
	c.do(http.MethodPost, "/auth/signin", "", "", body)
	code, _ := c.do(http.MethodPost, "/auth/signin", "", "", body)
	if code != http.StatusTooManyRequests {
		t.Errorf("second signin = %d, want 429", code)
	}

	c.remoteAddr = "198.51.100.8:4000"
	code, _ = c.do(http.MethodPost, "/auth/signin", "", "", body)
	if code != http.StatusUnauthorized {
		t.Errorf("signin from another address = %d, want 401 (not throttled)", code)
	}
}

func TestRefresh(t *testing.T) {
	c := newClient(t, 30)
	var refreshed []string
	defer c.auth.Subscribe(func(ev auth.Event) {
		if ev.Kind == auth.EventTokenRefreshed {
			refreshed = append(refreshed, ev.Principal.Email)
		}
	})()
	token, _ := c.signUp("ana@example.com", "candidato", "cand-client")

	code, body := c.do(http.MethodPost, "/auth/refresh", token, "cand-client", nil)
	if code != http.StatusOK || body["refreshed"] != true {
		t.Fatalf("refresh = %d %v", code, body)
	}
	if len(refreshed) != 1 || refreshed[0] != "ana@example.com" {
		t.Errorf("refresh events = %v, want one for ana", refreshed)
	}

	code, _ = c.do(http.MethodPost, "/auth/refresh", "unknown-token", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("refresh of unknown token = %d, want 401", code)
	}
	code, _ = c.do(http.MethodPost, "/auth/refresh", "", "", nil)
	if code != http.StatusUnauthorized {
		t.Errorf("refresh without token = %d, want 401", code)
	}
}

func TestControllers_NotCreatedByAnonymousReads(t *testing.T) {
	c := newClient(t, 30)
	for i := 0; i < 50; i++ {
		id := "client-" + strconv.Itoa(i)
		c.do(http.MethodGet, "/jobs?q=x", "", id, nil)
		c.do(http.MethodGet, "/applications/owner", "", id, nil)
	}
	if n := c.views.Len(); n != 0 {
		t.Errorf("registry holds %d controllers after anonymous reads, want 0", n)
	}

	token, _ := c.signUp("ana@example.com", "candidato", "cand-client")
	if n := c.views.Len(); n != 1 {
		t.Fatalf("registry after sign-up = %d, want 1", n)
	}
	c.do(http.MethodPost, "/auth/signout", token, "cand-client", nil)
	if n := c.views.Len(); n != 0 {
		t.Errorf("registry after sign-out = %d, want 0", n)
	}
}

// ── Postings ────────────────────────────────────────────────────────────────

func TestPublishAndFilter(t *testing.T) {
	c := newClient(t, 30)
	rec, _ := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	id := c.publish(rec, "rec-client")

	_, body := c.do(http.MethodGet, "/jobs?q=panadero&city=zapopan&types=tiempo-completo,remoto&min=5000", "", "", nil)
	if n := listLen(body["postings"]); n != 1 {
		t.Fatalf("filtered postings = %d, want 1", n)
	}
	_, body = c.do(http.MethodGet, "/jobs?min=10000", "", "", nil)
	if n := listLen(body["postings"]); n != 0 {
		t.Errorf("min=10000 postings = %d, want 0", n)
	}

	_, body = c.do(http.MethodGet, "/jobs/"+id, "", "", nil)
	if got := body["location"]; got != "Zapopan, Jalisco" {
		t.Errorf("location = %v", got)
	}

	code, _ := c.do(http.MethodDelete, "/jobs/"+id, rec, "rec-client", nil)
	if code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	_, body = c.do(http.MethodGet, "/jobs", "", "", nil)
	if n := listLen(body["postings"]); n != 0 {
		t.Errorf("postings after delete = %d, want 0", n)
	}
}

func TestGetJob_DeletedPostingOnlyForOwner(t *testing.T) {
	c := newClient(t, 30)
	rec, _ := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	other, _ := c.signUp("rh@otra.mx", "reclutador", "other-client")
	id := c.publish(rec, "rec-client")
	if code, _ := c.do(http.MethodDelete, "/jobs/"+id, rec, "rec-client", nil); code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}

	for _, tc := range []struct {
		name, token, client string
	}{
		{"anonymous", "", ""},
		{"other recruiter", other, "other-client"},
	} {
		code, body := c.do(http.MethodGet, "/jobs/"+id, tc.token, tc.client, nil)
		if code != http.StatusNotFound {
			t.Errorf("%s: deleted posting = %d %v, want 404", tc.name, code, body)
		}
	}

	code, body := c.do(http.MethodGet, "/jobs/"+id, rec, "rec-client", nil)
	if code != http.StatusOK || field(body, "posting", "status") != "borrada" {
		t.Errorf("owner: deleted posting = %d %v, want it from the store", code, body)
	}
}

func TestPublish_Gates(t *testing.T) {
	c := newClient(t, 30)
	cand, _ := c.signUp("ana@example.com", "candidato", "cand-client")

	code, _ := c.do(http.MethodPost, "/jobs", cand, "cand-client", map[string]any{"title": "x"})
	if code != http.StatusForbidden {
		t.Errorf("candidate publish = %d, want 403", code)
	}

	rec, _ := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	code, _ = c.do(http.MethodPost, "/jobs", rec, "rec-client", map[string]any{"title": "x"})
	if code != http.StatusBadRequest {
		t.Errorf("incomplete draft = %d, want 400", code)
	}
	code, _ = c.do(http.MethodPut, "/jobs/missing", rec, "rec-client", map[string]any{
		"title": "a", "company": "b", "regionId": "14", "subRegion": "Zapopan",
		"type": "remoto", "salary": 1, "description": "c",
	})
	if code != http.StatusNotFound {
		t.Errorf("update of missing posting = %d, want 404", code)
	}
}

// ── Applying ────────────────────────────────────────────────────────────────

func TestApply_PendingActionResumesAfterSignUp(t *testing.T) {
	c := newClient(t, 30)
	rec, _ := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	id := c.publish(rec, "rec-client")

	code, body := c.do(http.MethodPost, "/jobs/"+id+"/apply", "", "cand-client", applicationBody)
	if code != http.StatusUnauthorized || body["pending"] != true {
		t.Fatalf("anonymous apply = %d %v", code, body)
	}

	cand, body := c.signUp("ana@example.com", "candidato", "cand-client")
	if got := field(body, "pending", "jobId"); got != id {
		t.Errorf("pending.jobId = %v, want %s", got, id)
	}
	if got := field(body, "view", "open", "id"); got != id {
		t.Errorf("view.open.id = %v, want %s", got, id)
	}
	if got := field(body, "view", "view"); got != string(view.Listings) {
		t.Errorf("view = %v, want vacantes", got)
	}

	code, body = c.do(http.MethodPost, "/jobs/"+id+"/apply", cand, "cand-client", applicationBody)
	if code != http.StatusCreated {
		t.Fatalf("apply = %d %v", code, body)
	}
	if body["unreadFor"] != "rh@acme.mx" || body["status"] != "pendiente" {
		t.Errorf("application = %v", body)
	}
}

func TestApply_Validation(t *testing.T) {
	c := newClient(t, 30)
	rec, _ := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	id := c.publish(rec, "rec-client")
	cand, _ := c.signUp("ana@example.com", "candidato", "cand-client")

	code, _ := c.do(http.MethodPost, "/jobs/"+id+"/apply", cand, "cand-client", map[string]any{
		"name": "Ana", "message": "muy corto", "acceptTerms": true,
	})
	if code != http.StatusBadRequest {
		t.Errorf("short message = %d, want 400", code)
	}

	c.do(http.MethodPost, "/jobs/"+id+"/status", rec, "rec-client", map[string]any{"status": "ocupada"})
	code, _ = c.do(http.MethodPost, "/jobs/"+id+"/apply", cand, "cand-client", applicationBody)
	if code != http.StatusConflict {
		t.Errorf("apply to occupied posting = %d, want 409", code)
	}
}

// ── Recruiter workflow ──────────────────────────────────────────────────────

func TestRecruiterWorkflow(t *testing.T) {
	c := newClient(t, 30)
	rec, _ := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	id := c.publish(rec, "rec-client")
	cand, _ := c.signUp("ana@example.com", "candidato", "cand-client")
	_, created := c.do(http.MethodPost, "/jobs/"+id+"/apply", cand, "cand-client", applicationBody)
	appID := created["id"].(string)

	_, body := c.do(http.MethodGet, "/applications/owner?q=ana&status=pendiente", rec, "rec-client", nil)
	if n := listLen(body["applications"]); n != 1 {
		t.Fatalf("owner applications = %d, want 1", n)
	}
	if got := field(body, "counts", id); got != float64(1) {
		t.Errorf("counts[%s] = %v, want 1", id, got)
	}

	_, body = c.do(http.MethodGet, "/applications/"+appID, rec, "rec-client", nil)
	if body["unreadFor"] != "" {
		t.Errorf("unreadFor after owner opened = %v, want empty", body["unreadFor"])
	}

	code, body := c.do(http.MethodPost, "/applications/"+appID+"/status", rec, "rec-client", map[string]any{"status": "aceptado"})
	if code != http.StatusOK || body["unreadFor"] != "candidate" {
		t.Errorf("set status = %d %v", code, body)
	}

	code, body = c.do(http.MethodPost, "/applications/"+appID+"/reply", rec, "rec-client", map[string]any{
		"message":  "Hola Ana",
		"template": 0,
	})
	if code != http.StatusOK || body["message"] != "Hola Ana\n"+apply.ReplyTemplates[0] {
		t.Errorf("reply = %d %v", code, body)
	}

	code, _ = c.do(http.MethodPost, "/applications/"+appID+"/status", cand, "cand-client", map[string]any{"status": "rechazado"})
	if code != http.StatusForbidden {
		t.Errorf("candidate set status = %d, want 403", code)
	}

	_, body = c.do(http.MethodPost, "/applications/"+appID+"/ack", cand, "cand-client", nil)
	if body["acknowledged"] != true {
		t.Errorf("candidate ack = %v", body)
	}
	_, body = c.do(http.MethodGet, "/applications/mine", cand, "cand-client", nil)
	apps, _ := body["applications"].([]any)
	if len(apps) != 1 || apps[0].(map[string]any)["unreadFor"] != "" {
		t.Errorf("mine = %v", body)
	}
}

func TestTemplates_RecruiterOnly(t *testing.T) {
	c := newClient(t, 30)
	code, _ := c.do(http.MethodGet, "/templates", "", "", nil)
	if code != http.StatusForbidden {
		t.Errorf("anonymous templates = %d, want 403", code)
	}
	rec, _ := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	_, body := c.do(http.MethodGet, "/templates", rec, "rec-client", nil)
	if n := listLen(body["templates"]); n != len(apply.ReplyTemplates) {
		t.Errorf("templates = %d", n)
	}
}

// ── Favorites and views ─────────────────────────────────────────────────────

func TestFavorites(t *testing.T) {
	c := newClient(t, 30)
	rec, _ := c.signUp("rh@acme.mx", "reclutador", "rec-client")
	id := c.publish(rec, "rec-client")

	code, body := c.do(http.MethodPost, "/jobs/"+id+"/favorite", "", "", nil)
	if code != http.StatusForbidden || body["error"] != session.ErrCandidateRequired.Error() {
		t.Errorf("anonymous favorite = %d %v", code, body)
	}

	cand, _ := c.signUp("ana@example.com", "candidato", "cand-client")
	_, body = c.do(http.MethodPost, "/jobs/"+id+"/favorite", cand, "cand-client", nil)
	if body["favorite"] != true {
		t.Fatalf("toggle = %v, want favorite", body)
	}
	_, body = c.do(http.MethodGet, "/favorites", cand, "cand-client", nil)
	if n := listLen(body["postings"]); n != 1 {
		t.Errorf("favorites = %d, want 1", n)
	}
	_, body = c.do(http.MethodGet, "/jobs/"+id, cand, "cand-client", nil)
	if body["favorite"] != true {
		t.Errorf("posting favorite flag = %v", body["favorite"])
	}
	_, body = c.do(http.MethodPost, "/jobs/"+id+"/favorite", cand, "cand-client", nil)
	if body["favorite"] != false {
		t.Errorf("second toggle = %v, want not favorite", body)
	}
}

func TestViews(t *testing.T) {
	c := newClient(t, 30)

	code, body := c.do(http.MethodGet, "/views/panel", "", "anon", nil)
	if code != http.StatusOK || body["view"] != "home" || body["redirectedFrom"] != "panel" {
		t.Errorf("anonymous panel = %d %v, want redirect home", code, body)
	}
	code, _ = c.do(http.MethodGet, "/views/nowhere", "", "anon", nil)
	if code != http.StatusNotFound {
		t.Errorf("unknown view = %d, want 404", code)
	}
	code, _ = c.do(http.MethodGet, "/views/home", "", "", nil)
	if code != http.StatusBadRequest {
		t.Errorf("view without client id = %d, want 400", code)
	}

	cand, _ := c.signUp("ana@example.com", "candidato", "cand-client")
	code, body = c.do(http.MethodGet, "/views/perfil", cand, "cand-client", nil)
	if code != http.StatusOK || body["view"] != "perfil" || field(body, "profile", "email") != "ana@example.com" {
		t.Errorf("perfil = %d %v", code, body)
	}
}
