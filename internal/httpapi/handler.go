// Package httpapi implements the board's HTTP/JSON API.
//
// Callers identify with an "Authorization: Bearer <token>" header and an
// "x-client-id" header naming their preference record (defaults to the
// token).
//
// Routes:
//
//	GET  /health
//	POST /auth/signup | /auth/signin | /auth/signout | /auth/refresh
//	GET  /catalog/regions ; GET /catalog/regions/{id}/subregions
//	GET  /jobs ; POST /jobs/refresh ; GET /jobs/{id}
//	POST /jobs ; PUT /jobs/{id} ; DELETE /jobs/{id} ; POST /jobs/{id}/status
//	POST /jobs/{id}/apply ; POST /jobs/{id}/favorite ; GET /favorites
//	GET  /applications/owner ; GET /applications/mine ; GET /applications/{id}
//	POST /applications/{id}/status | /reply | /ack
//	GET  /views/{name} ; GET /templates
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/auth"
	"leja/board-service/internal/catalog"
	"leja/board-service/internal/favorites"
	"leja/board-service/internal/jobs"
	"leja/board-service/internal/prefs"
	"leja/board-service/internal/session"
	"leja/board-service/internal/view"
)

// Deps are the services the handler routes to.
type Deps struct {
	Auth      auth.Provider
	Prefs     prefs.Store
	Sessions  *session.Resolver
	Catalog   *catalog.Catalog
	Directory *jobs.Directory
	Jobs      *jobs.Service
	Applies   *apply.Service
	Favorites *favorites.Ledger
	Views     *view.Registry

	AuthRatePerMinute int
	Version           string
	Logger            *slog.Logger
}

// Handler holds shared dependencies.
type Handler struct {
	Deps
	authLimits *limiterSet
}

// NewHandler returns a configured Handler.
func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	perMinute := deps.AuthRatePerMinute
	if perMinute < 1 {
		perMinute = 30
	}
	return &Handler{
		Deps:       deps,
		authLimits: newLimiterSet(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// Routes mounts every route on a new mux wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)

	mux.Handle("POST /auth/signup", h.limited(h.signUp))
	mux.Handle("POST /auth/signin", h.limited(h.signIn))
	mux.Handle("POST /auth/signout", h.limited(h.signOut))
	mux.Handle("POST /auth/refresh", h.limited(h.refresh))

	mux.HandleFunc("GET /catalog/regions", h.regions)
	mux.HandleFunc("GET /catalog/regions/{id}/subregions", h.subRegions)

	mux.HandleFunc("GET /jobs", h.listJobs)
	mux.HandleFunc("POST /jobs/refresh", h.refreshJobs)
	mux.HandleFunc("GET /jobs/{id}", h.getJob)
	mux.HandleFunc("POST /jobs", h.createJob)
	mux.HandleFunc("PUT /jobs/{id}", h.updateJob)
	mux.HandleFunc("DELETE /jobs/{id}", h.deleteJob)
	mux.HandleFunc("POST /jobs/{id}/status", h.setJobStatus)
	mux.HandleFunc("POST /jobs/{id}/apply", h.applyToJob)
	mux.HandleFunc("POST /jobs/{id}/favorite", h.toggleFavorite)
	mux.HandleFunc("GET /favorites", h.listFavorites)

	mux.HandleFunc("GET /applications/owner", h.ownerApplications)
	mux.HandleFunc("GET /applications/mine", h.myApplications)
	mux.HandleFunc("GET /applications/{id}", h.getApplication)
	mux.HandleFunc("POST /applications/{id}/status", h.setApplicationStatus)
	mux.HandleFunc("POST /applications/{id}/reply", h.replyApplication)
	mux.HandleFunc("POST /applications/{id}/ack", h.ackApplication)

	mux.HandleFunc("GET /views/{name}", h.navigate)
	mux.HandleFunc("GET /templates", h.templates)

	return withLogging(h.Logger, mux)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]any{
		"status":   "ok",
		"service":  "board-service",
		"version":  h.Version,
		"postings": len(h.Directory.Snapshot().Postings),
	})
}

// limited throttles a route per remote address.
func (h *Handler) limited(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.authLimits.allow(remoteHost(r)) {
			jsonError(w, "too many requests, try again later", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	})
}

// ─── Request identity ────────────────────────────────────────────────────────

func bearerToken(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if len(v) > 7 && strings.EqualFold(v[:7], "Bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

func clientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("x-client-id")); id != "" {
		return id
	}
	return bearerToken(r)
}

// session resolves the caller; nil means nobody is signed in. When ok is
// false the response has already been written.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (sess *session.Session, ok bool) {
	token := bearerToken(r)
	if token == "" {
		return nil, true
	}
	sess, err := h.Sessions.Resolve(r.Context(), token, clientID(r))
	if err != nil {
		h.Logger.Error("resolve session failed", "err", err)
		jsonError(w, "couldn't verify your session", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

// controller returns the caller's existing view controller, nil when the
// client has none. Only navigation and sign-in create controllers.
func (h *Handler) controller(r *http.Request) *view.Controller {
	id := clientID(r)
	if id == "" || h.Views == nil {
		return nil
	}
	c, _ := h.Views.Peek(id)
	return c
}

// ─── Error mapping ───────────────────────────────────────────────────────────

// fail maps a service error to a status code. Backend failures are logged
// and reported with the action notice only.
func (h *Handler) fail(w http.ResponseWriter, notice string, err error) {
	var (
		jve *jobs.ValidationError
		ave *apply.ValidationError
		uve *auth.ValidationError
	)
	switch {
	case errors.Is(err, session.ErrSignInRequired):
		jsonError(w, err.Error(), http.StatusUnauthorized)
	case session.IsGateError(err):
		jsonError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, jobs.ErrNotFound), errors.Is(err, apply.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apply.ErrPostingClosed):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		jsonError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrEmailTaken):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.As(err, &jve):
		jsonError(w, jve.Msg, http.StatusBadRequest)
	case errors.As(err, &ave):
		jsonError(w, ave.Msg, http.StatusBadRequest)
	case errors.As(err, &uve):
		jsonError(w, uve.Msg, http.StatusBadRequest)
	default:
		h.Logger.Error(notice, "err", err)
		jsonError(w, notice, http.StatusInternalServerError)
	}
}

// ─── JSON helpers ────────────────────────────────────────────────────────────

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, http.StatusOK, v)
}

func jsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonStatus(w, code, map[string]string{"error": msg})
}

// ─── Middleware ──────────────────────────────────────────────────────────────

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// ─── Throttling ──────────────────────────────────────────────────────────────

// maxLimiterKeys bounds the limiter table; idle limiters are pruned first.
const maxLimiterKeys = 10000

// limiterSet keeps one token bucket per key.
type limiterSet struct {
	every rate.Limit
	burst int

	mu    sync.Mutex
	byKey map[string]*rate.Limiter
}

func newLimiterSet(every rate.Limit, burst int) *limiterSet {
	return &limiterSet{every: every, burst: burst, byKey: make(map[string]*rate.Limiter)}
}

func (l *limiterSet) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.byKey[key]
	if !ok {
		if len(l.byKey) >= maxLimiterKeys {
			l.pruneLocked()
		}
		lim = rate.NewLimiter(l.every, l.burst)
		l.byKey[key] = lim
	}
	return lim.Allow()
}

// pruneLocked drops limiters whose bucket has refilled; if none has, it
// starts over.
func (l *limiterSet) pruneLocked() {
	for k, lim := range l.byKey {
		if lim.Tokens() >= float64(l.burst) {
			delete(l.byKey, k)
		}
	}
	if len(l.byKey) >= maxLimiterKeys {
		l.byKey = make(map[string]*rate.Limiter)
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
