package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/favorites"
	"leja/board-service/internal/jobs"
	"leja/board-service/internal/prefs"
	"leja/board-service/internal/session"
)

// ─── Catalog ─────────────────────────────────────────────────────────────────

func (h *Handler) regions(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]any{"regions": h.Catalog.Regions()})
}

// subRegions answers an empty list for unknown regions.
func (h *Handler) subRegions(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]any{"subRegions": h.Catalog.SubRegionsOf(r.PathValue("id"))})
}

// ─── Directory ───────────────────────────────────────────────────────────────

// criteriaFromQuery reads q, loc, city, min, types (comma-separated or
// repeated), region and sub.
func criteriaFromQuery(r *http.Request) jobs.Criteria {
	q := r.URL.Query()
	c := jobs.Criteria{
		Text:      q.Get("q"),
		RegionID:  q.Get("region"),
		SubRegion: q.Get("sub"),
		Location:  q.Get("loc"),
		City:      q.Get("city"),
	}
	if n, err := strconv.Atoi(q.Get("min")); err == nil && n > 0 {
		c.MinSalary = n
	}
	for _, raw := range q["types"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				c.Types = append(c.Types, jobs.EmploymentType(t))
			}
		}
	}
	return c
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	c := criteriaFromQuery(r)
	if ctl := h.controller(r); ctl != nil {
		ctl.SetCriteria(c)
	}
	snap := h.Directory.Snapshot()
	jsonOK(w, map[string]any{
		"postings":    jobs.Filter(snap.Postings, c),
		"version":     snap.Version,
		"refreshedAt": snap.RefreshedAt,
	})
}

func (h *Handler) refreshJobs(w http.ResponseWriter, r *http.Request) {
	postings, err := h.Directory.Refresh(r.Context())
	if err != nil {
		h.fail(w, "couldn't load postings", err)
		return
	}
	jsonOK(w, map[string]any{"postings": postings, "version": h.Directory.Snapshot().Version})
}

// getJob answers from the directory. Postings outside it (deleted ones) are
// only served to their owner. It also marks the posting as the one the client
// has open.
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	p, found := h.Directory.Find(id)
	if !found {
		if sess == nil {
			h.fail(w, "couldn't load posting", jobs.ErrNotFound)
			return
		}
		stored, err := h.Jobs.Get(r.Context(), id)
		if err == nil && stored.Owner != sess.Email {
			err = jobs.ErrNotFound
		}
		if err != nil {
			h.fail(w, "couldn't load posting", err)
			return
		}
		p = *stored
	}
	if ctl := h.controller(r); ctl != nil {
		ctl.Open(p.ID)
	}

	resp := map[string]any{"posting": p, "location": p.LocationLabel()}
	if sess != nil {
		fav, err := h.Favorites.IsFavorite(r.Context(), sess.Email, p.ID)
		if err != nil {
			h.Logger.Warn("read favorite failed", "jobId", p.ID, "err", err)
		}
		resp["favorite"] = fav
	}
	jsonOK(w, resp)
}

// ─── Publishing ──────────────────────────────────────────────────────────────

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	h.saveJob(w, r, "")
}

func (h *Handler) updateJob(w http.ResponseWriter, r *http.Request) {
	h.saveJob(w, r, r.PathValue("id"))
}

func (h *Handler) saveJob(w http.ResponseWriter, r *http.Request, id string) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var d jobs.Draft
	if !decode(w, r, &d) {
		return
	}
	p, err := h.Jobs.Save(r.Context(), sess, id, d)
	if err != nil {
		h.fail(w, "couldn't save posting", err)
		return
	}
	code := http.StatusOK
	if id == "" {
		code = http.StatusCreated
	}
	jsonStatus(w, code, p)
}

func (h *Handler) deleteJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := h.Jobs.Delete(r.Context(), sess, id); err != nil {
		h.fail(w, "couldn't delete posting", err)
		return
	}
	jsonOK(w, map[string]any{"id": id, "status": jobs.StatusDeleted})
}

func (h *Handler) setJobStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	id := r.PathValue("id")
	if err := h.Jobs.SetStatus(r.Context(), sess, id, jobs.Status(body.Status)); err != nil {
		h.fail(w, "couldn't update posting status", err)
		return
	}
	jsonOK(w, map[string]any{"id": id, "status": body.Status})
}

// ─── Applying ────────────────────────────────────────────────────────────────

// applyToJob files an application. A signed-out caller with a client id gets
// the attempt remembered so signing in can resume it.
func (h *Handler) applyToJob(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")

	if sess == nil {
		resp := map[string]any{"error": session.ErrSignInRequired.Error(), "pending": false}
		if cid := clientID(r); cid != "" {
			err := h.Prefs.SetPending(ctx, cid, prefs.PendingAction{Type: prefs.PendingApply, JobID: id})
			if err != nil {
				h.Logger.Warn("store pending action failed", "jobId", id, "err", err)
			} else {
				resp["pending"] = true
			}
		}
		jsonStatus(w, http.StatusUnauthorized, resp)
		return
	}

	var sub apply.Submission
	if !decode(w, r, &sub) {
		return
	}
	posting, err := h.Jobs.Get(ctx, id)
	if err != nil {
		h.fail(w, "couldn't send application", err)
		return
	}
	a, err := h.Applies.Submit(ctx, sess, *posting, sub)
	if err != nil {
		h.fail(w, "couldn't send application", err)
		return
	}
	jsonStatus(w, http.StatusCreated, a)
}

// ─── Favorites ───────────────────────────────────────────────────────────────

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	fav, err := h.Favorites.Toggle(r.Context(), sess, id)
	if err != nil {
		h.fail(w, "couldn't update favorites", err)
		return
	}
	jsonOK(w, map[string]any{"jobId": id, "favorite": fav})
}

// listFavorites returns the bookmarked postings still in the directory.
func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.RequireSignedIn(sess); err != nil {
		h.fail(w, "couldn't load favorites", err)
		return
	}
	ids, err := h.Favorites.List(r.Context(), sess.Email)
	if err != nil {
		h.fail(w, "couldn't load favorites", err)
		return
	}
	jsonOK(w, map[string]any{"postings": favorites.Resolve(ids, h.Directory.Snapshot().Postings)})
}
