package httpapi

import (
	"errors"
	"net/http"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/session"
	"leja/board-service/internal/view"
)

// ownerApplications lists the recruiter's received applications narrowed by
// q, status and job. Counts cover every application, not just the matches.
func (h *Handler) ownerApplications(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := apply.OwnerQuery{Text: q.Get("q"), Status: apply.Status(q.Get("status")), JobID: q.Get("job")}
	if ctl := h.controller(r); ctl != nil {
		ctl.SetQuery(query)
	}

	all, err := h.Applies.ListForOwner(r.Context(), sess, apply.OwnerQuery{})
	if err != nil {
		h.fail(w, "couldn't load applications", err)
		return
	}
	jsonOK(w, map[string]any{
		"applications": apply.FilterOwner(all, query),
		"counts":       apply.CountByJob(all),
	})
}

func (h *Handler) myApplications(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	apps, err := h.Applies.ListForCandidate(r.Context(), sess)
	if err != nil {
		h.fail(w, "couldn't load applications", err)
		return
	}
	jsonOK(w, map[string]any{"applications": apps})
}

// getApplication returns an application to its owner or candidate. The owner
// opening it marks it read.
func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	a, err := h.Applies.Get(r.Context(), sess, id)
	if err == nil && a.Owner == sess.Email {
		a, err = h.Applies.OpenForOwner(r.Context(), sess, id)
	}
	if err != nil {
		h.fail(w, "couldn't load application", err)
		return
	}
	jsonOK(w, a)
}

func (h *Handler) setApplicationStatus(w http.ResponseWriter, r *http.Request) {
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
	a, err := h.Applies.SetStatus(r.Context(), sess, r.PathValue("id"), apply.Status(body.Status))
	if err != nil {
		h.fail(w, "couldn't update application status", err)
		return
	}
	jsonOK(w, a)
}

// replyApplication stores the answer. An optional template is appended to the
// message on its own line.
func (h *Handler) replyApplication(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Message  string `json:"message"`
		Template *int   `json:"template"`
	}
	if !decode(w, r, &body) {
		return
	}
	msg := body.Message
	if body.Template != nil {
		i := *body.Template
		if i < 0 || i >= len(apply.ReplyTemplates) {
			jsonError(w, "unknown reply template", http.StatusBadRequest)
			return
		}
		msg = apply.InsertTemplate(msg, apply.ReplyTemplates[i])
	}

	a, err := h.Applies.Reply(r.Context(), sess, r.PathValue("id"), msg)
	if err != nil {
		h.fail(w, "couldn't send reply", err)
		return
	}
	jsonOK(w, a)
}

// ackApplication clears the caller's unread marker: the owner's own email or
// the candidate marker.
func (h *Handler) ackApplication(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	a, err := h.Applies.Get(r.Context(), sess, id)
	if err != nil {
		h.fail(w, "couldn't update application", err)
		return
	}
	forWhom := apply.UnreadCandidate
	if a.Owner == sess.Email {
		forWhom = sess.Email
	}
	acked, err := h.Applies.Acknowledge(r.Context(), id, forWhom)
	if err != nil {
		h.fail(w, "couldn't update application", err)
		return
	}
	jsonOK(w, map[string]any{"id": id, "acknowledged": acked})
}

// ─── Views ───────────────────────────────────────────────────────────────────

// navigate enters a view for the caller's controller and returns its model.
func (h *Handler) navigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	name, err := view.ParseName(r.PathValue("name"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	id := clientID(r)
	if id == "" || h.Views == nil {
		jsonError(w, "x-client-id header is required", http.StatusBadRequest)
		return
	}
	ctl := h.Views.For(id)

	m, err := ctl.Navigate(r.Context(), sess, name)
	if errors.Is(err, view.ErrStale) {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		h.fail(w, "couldn't load view", err)
		return
	}
	jsonOK(w, m)
}

func (h *Handler) templates(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.RequireRecruiter(sess); err != nil {
		h.fail(w, "couldn't load templates", err)
		return
	}
	jsonOK(w, map[string]any{"templates": apply.ReplyTemplates})
}
