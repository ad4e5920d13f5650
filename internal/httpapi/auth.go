package httpapi

import (
	"context"
	"net/http"
	"strings"

	"leja/board-service/internal/auth"
	"leja/board-service/internal/prefs"
	"leja/board-service/internal/session"
	"leja/board-service/internal/view"
)

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Org         string `json:"org"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token   string               `json:"token"`
	Session *session.Session     `json:"session"`
	Pending *prefs.PendingAction `json:"pending,omitempty"`
	View    *view.Model          `json:"view,omitempty"`
}

// signUp creates the account, records the declared role (and organisation
// for recruiters) and resumes any pending action.
func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decode(w, r, &req) {
		return
	}

	principal, token, err := h.Auth.SignUp(r.Context(), auth.Credentials{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.fail(w, "couldn't create account", err)
		return
	}

	role := prefs.ParseRole(req.Role)
	org := ""
	if role == prefs.RoleRecruiter {
		org = strings.TrimSpace(req.Org)
	}
	h.completeSignIn(w, r, principal, token, role, &org)
}

// signIn verifies credentials and records the role the user declared.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decode(w, r, &req) {
		return
	}

	principal, token, err := h.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, "couldn't sign in", err)
		return
	}
	h.completeSignIn(w, r, principal, token, prefs.ParseRole(req.Role), nil)
}

// completeSignIn stores preferences under the caller's client id, consumes
// the pending action and lands the view controller. A nil org leaves the
// stored organisation untouched.
func (h *Handler) completeSignIn(w http.ResponseWriter, r *http.Request, principal auth.Principal, token string, role prefs.Role, org *string) {
	ctx := r.Context()
	id := strings.TrimSpace(r.Header.Get("x-client-id"))
	if id == "" {
		id = token
	}

	if err := h.Prefs.SetRole(ctx, id, role); err != nil {
		h.fail(w, "couldn't save preferences", err)
		return
	}
	if org != nil {
		if err := h.Prefs.SetOrg(ctx, id, *org); err != nil {
			h.fail(w, "couldn't save preferences", err)
			return
		}
	}
	pending, err := h.Prefs.TakePending(ctx, id)
	if err != nil {
		h.Logger.Warn("take pending action failed", "err", err)
		pending = nil
	}
	values, err := h.Prefs.Load(ctx, id)
	if err != nil {
		h.fail(w, "couldn't load preferences", err)
		return
	}

	sess := session.Compose(&principal, values)
	resp := authResponse{Token: token, Session: sess, Pending: pending}
	if h.Views != nil {
		resp.View = h.land(ctx, h.Views.For(id), sess, pending)
	}
	jsonOK(w, resp)
}

func (h *Handler) land(ctx context.Context, c *view.Controller, sess *session.Session, pending *prefs.PendingAction) *view.Model {
	m, err := c.SignedIn(ctx, sess, pending)
	if err != nil {
		h.Logger.Warn("navigate after sign-in failed", "err", err)
		return nil
	}
	return m
}

// signOut revokes the token and clears the client's role and organisation.
func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		jsonError(w, session.ErrSignInRequired.Error(), http.StatusUnauthorized)
		return
	}
	ctx := r.Context()
	if err := h.Auth.SignOut(ctx, token); err != nil {
		h.fail(w, "couldn't sign out", err)
		return
	}
	id := clientID(r)
	if err := h.Prefs.ClearIdentity(ctx, id); err != nil {
		h.Logger.Warn("clear preferences failed", "err", err)
	}

	resp := map[string]any{"signedOut": true}
	if h.Views != nil {
		if m, err := h.Views.For(id).SignedOut(ctx); err == nil {
			resp["view"] = m
		}
		h.Views.Forget(id)
	}
	jsonOK(w, resp)
}

// refresh extends the lifetime of the caller's token.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		jsonError(w, session.ErrSignInRequired.Error(), http.StatusUnauthorized)
		return
	}
	if err := h.Auth.Refresh(r.Context(), token); err != nil {
		h.fail(w, "couldn't refresh session", err)
		return
	}
	jsonOK(w, map[string]any{"refreshed": true})
}
