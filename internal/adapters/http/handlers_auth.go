package web

import (
	"errors"
	"net/http"

	"clubroster/internal/adapters/http/middleware"
	"clubroster/internal/application/orchestrators"
)

// handleGetLogin handles GET /login.
func (a *app) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/members", http.StatusSeeOther)
		return
	}
	a.render(w, r, http.StatusOK, "login.html", map[string]any{"Title": "Sign in"})
}

// handlePostLogin handles POST /login.
func (a *app) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		AccountStore: a.stores.AccountStore,
		Now:          a.now,
	})
	if errors.Is(err, orchestrators.ErrInvalidCredentials) || errors.Is(err, orchestrators.ErrAccountLocked) {
		a.render(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Title": "Sign in",
			"Email": input.Email,
			"Error": err.Error(),
		})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	token, err := a.sessions.Create(result.AccountID, result.Email, result.Role, result.ClubID)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, a.opts.SecureCookies)
	http.Redirect(w, r, "/members", http.StatusSeeOther)
}

// handleLogout handles POST /logout.
func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		a.sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w, a.opts.SecureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleHome handles GET /{$}.
func (a *app) handleHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/members", http.StatusSeeOther)
}
