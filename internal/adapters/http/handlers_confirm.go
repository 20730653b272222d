package web

import (
	"database/sql"
	"errors"
	"net/http"

	"clubroster/internal/application/orchestrators"
	"clubroster/internal/domain/member"
)

// confirmView is the data of the confirmation pages.
type confirmView struct {
	Title            string
	Token            string
	MemberName       string
	GuardianName     string
	MarketingConsent bool
	Errors           member.FieldErrors
}

// handleGetConfirmEmail handles GET /confirm-email/{token}. The
// link is public; the token is the credential.
func (a *app) handleGetConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	m, err := a.stores.MemberStore.GetByConfirmationToken(r.Context(), token)
	if err != nil {
		a.confirmError(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "confirm_email.html", confirmView{
		Title:        "Confirm email",
		Token:        token,
		MemberName:   m.FullName(),
		GuardianName: m.LegalGuardianFullName(),
	})
}

// handlePostConfirmEmail handles POST /confirm-email/{token}.
func (a *app) handlePostConfirmEmail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.ConfirmEmailInput{
		Token:            r.PathValue("token"),
		DataOK:           checkbox(r, orchestrators.FieldDataOK),
		BasicConsent:     checkbox(r, orchestrators.FieldBasicConsent),
		MarketingConsent: checkbox(r, orchestrators.FieldMarketingConsent),
	}
	m, err := orchestrators.ExecuteConfirmEmail(r.Context(), input, orchestrators.ConfirmEmailDeps{
		MemberStore: a.stores.MemberStore,
		Now:         a.now,
	})

	var fieldErrs member.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		a.render(w, r, http.StatusUnprocessableEntity, "confirm_email.html", confirmView{
			Title:            "Confirm email",
			Token:            input.Token,
			MemberName:       m.FullName(),
			GuardianName:     m.LegalGuardianFullName(),
			MarketingConsent: input.MarketingConsent,
			Errors:           fieldErrs,
		})
	case err != nil:
		a.confirmError(w, r, err)
	default:
		a.render(w, r, http.StatusOK, "confirm_done.html", confirmView{
			Title:      "Email confirmed",
			MemberName: m.FullName(),
		})
	}
}

func (a *app) confirmError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, member.ErrTokenInvalid) {
		a.render(w, r, http.StatusNotFound, "confirm_done.html", confirmView{Title: "Link not valid"})
		return
	}
	internalError(w, err)
}
