package web

import (
	"database/sql"
	"errors"
	"net/http"

	"clubroster/internal/adapters/http/middleware"
	"clubroster/internal/application/formfields"
	"clubroster/internal/application/listutil"
	"clubroster/internal/application/orchestrators"
	"clubroster/internal/application/projections"
	"clubroster/internal/domain/account"
	"clubroster/internal/domain/member"
)

// HX-Trigger events emitted after member changes.
const (
	eventMemberListChanged = "memberListChanged"
	eventTransfersChanged  = "transfersChanged"
)

// actor returns the account of the authenticated session.
// PRE: the route is wrapped in RequireAuth
func actor(r *http.Request) account.Account {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return sess.Actor()
}

// writeError maps orchestrator errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, orchestrators.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		internalError(w, err)
	}
}

// handleMembers handles GET /members: the full page, the table fragment for
// htmx, or JSON for the data grid.
func (a *app) handleMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acting := actor(r)

	params := listutil.ParseListParams(r.URL.Query(), projections.MemberSortColumns, projections.MemberFilterChoices)
	clubID := acting.ClubID
	if requested := r.URL.Query().Get(formFieldClubID); requested != "" && acting.IsAdmin() {
		clubID = requested
	}

	result, err := projections.QueryGetMemberList(ctx, projections.GetMemberListQuery{
		ClubID: clubID,
		Params: params,
	}, projections.GetMemberListDeps{
		MemberStore: a.stores.MemberStore,
		Now:         a.now,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	switch {
	case wantsJSON(r):
		writeJSON(w, http.StatusOK, result)
	case isHTMXRequest(r):
		a.renderPartial(w, r, http.StatusOK, "member_table", result)
	default:
		a.render(w, r, http.StatusOK, "members.html", map[string]any{
			"Title":          "Members",
			"List":           result,
			"PerPageOptions": listutil.PerPageOptions,
		})
	}
}

// formView computes the toggled member form for values.
func (a *app) formView(values map[string]string, trigger formfields.Trigger) memberFormView {
	res := a.fields.Apply(formfields.State{Values: values, Trigger: trigger})
	if trigger == formfields.TriggerLoad || trigger == formfields.TriggerBirthNumberChanged {
		if res.Decoded || res.DecodeErr != nil {
			a.opts.Metrics.IncrementDecode(a.fields.Policy.String(), res.DecodeErr)
		}
	}
	view := memberFormView{
		Values:    res.Values,
		Fields:    res.Fields,
		AtLeast15: res.AtLeast15,
	}
	if res.DecodeErr != nil {
		view.DecodeError = "The birth number could not be read"
	}
	return view
}

func (a *app) addFormView(r *http.Request, values map[string]string, trigger formfields.Trigger) (memberFormView, error) {
	view := a.formView(values, trigger)
	view.Action = "/members/add"
	view.Title = "Add member"
	if actor(r).IsAdmin() {
		clubs, err := a.stores.ClubStore.List(r.Context())
		if err != nil {
			return memberFormView{}, err
		}
		view.Clubs = clubs
		view.Values[formFieldClubID] = values[formFieldClubID]
	}
	return view, nil
}

// handleGetAddMember handles GET /members/add: the empty form as dialog content.
func (a *app) handleGetAddMember(w http.ResponseWriter, r *http.Request) {
	view, err := a.addFormView(r, map[string]string{member.FieldCitizenship: member.CitizenshipCZ}, formfields.TriggerLoad)
	if err != nil {
		internalError(w, err)
		return
	}
	a.renderPartial(w, r, http.StatusOK, "member_form", view)
}

// handlePostAddMember handles POST /members/add.
func (a *app) handlePostAddMember(w http.ResponseWriter, r *http.Request) {
	values, err := parseMemberForm(r)
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	values[formFieldClubID] = r.PostFormValue(formFieldClubID)

	a.saveMember(w, r, "", values, func(errs member.FieldErrors) {
		view, err := a.addFormView(r, values, formfields.TriggerBirthDateBlurred)
		if err != nil {
			internalError(w, err)
			return
		}
		view.Errors = errs
		a.renderPartial(w, r, http.StatusUnprocessableEntity, "member_form", view)
	})
}

func (a *app) editFormView(id string, values map[string]string, trigger formfields.Trigger) memberFormView {
	view := a.formView(values, trigger)
	view.Action = "/members/" + id + "/edit"
	view.Title = "Edit member"
	return view
}

// handleGetEditMember handles GET /members/{id}/edit.
func (a *app) handleGetEditMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, err := a.stores.MemberStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if acting := actor(r); !acting.CanManageClub(m.ClubID) {
		writeError(w, orchestrators.ErrForbidden)
		return
	}
	a.renderPartial(w, r, http.StatusOK, "member_form", a.editFormView(id, memberValues(m), formfields.TriggerLoad))
}

// handlePostEditMember handles POST /members/{id}/edit.
func (a *app) handlePostEditMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	values, err := parseMemberForm(r)
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	a.saveMember(w, r, id, values, func(errs member.FieldErrors) {
		view := a.editFormView(id, values, formfields.TriggerBirthDateBlurred)
		view.Errors = errs
		a.renderPartial(w, r, http.StatusUnprocessableEntity, "member_form", view)
	})
}

// saveMember runs SaveMember and answers 204 on success. Field errors are
// handed to rerender, which re-renders the form with status 422.
func (a *app) saveMember(w http.ResponseWriter, r *http.Request, id string, values map[string]string, rerender func(member.FieldErrors)) {
	draft, parseErrs := parseDraft(values)
	if len(parseErrs) > 0 {
		rerender(parseErrs)
		return
	}

	_, err := orchestrators.ExecuteSaveMember(r.Context(), orchestrators.SaveMemberInput{
		MemberID: id,
		ClubID:   values[formFieldClubID],
		Actor:    actor(r),
		Draft:    draft,
	}, orchestrators.SaveMemberDeps{
		MemberStore:   a.stores.MemberStore,
		ClubStore:     a.stores.ClubStore,
		EmailSender:   a.opts.Sender,
		Metrics:       a.opts.Metrics,
		Rules:         a.opts.Rules,
		BaseURL:       a.opts.BaseURL,
		GenerateID:    generateID,
		GenerateToken: generateID,
		Now:           a.now,
	})
	var fieldErrs member.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		rerender(fieldErrs)
	case err != nil:
		writeError(w, err)
	default:
		noContent(w, eventMemberListChanged)
	}
}

// handleFormFields handles POST /members/form/fields: the htmx round trip
// that re-renders the inputs after a citizenship, birth number or birth
// date change.
func (a *app) handleFormFields(w http.ResponseWriter, r *http.Request) {
	values, err := parseMemberForm(r)
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	view := a.formView(values, formfields.ParseTrigger(r.PostFormValue(formFieldTrigger)))
	if actor(r).IsAdmin() {
		view.Values[formFieldClubID] = r.PostFormValue(formFieldClubID)
	}
	a.renderPartial(w, r, http.StatusOK, "member_fields", view)
}

// handleSetActive handles POST /members/{id}/deactivate and /reactivate.
func (a *app) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := orchestrators.ExecuteSetMemberActive(r.Context(), orchestrators.SetMemberActiveInput{
			MemberID: r.PathValue("id"),
			Active:   active,
			Actor:    actor(r),
		}, orchestrators.SetMemberActiveDeps{MemberStore: a.stores.MemberStore})
		switch {
		case errors.Is(err, member.ErrAlreadyActive), errors.Is(err, member.ErrAlreadyInactive):
			http.Error(w, err.Error(), http.StatusConflict)
		case err != nil:
			writeError(w, err)
		default:
			noContent(w, eventMemberListChanged)
		}
	}
}

// handleSearchMembers handles GET /members/search?q=.
func (a *app) handleSearchMembers(w http.ResponseWriter, r *http.Request) {
	rows, err := projections.QuerySearchMembers(r.Context(), r.URL.Query().Get("q"), projections.SearchMembersDeps{
		MemberStore: a.stores.MemberStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	a.renderPartial(w, r, http.StatusOK, "search_results", rows)
}
