package web

import (
	"errors"
	"net/http"

	"clubroster/internal/application/orchestrators"
	"clubroster/internal/application/projections"
	"clubroster/internal/domain/transfer"
)

// transferRuleErrors are refusals shown to the agent rather than failures.
var transferRuleErrors = []error{
	transfer.ErrNotInSourceClub,
	transfer.ErrAlreadyInTargetClub,
	transfer.ErrSameClub,
	transfer.ErrNotParty,
	transfer.ErrPendingExists,
	transfer.ErrNotRequestedApprove,
	transfer.ErrNotRequestedRevoke,
	transfer.ErrNotRequestedReject,
	transfer.ErrNotApprovingClub,
	transfer.ErrNotRequestingClub,
}

func isTransferRuleError(err error) bool {
	for _, target := range transferRuleErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// transferFormView is the data of the transfer_form template.
type transferFormView struct {
	Form  projections.TransferForm
	Error string
}

func (a *app) transferDeps() orchestrators.TransferDeps {
	return orchestrators.TransferDeps{
		TransferStore: a.stores.TransferStore,
		MemberStore:   a.stores.MemberStore,
		ClubStore:     a.stores.ClubStore,
		Metrics:       a.opts.Metrics,
		GenerateID:    generateID,
		Now:           a.now,
	}
}

func (a *app) transferForm(r *http.Request, memberID string) (projections.TransferForm, error) {
	return projections.QueryGetTransferForm(r.Context(), memberID, actor(r), projections.GetTransferFormDeps{
		MemberStore: a.stores.MemberStore,
		ClubStore:   a.stores.ClubStore,
	})
}

// handleGetTransferForm handles GET /members/transfer-form[?member_id=].
func (a *app) handleGetTransferForm(w http.ResponseWriter, r *http.Request) {
	form, err := a.transferForm(r, r.URL.Query().Get("member_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	a.renderPartial(w, r, http.StatusOK, "transfer_form", transferFormView{Form: form})
}

// handlePostTransfer handles POST /members/transfers.
func (a *app) handlePostTransfer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	memberID := r.PostFormValue("member_id")
	_, err := orchestrators.ExecuteRequestTransfer(r.Context(), orchestrators.RequestTransferInput{
		MemberID:     memberID,
		SourceClubID: r.PostFormValue("source_club_id"),
		TargetClubID: r.PostFormValue("target_club_id"),
		Actor:        actor(r),
	}, a.transferDeps())

	switch {
	case isTransferRuleError(err):
		form, formErr := a.transferForm(r, memberID)
		if formErr != nil {
			writeError(w, formErr)
			return
		}
		a.renderPartial(w, r, http.StatusUnprocessableEntity, "transfer_form", transferFormView{Form: form, Error: err.Error()})
	case err != nil:
		writeError(w, err)
	default:
		noContent(w, eventTransfersChanged)
	}
}

// handleDecideTransfer handles POST /members/transfers/{id}/approve|revoke|reject.
func (a *app) handleDecideTransfer(decide func(*app, *http.Request, orchestrators.DecideTransferInput) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := decide(a, r, orchestrators.DecideTransferInput{
			TransferID: r.PathValue("id"),
			Actor:      actor(r),
		})
		switch {
		case isTransferRuleError(err):
			http.Error(w, err.Error(), http.StatusConflict)
		case err != nil:
			writeError(w, err)
		default:
			noContent(w, eventTransfersChanged, eventMemberListChanged)
		}
	}
}

func approveTransfer(a *app, r *http.Request, in orchestrators.DecideTransferInput) error {
	_, err := orchestrators.ExecuteApproveTransfer(r.Context(), in, a.transferDeps())
	return err
}

func revokeTransfer(a *app, r *http.Request, in orchestrators.DecideTransferInput) error {
	_, err := orchestrators.ExecuteRevokeTransfer(r.Context(), in, a.transferDeps())
	return err
}

func rejectTransfer(a *app, r *http.Request, in orchestrators.DecideTransferInput) error {
	_, err := orchestrators.ExecuteRejectTransfer(r.Context(), in, a.transferDeps())
	return err
}

// handleTransfers handles GET /transfers: the club's transfer history.
func (a *app) handleTransfers(w http.ResponseWriter, r *http.Request) {
	rows, err := projections.QueryGetClubTransfers(r.Context(), actor(r), projections.GetClubTransfersDeps{
		TransferStore: a.stores.TransferStore,
		MemberStore:   a.stores.MemberStore,
		ClubStore:     a.stores.ClubStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	switch {
	case wantsJSON(r):
		writeJSON(w, http.StatusOK, rows)
	case isHTMXRequest(r):
		a.renderPartial(w, r, http.StatusOK, "transfers_table", rows)
	default:
		a.render(w, r, http.StatusOK, "transfers.html", map[string]any{
			"Title":     "Transfers",
			"Transfers": rows,
		})
	}
}
