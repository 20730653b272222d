package web

import (
	"net/http"

	"clubroster/internal/adapters/http/middleware"
)

// routes registers every handler on a new ServeMux.
func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	auth := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	mux.HandleFunc("GET /{$}", a.handleHome)
	mux.HandleFunc("GET /login", a.handleGetLogin)
	mux.HandleFunc("POST /login", a.handlePostLogin)
	mux.HandleFunc("POST /logout", a.handleLogout)

	// Members
	mux.Handle("GET /members", auth(a.handleMembers))
	mux.Handle("GET /members/add", auth(a.handleGetAddMember))
	mux.Handle("POST /members/add", auth(a.handlePostAddMember))
	mux.Handle("GET /members/{id}/edit", auth(a.handleGetEditMember))
	mux.Handle("POST /members/{id}/edit", auth(a.handlePostEditMember))
	mux.Handle("POST /members/form/fields", auth(a.handleFormFields))
	mux.Handle("POST /members/{id}/deactivate", auth(a.handleSetActive(false)))
	mux.Handle("POST /members/{id}/reactivate", auth(a.handleSetActive(true)))
	mux.Handle("GET /members/search", auth(a.handleSearchMembers))
	mux.Handle("POST /members/import", auth(a.handleImportMembers))

	// Transfers
	mux.Handle("GET /members/transfer-form", auth(a.handleGetTransferForm))
	mux.Handle("POST /members/transfers", auth(a.handlePostTransfer))
	mux.Handle("POST /members/transfers/{id}/approve", auth(a.handleDecideTransfer(approveTransfer)))
	mux.Handle("POST /members/transfers/{id}/revoke", auth(a.handleDecideTransfer(revokeTransfer)))
	mux.Handle("POST /members/transfers/{id}/reject", auth(a.handleDecideTransfer(rejectTransfer)))
	mux.Handle("GET /transfers", auth(a.handleTransfers))

	// Public confirmation link from the e-mail
	mux.HandleFunc("GET /confirm-email/{token}", a.handleGetConfirmEmail)
	mux.HandleFunc("POST /confirm-email/{token}", a.handlePostConfirmEmail)

	mux.HandleFunc("GET /api/birth-number", a.handleBirthNumber)
	mux.Handle("GET /metrics", a.opts.Metrics.Handler())

	return mux
}
