package web

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"clubroster/internal/application/orchestrators"
)

// maxImportSize caps the uploaded CSV.
const maxImportSize = 5 << 20

// importResultView is the data of the import_result partial.
type importResultView struct {
	Result *orchestrators.ImportMembersResult
	Error  string
}

// handleImportMembers handles POST /members/import. The CSV comes as the
// "file" part of a multipart form or as a text/csv body; dry_run=true only
// validates. htmx requests get the import_result partial, others JSON.
func (a *app) handleImportMembers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid upload"})
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "missing file"})
			return
		}
		defer file.Close()
		src = file
	}

	result, err := orchestrators.ExecuteImportMembers(r.Context(), orchestrators.ImportMembersInput{
		Reader: src,
		Actor:  actor(r),
		ClubID: r.FormValue(formFieldClubID),
		DryRun: r.FormValue("dry_run") == "true",
	}, orchestrators.ImportMembersDeps{
		MemberStore: a.stores.MemberStore,
		ClubStore:   a.stores.ClubStore,
		Metrics:     a.opts.Metrics,
		Rules:       a.opts.Rules,
		GenerateID:  generateID,
		Now:         a.now,
	})
	var verr *orchestrators.ImportMembersValidationError
	switch {
	case errors.As(err, &verr):
		if isHTMXRequest(r) {
			a.renderPartial(w, r, http.StatusUnprocessableEntity, "import_result", importResultView{Error: verr.Message})
			return
		}
		writeJSON(w, http.StatusBadRequest, apiError{Error: verr.Message})
	case err != nil:
		writeError(w, err)
	default:
		if !result.DryRun && result.Created > 0 {
			w.Header().Set("HX-Trigger", eventMemberListChanged)
		}
		if isHTMXRequest(r) {
			a.renderPartial(w, r, http.StatusOK, "import_result", importResultView{Result: &result})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
