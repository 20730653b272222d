package web

import (
	"errors"
	"net/http"

	"clubroster/internal/domain/agegate"
	"clubroster/internal/domain/birthnumber"
)

// birthNumberResponse is the JSON body of GET /api/birth-number.
type birthNumberResponse struct {
	BirthDate   string `json:"birth_date"`
	Sex         int    `json:"sex"` // 1 female, 2 male
	SexName     string `json:"sex_name"`
	IsAtLeast15 bool   `json:"is_at_least_15"`
}

// apiError is the JSON body of a refused API request.
type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// handleBirthNumber handles GET /api/birth-number?value=&mode=lenient|strict.
// Without mode the server's configured policy applies.
func (a *app) handleBirthNumber(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	policy := a.opts.DecodePolicy
	if mode := q.Get("mode"); mode != "" {
		p, err := birthnumber.ParsePolicy(mode)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		policy = p
	}

	info, err := policy.Decode(q.Get("value"))
	a.opts.Metrics.IncrementDecode(policy.String(), err)
	if err != nil {
		var decodeErr *birthnumber.DecodeError
		if errors.As(err, &decodeErr) {
			writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: decodeErr.Detail, Kind: string(decodeErr.Kind)})
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, birthNumberResponse{
		BirthDate:   info.BirthDate,
		Sex:         int(info.Sex),
		SexName:     info.Sex.String(),
		IsAtLeast15: agegate.IsAtLeastAt(info.BirthDate, agegate.MinimumAge, a.now()),
	})
}
