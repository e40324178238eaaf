package intake

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"housing/internal/api"
)

type Handlers struct{}

func (Handlers) Steps(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": Steps})
}

type ValidateStepRequest struct {
	Values map[string]any `json:"values"`
}

// ValidateStep runs the same per-step rules the submission gateway enforces,
// so a client can gate its Next button on them.
func (Handlers) ValidateStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid step")
		return
	}

	var req ValidateStepRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	f, err := FromValues(req.Values)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "UNKNOWN_FIELD", err.Error())
		return
	}
	missing, err := f.MissingFields(step)
	if errors.Is(err, ErrUnknownStep) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "step not found")
		return
	}
	if missing == nil {
		missing = []string{}
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{
		"step":    step,
		"valid":   len(missing) == 0,
		"missing": missing,
	})
}
