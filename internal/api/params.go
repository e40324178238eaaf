package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// URLID returns the named path parameter when it is a well-formed UUID.
// Every stored entity is keyed by UUID, so anything else cannot exist.
func URLID(r *http.Request, name string) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
