package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// MaxJSONBody caps every JSON request body. Form submissions are the largest at a few KiB.
const MaxJSONBody = 1 << 20

// DecodeJSON reads a size-limited JSON body into dst. On failure it writes the error
// response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, MaxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return false
	}
	return true
}
