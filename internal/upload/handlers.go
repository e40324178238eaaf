package upload

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"housing/internal/api"
	"housing/pkg/logger"
)

type Handlers struct {
	Uploader *Uploader
}

func (h Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	stored, err := h.Uploader.FromRequest(w, r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, stored)
}

// WriteError maps upload failures to API errors.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoFile):
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "file is required")
	case errors.Is(err, ErrUnsupportedType):
		api.WriteError(w, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", ErrUnsupportedType.Error())
	case errors.Is(err, ErrTooLarge):
		api.WriteError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds 5 MiB")
	case errors.Is(err, ErrStorage):
		logger.FromContext(r.Context()).Error("object storage upload", zap.Error(err))
		api.WriteError(w, http.StatusBadGateway, "STORAGE_UNAVAILABLE", "could not store the file")
	default:
		logger.FromContext(r.Context()).Error("upload failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
