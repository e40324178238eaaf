package application

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"housing/internal/api"
	"housing/pkg/logger"
)

type Handlers struct {
	Gateway       *Gateway
	Review        *Review
	SecureCookies bool
}

func (h Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Gateway.Submit(r.Context(), api.IdentityFromContext(r.Context()), req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if sub.Session != nil {
		api.SetSessionCookies(w, sub.Session.AccessToken, sub.Session.RefreshToken, sub.Session.ExpiresIn, h.SecureCookies)
	}

	api.WriteJSON(w, http.StatusCreated, sub)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	page, err := h.Review.List(r.Context(), f)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, page)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.URLID(r, "id")
	if !ok {
		h.writeErr(w, r, ErrNotFound)
		return
	}

	d, err := h.Review.Detail(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

type PatchStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (h Handlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := api.URLID(r, "id")
	if !ok {
		h.writeErr(w, r, ErrNotFound)
		return
	}

	var req PatchStatusRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	next, err := ParseStatus(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	app, err := h.Review.Transition(r.Context(), api.IdentityFromContext(r.Context()), id, next, req.Note)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"application": app})
}

func (h Handlers) Export(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	// Build fully before writing headers so a store failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := WriteXLSX(r.Context(), h.Review.Store, f, &buf); err != nil {
		h.writeErr(w, r, err)
		return
	}

	name := fmt.Sprintf("applications-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	var f Filter
	if s := q.Get("status"); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			return f, errors.New("invalid status")
		}
		f.Status = st
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, errors.New("invalid limit")
		}
		f.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, errors.New("invalid offset")
		}
		f.Offset = n
	}
	return f, nil
}

func (h Handlers) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	var te *TransitionError
	switch {
	case errors.As(err, &ve):
		writeValidation(w, ve)
	case errors.Is(err, ErrRoomNotFound):
		api.WriteError(w, http.StatusUnprocessableEntity, "ROOM_NOT_FOUND", "requested room does not exist")
	case errors.As(err, &te):
		api.WriteError(w, http.StatusConflict, "INVALID_STATE_TRANSITION", te.Error())
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "application not found")
	case errors.Is(err, ErrIdentity):
		logger.FromContext(r.Context()).Error("applicant identity", zap.Error(err))
		api.WriteError(w, http.StatusBadGateway, "IDENTITY_UNAVAILABLE", "could not start an applicant session, please try again")
	default:
		logger.FromContext(r.Context()).Error("application request failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

type validationBody struct {
	Error struct {
		Code    string           `json:"code"`
		Message string           `json:"message"`
		Missing map[int][]string `json:"missing,omitempty"`
		Details []string         `json:"details,omitempty"`
	} `json:"error"`
}

func writeValidation(w http.ResponseWriter, ve *ValidationError) {
	var body validationBody
	body.Error.Code = ve.Code
	body.Error.Message = ve.Message
	body.Error.Missing = ve.Missing
	body.Error.Details = ve.Details
	api.WriteJSON(w, http.StatusUnprocessableEntity, body)
}
