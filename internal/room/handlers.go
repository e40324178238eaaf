package room

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"housing/internal/api"
	"housing/internal/upload"
	"housing/pkg/logger"
)

type Handlers struct {
	Store Store
	// Uploader removes stored image objects after a room is deleted. Optional.
	Uploader *upload.Uploader
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	page, err := h.Store.List(r.Context(), f)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, page)
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := api.URLID(r, "id")
	if !ok {
		writeErr(w, r, ErrNotFound)
		return
	}
	room, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, room)
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !api.DecodeJSON(w, r, &in) {
		return
	}
	room, err := New(in)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	created, err := h.Store.Create(r.Context(), actor(r), *room)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, created)
}

func (h Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := api.URLID(r, "id")
	if !ok {
		writeErr(w, r, ErrNotFound)
		return
	}
	var in Input
	if !api.DecodeJSON(w, r, &in) {
		return
	}

	room, err := h.Store.Update(r.Context(), actor(r), id, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, room)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := api.URLID(r, "id")
	if !ok {
		writeErr(w, r, ErrNotFound)
		return
	}

	paths, err := h.Store.Delete(r.Context(), actor(r), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if h.Uploader != nil && len(paths) > 0 {
		if err := h.Uploader.Remove(r.Context(), paths...); err != nil {
			logger.FromContext(r.Context()).Warn("remove images of deleted room",
				zap.String("room_id", id), zap.Strings("paths", paths), zap.Error(err))
		}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{
		Location: strings.ToUpper(strings.TrimSpace(q.Get("location"))),
		RoomType: strings.ToLower(strings.TrimSpace(q.Get("room_type"))),
		Status:   strings.ToLower(strings.TrimSpace(q.Get("status"))),
	}
	if f.Location != "" && !slices.Contains(Locations, f.Location) {
		return f, errors.New("invalid location")
	}
	if f.RoomType != "" && !slices.Contains(Types, f.RoomType) {
		return f, errors.New("invalid room_type")
	}
	if f.Status != "" && !slices.Contains(Statuses, f.Status) {
		return f, errors.New("invalid status")
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

func actor(r *http.Request) string {
	if id := api.IdentityFromContext(r.Context()); id != nil {
		return id.UserID
	}
	return ""
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", ve.Error())
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "room not found")
	default:
		logger.FromContext(r.Context()).Error("room request failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
