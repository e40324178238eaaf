package roomimage

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"housing/internal/api"
	"housing/internal/upload"
	"housing/pkg/logger"
)

type Handlers struct {
	Store    Store
	Uploader *upload.Uploader
}

type CreateRequest struct {
	ImageURL  string `json:"image_url"`
	IsPrimary bool   `json:"is_primary"`
}

type PatchRequest struct {
	IsPrimary *bool `json:"is_primary"`
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	roomID, ok := api.URLID(r, "id")
	if !ok {
		writeErr(w, r, ErrRoomNotFound)
		return
	}
	imgs, err := h.Store.List(r.Context(), roomID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, imgs)
}

// Create accepts either JSON with an existing image_url or a multipart "file" that is stored first.
func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	roomID, ok := api.URLID(r, "id")
	if !ok {
		writeErr(w, r, ErrRoomNotFound)
		return
	}
	in := NewImage{RoomID: roomID}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if h.Uploader == nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "file uploads are not enabled")
			return
		}
		stored, err := h.Uploader.FromRequest(w, r)
		if err != nil {
			upload.WriteError(w, r, err)
			return
		}
		in.ImageURL = stored.URL
		in.StoragePath = &stored.Path
		in.IsPrimary, _ = strconv.ParseBool(r.FormValue("is_primary"))
	} else {
		var req CreateRequest
		if !api.DecodeJSON(w, r, &req) {
			return
		}
		u, err := url.Parse(strings.TrimSpace(req.ImageURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "image_url must be an http(s) URL")
			return
		}
		in.ImageURL = u.String()
		in.IsPrimary = req.IsPrimary
	}

	img, err := h.Store.Add(r.Context(), actor(r), in)
	if err != nil {
		if in.StoragePath != nil {
			h.removeObject(r, *in.StoragePath)
		}
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, img)
}

func (h Handlers) Patch(w http.ResponseWriter, r *http.Request) {
	roomID, imageID, ok := ids(r)
	if !ok {
		writeErr(w, r, ErrNotFound)
		return
	}
	var req PatchRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if req.IsPrimary == nil || !*req.IsPrimary {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "only is_primary: true is supported; choose another image as primary instead")
		return
	}

	img, err := h.Store.SetPrimary(r.Context(), actor(r), roomID, imageID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, img)
}

func (h Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	roomID, imageID, ok := ids(r)
	if !ok {
		writeErr(w, r, ErrNotFound)
		return
	}
	img, err := h.Store.Delete(r.Context(), actor(r), roomID, imageID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if img.StoragePath != nil {
		h.removeObject(r, *img.StoragePath)
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h Handlers) removeObject(r *http.Request, path string) {
	if h.Uploader == nil {
		return
	}
	if err := h.Uploader.Remove(r.Context(), path); err != nil {
		logger.FromContext(r.Context()).Warn("remove stored image", zap.String("path", path), zap.Error(err))
	}
}

func ids(r *http.Request) (roomID, imageID string, ok bool) {
	if roomID, ok = api.URLID(r, "id"); !ok {
		return "", "", false
	}
	if imageID, ok = api.URLID(r, "imageId"); !ok {
		return "", "", false
	}
	return roomID, imageID, true
}

func actor(r *http.Request) string {
	if id := api.IdentityFromContext(r.Context()); id != nil {
		return id.UserID
	}
	return ""
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "room not found")
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "image not found")
	default:
		logger.FromContext(r.Context()).Error("room image request failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
