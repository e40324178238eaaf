package user

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"housing/internal/api"
	"housing/pkg/logger"
)

type Handlers struct {
	Service *Service
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.Store.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": users})
}

func (h Handlers) Invite(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var req InviteRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	inv, err := h.Service.Invite(r.Context(), actorID, req)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, inv)
}

type PatchRoleRequest struct {
	Role string `json:"role"`
}

func (h Handlers) PatchRole(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	id, ok := api.URLID(r, "id")
	if !ok {
		writeErr(w, r, ErrNotFound)
		return
	}
	var req PatchRoleRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}

	u, err := h.Service.SetRole(r.Context(), actorID, id, req.Role)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, u)
}

func actor(r *http.Request) (string, error) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		return "", errNoActor
	}
	return id.UserID, nil
}

func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", ve.Error())
	case errors.Is(err, ErrDuplicateEmail):
		api.WriteError(w, http.StatusConflict, "DUPLICATE_EMAIL", "a user with this email already exists")
	case errors.Is(err, ErrOwnRole):
		api.WriteError(w, http.StatusConflict, "OWN_ROLE", ErrOwnRole.Error())
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
	case errors.Is(err, errNoActor):
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sign in required")
	case errors.Is(err, ErrIdentity):
		logger.FromContext(r.Context()).Error("hosted auth", zap.Error(err))
		api.WriteError(w, http.StatusBadGateway, "IDENTITY_UNAVAILABLE", "hosted auth request failed")
	default:
		logger.FromContext(r.Context()).Error("user request failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}
