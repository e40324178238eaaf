package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"housing/internal/api"
	"housing/internal/identity"
	"housing/pkg/logger"
	"housing/pkg/supabase"
)

// Authenticator is the password slice of the hosted auth API.
type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*identity.Identity, error)
	Forget(ctx context.Context, userID string)
}

type Handlers struct {
	Auth          Authenticator
	Identities    IdentityResolver
	SecureCookies bool
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Decision  identity.Decision `json:"decision"`
	ExpiresIn int               `json:"expiresIn"`
}

// Login signs in with email and password, then runs the admin gate on the new identity.
// A signed-in non-admin is signed out again.
func (h Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "email and password are required")
		return
	}

	ctx := r.Context()
	session, err := h.Auth.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		if supabase.IsStatus(err, http.StatusBadRequest) || supabase.IsStatus(err, http.StatusUnauthorized) {
			api.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
			return
		}
		logger.FromContext(ctx).Error("password sign in", zap.Error(err))
		api.WriteError(w, http.StatusBadGateway, "IDENTITY_UNAVAILABLE", "sign in failed, please try again")
		return
	}

	id, err := h.Identities.Resolve(ctx, session.AccessToken)
	if err != nil {
		logger.FromContext(ctx).Error("resolve signed-in identity", zap.Error(err))
		h.signOut(ctx, session.AccessToken)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve identity")
		return
	}

	d := identity.Admit(id)
	if !d.Admitted() {
		h.signOut(ctx, session.AccessToken)
		api.WriteError(w, d.HTTPStatus(), "FORBIDDEN", "admin role required")
		return
	}

	api.SetSessionCookies(w, session.AccessToken, session.RefreshToken, session.ExpiresIn, h.SecureCookies)
	api.WriteJSON(w, http.StatusOK, LoginResponse{Decision: d, ExpiresIn: session.ExpiresIn})
}

// Logout ends the hosted session and clears the cookies. It succeeds without a session too.
func (h Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token := api.AccessToken(r); token != "" {
		h.signOut(ctx, token)
	}
	if id := api.IdentityFromContext(ctx); id != nil {
		h.Identities.Forget(ctx, id.UserID)
	}
	api.ClearSessionCookies(w, h.SecureCookies)
	api.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Session reports the gate decision for the current request.
func (h Handlers) Session(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, identity.Admit(api.IdentityFromContext(r.Context())))
}

func (h Handlers) signOut(ctx context.Context, token string) {
	if err := h.Auth.SignOut(ctx, token); err != nil {
		logger.FromContext(ctx).Warn("hosted sign out", zap.Error(err))
	}
}
