package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"housing/internal/identity"
	"housing/pkg/logger"
	"housing/pkg/supabase"
)

// IdentityAdmin is the service-role slice of the hosted auth API.
type IdentityAdmin interface {
	AdminCreateUser(ctx context.Context, p supabase.CreateUserParams) (*supabase.User, error)
	AdminDeleteUser(ctx context.Context, userID string) error
	GenerateRecoveryLink(ctx context.Context, email, redirectTo string) (string, error)
}

// RoleCache drops a cached role so the next request sees the change.
type RoleCache interface {
	Forget(ctx context.Context, userID string)
}

type Service struct {
	Store            Store
	Identities       IdentityAdmin
	Roles            RoleCache
	RecoveryRedirect string
}

type InviteRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type Invitation struct {
	User *User `json:"user"`
	// RecoveryLink lets the invitee choose a password. Empty when the link could not be generated.
	RecoveryLink string `json:"recoveryLink,omitempty"`
}

// Invite creates the hosted identity and the staff row together. If the row cannot be written
// the identity is deleted again.
func (s *Service) Invite(ctx context.Context, actorID string, req InviteRequest) (*Invitation, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	email := strings.ToLower(addr.Address)

	role := identity.RoleUser
	if req.Role != "" {
		if role, err = identity.ParseRole(req.Role); err != nil {
			return nil, ValidationError{Field: "role", Message: "must be admin, moderator or user"}
		}
	}

	taken, err := s.Store.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	password, err := temporaryPassword()
	if err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(req.FullName)
	created, err := s.Identities.AdminCreateUser(ctx, supabase.CreateUserParams{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: map[string]any{"full_name": fullName},
	})
	if err != nil {
		if supabase.IsStatus(err, http.StatusUnprocessableEntity) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("%w: %v", ErrIdentity, err)
	}

	u, err := s.Store.Insert(ctx, actorID, User{ID: created.ID, Email: email, FullName: fullName, Role: role})
	if err != nil {
		if derr := s.Identities.AdminDeleteUser(ctx, created.ID); derr != nil {
			logger.FromContext(ctx).Error("roll back invited identity",
				zap.String("user_id", created.ID), zap.Error(derr))
		}
		return nil, err
	}

	inv := &Invitation{User: u}
	link, err := s.Identities.GenerateRecoveryLink(ctx, email, s.RecoveryRedirect)
	if err != nil {
		logger.FromContext(ctx).Warn("generate recovery link", zap.String("user_id", u.ID), zap.Error(err))
		return inv, nil
	}
	inv.RecoveryLink = link
	return inv, nil
}

// SetRole changes a staff role and invalidates the cached role.
func (s *Service) SetRole(ctx context.Context, actorID, id, role string) (*User, error) {
	r, err := identity.ParseRole(role)
	if err != nil {
		return nil, ValidationError{Field: "role", Message: "must be admin, moderator or user"}
	}
	if id == actorID {
		return nil, ErrOwnRole
	}
	u, err := s.Store.SetRole(ctx, actorID, id, r)
	if err != nil {
		return nil, err
	}
	if s.Roles != nil {
		s.Roles.Forget(ctx, id)
	}
	return u, nil
}

func temporaryPassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
