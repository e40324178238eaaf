package identity

import (
	"context"
	"errors"
	"fmt"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleModerator, RoleUser:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

// Identity is the caller resolved for one request.
type Identity struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role"`
	Anonymous bool   `json:"anonymous"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && !i.Anonymous && i.Role == RoleAdmin
}

var ErrNotFound = errors.New("identity: user not found")

// Directory looks up the staff role recorded for an auth identity.
type Directory interface {
	RoleOf(ctx context.Context, userID string) (Role, error)
}
