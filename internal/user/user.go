package user

import (
	"context"
	"errors"
	"time"

	"housing/internal/identity"
)

type User struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	FullName  string        `json:"fullName"`
	Role      identity.Role `json:"role"`
	CreatedAt time.Time     `json:"createdAt"`
}

var (
	ErrNotFound       = errors.New("user: not found")
	ErrDuplicateEmail = errors.New("user: email already registered")
	ErrOwnRole        = errors.New("user: admins cannot change their own role")
	ErrIdentity       = errors.New("user: hosted auth unavailable")

	errNoActor = errors.New("user: no acting admin")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Store persists staff rows keyed by auth identity id.
type Store interface {
	List(ctx context.Context) ([]User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, actorID string, u User) (*User, error)
	SetRole(ctx context.Context, actorID, id string, role identity.Role) (*User, error)
}
