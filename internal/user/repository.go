package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"housing/internal/audit"
	"housing/internal/identity"
	"housing/pkg/db"
)

type Repository struct {
	db db.Conn
}

func NewRepository(conn db.Conn) *Repository {
	return &Repository{db: conn}
}

// RoleOf implements identity.Directory.
func (r *Repository) RoleOf(ctx context.Context, userID string) (identity.Role, error) {
	var role string
	err := r.db.QueryRow(ctx, `SELECT role FROM users WHERE id::text = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", identity.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return identity.ParseRole(role)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, email, full_name, role, created_at
FROM users
ORDER BY created_at DESC, email
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&taken)
	return taken, err
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
SELECT id, email, full_name, role, created_at
FROM users
WHERE lower(email) = lower($1)
`, email))
}

func (r *Repository) Insert(ctx context.Context, actorID string, in User) (*User, error) {
	var out *User
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `
INSERT INTO users (id, email, full_name, role)
VALUES ($1, $2, $3, $4)
RETURNING id, email, full_name, role, created_at
`, in.ID, in.Email, in.FullName, string(in.Role)))
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return err
		}
		if err := audit.Insert(ctx, tx, actorID, "USER_INVITED", audit.EntityUser, u.ID,
			map[string]any{"email": u.Email, "role": u.Role}); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (r *Repository) SetRole(ctx context.Context, actorID, id string, role identity.Role) (*User, error) {
	var out *User
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var previous string
		err := tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&previous)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		u, err := scanUser(tx.QueryRow(ctx, `
UPDATE users SET role = $2
WHERE id = $1
RETURNING id, email, full_name, role, created_at
`, id, string(role)))
		if err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, actorID, "USER_ROLE_CHANGED", audit.EntityUser, id,
			map[string]any{"from": previous, "to": role}); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}
