package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"housing/internal/audit"
	"housing/internal/events"
	"housing/pkg/db"
)

type Repository struct {
	db db.Conn
}

func NewRepository(conn db.Conn) *Repository {
	return &Repository{db: conn}
}

const selectColumns = `
SELECT id, applicant_id, room_id, status, form_data, pre_approval_reason,
       submitted_at, reviewed_at, reviewed_by, review_note
FROM applications
`

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	if err := row.Scan(
		&a.ID, &a.ApplicantID, &a.RoomID, &a.Status, &a.FormData, &a.PreApprovalReason,
		&a.SubmittedAt, &a.ReviewedAt, &a.ReviewedBy, &a.ReviewNote,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) RoomExists(ctx context.Context, roomID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, roomID).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, in NewApplication) (*Application, error) {
	var out *Application
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if in.RoomID != nil {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, *in.RoomID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrRoomNotFound
			}
		}

		const q = `
INSERT INTO applications (applicant_id, room_id, status, form_data, pre_approval_reason, submitted_at)
VALUES ($1, $2, $3, CAST($4 AS jsonb), $5, $6)
RETURNING id, applicant_id, room_id, status, form_data, pre_approval_reason,
          submitted_at, reviewed_at, reviewed_by, review_note
`
		a, err := scanApplication(tx.QueryRow(ctx, q,
			in.ApplicantID, in.RoomID, string(in.Status), string(in.FormData), in.PreApprovalReason, in.SubmittedAt,
		))
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrRoomNotFound
			}
			return err
		}

		if err := events.Insert(ctx, tx, a.ID, events.TypeSubmitted, "Application submitted", "applicant", in.SubmittedAt,
			map[string]any{"roomId": in.RoomID}); err != nil {
			return err
		}
		if err := events.Insert(ctx, tx, a.ID, events.TypeClassified, in.PreApprovalReason, "system", in.SubmittedAt,
			map[string]any{"status": in.Status, "issues": in.Issues}); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) List(ctx context.Context, f Filter) (*Page, error) {
	f = f.normalized()

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM applications WHERE ($1 = '' OR status = $1)`, string(f.Status),
	).Scan(&total); err != nil {
		return nil, err
	}

	where := `WHERE ($1 = '' OR status = $1)`
	args := []any{string(f.Status)}
	if f.After != nil {
		where += ` AND (submitted_at, id) < ($2, CAST($3 AS uuid))`
		args = append(args, f.After.SubmittedAt, f.After.ID)
	}
	n := len(args)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, selectColumns+where+fmt.Sprintf(`
ORDER BY submitted_at DESC, id DESC
LIMIT $%d OFFSET $%d
`, n+1, n+2), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Application, error) {
	return scanApplication(r.db.QueryRow(ctx, selectColumns+`WHERE id = $1`, id))
}

func (r *Repository) Events(ctx context.Context, id string) ([]events.Event, error) {
	return events.ListByApplication(ctx, r.db, id)
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (*Application, error) {
	return scanApplication(tx.QueryRow(ctx, selectColumns+`WHERE id = $1 FOR UPDATE`, id))
}

func (r *Repository) Transition(ctx context.Context, req TransitionRequest) (*Application, error) {
	var out *Application
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getForUpdate(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if !CanTransition(cur.Status, req.Next) {
			return &TransitionError{From: cur.Status, To: req.Next}
		}

		const q = `
UPDATE applications
SET status = $1, reviewed_at = $2, reviewed_by = $3, review_note = $4
WHERE id = $5
RETURNING id, applicant_id, room_id, status, form_data, pre_approval_reason,
          submitted_at, reviewed_at, reviewed_by, review_note
`
		updated, err := scanApplication(tx.QueryRow(ctx, q, string(req.Next), req.At, req.ReviewerID, req.Note, cur.ID))
		if err != nil {
			return err
		}

		meta := map[string]any{"from": cur.Status, "to": req.Next, "note": req.Note}
		if err := events.Insert(ctx, tx, cur.ID, events.TypeStatusChanged, "Status changed", req.ReviewerID, req.At, meta); err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, req.ReviewerID, "APPLICATION_STATUS_CHANGED", audit.EntityApplication, cur.ID, meta); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
