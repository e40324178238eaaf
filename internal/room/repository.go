package room

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"housing/internal/audit"
	"housing/internal/roomimage"
	"housing/pkg/db"
)

type Repository struct {
	db db.Conn
}

func NewRepository(conn db.Conn) *Repository {
	return &Repository{db: conn}
}

const columns = `id, title, description, location, room_type, price_monthly::text, square_feet,
       availability_status, features, created_by, created_at, updated_at`

func scanRoom(row pgx.Row) (*Room, error) {
	var (
		r     Room
		price string
	)
	if err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Location, &r.RoomType, &price, &r.SquareFeet,
		&r.AvailabilityStatus, &r.Features, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	r.PriceMonthly = d
	if r.Features == nil {
		r.Features = []string{}
	}
	return &r, nil
}

const filterClause = `
WHERE ($1 = '' OR location = $1)
  AND ($2 = '' OR room_type = $2)
  AND ($3 = '' OR availability_status = $3)
`

func (r *Repository) List(ctx context.Context, f Filter) (*Page, error) {
	f = f.normalized()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM rooms`+filterClause, f.Location, f.RoomType, f.Status).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM rooms`+filterClause+`
ORDER BY created_at DESC, id DESC
LIMIT $4 OFFSET $5
`, f.Location, f.RoomType, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	imgs, err := roomimage.ListByRooms(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Images = withImages(imgs[items[i].ID])
	}

	return &Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Room, error) {
	room, err := scanRoom(r.db.QueryRow(ctx, `SELECT `+columns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	imgs, err := roomimage.ListByRooms(ctx, r.db, []string{id})
	if err != nil {
		return nil, err
	}
	room.Images = withImages(imgs[id])
	return room, nil
}

func (r *Repository) Create(ctx context.Context, actorID string, in Room) (*Room, error) {
	var out *Room
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var createdBy *string
		if actorID != "" {
			createdBy = &actorID
		}
		room, err := scanRoom(tx.QueryRow(ctx, `
INSERT INTO rooms (title, description, location, room_type, price_monthly, square_feet,
                   availability_status, features, created_by)
VALUES ($1, $2, $3, $4, CAST($5 AS numeric), $6, $7, $8, $9)
RETURNING `+columns,
			in.Title, in.Description, in.Location, in.RoomType, in.PriceMonthly.StringFixed(2), in.SquareFeet,
			in.AvailabilityStatus, in.Features, createdBy,
		))
		if err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, actorID, "ROOM_CREATED", audit.EntityRoom, room.ID,
			map[string]any{"title": room.Title, "location": room.Location}); err != nil {
			return err
		}
		room.Images = []roomimage.Image{}
		out = room
		return nil
	})
	return out, err
}

// Update applies a partial edit to the locked row and re-validates the result.
func (r *Repository) Update(ctx context.Context, actorID, id string, in Input) (*Room, error) {
	var out *Room
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		room, err := scanRoom(tx.QueryRow(ctx, `SELECT `+columns+` FROM rooms WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		in.apply(room)
		if err := Validate(room); err != nil {
			return err
		}

		updated, err := scanRoom(tx.QueryRow(ctx, `
UPDATE rooms SET
  title = $2, description = $3, location = $4, room_type = $5, price_monthly = CAST($6 AS numeric),
  square_feet = $7, availability_status = $8, features = $9, updated_at = NOW()
WHERE id = $1
RETURNING `+columns,
			id, room.Title, room.Description, room.Location, room.RoomType, room.PriceMonthly.StringFixed(2),
			room.SquareFeet, room.AvailabilityStatus, room.Features,
		))
		if err != nil {
			return err
		}
		if err := audit.Insert(ctx, tx, actorID, "ROOM_UPDATED", audit.EntityRoom, id, in); err != nil {
			return err
		}

		imgs, err := roomimage.ListByRooms(ctx, tx, []string{id})
		if err != nil {
			return err
		}
		updated.Images = withImages(imgs[id])
		out = updated
		return nil
	})
	return out, err
}

// Delete removes the room; the foreign key cascades to its images.
func (r *Repository) Delete(ctx context.Context, actorID, id string) ([]string, error) {
	var paths []string
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT storage_path FROM room_images WHERE room_id = $1 AND storage_path IS NOT NULL`, id)
		if err != nil {
			return err
		}
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				rows.Close()
				return err
			}
			paths = append(paths, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return audit.Insert(ctx, tx, actorID, "ROOM_DELETED", audit.EntityRoom, id,
			map[string]any{"images": len(paths)})
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func withImages(imgs []roomimage.Image) []roomimage.Image {
	if imgs == nil {
		return []roomimage.Image{}
	}
	return imgs
}
