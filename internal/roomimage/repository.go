package roomimage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"housing/internal/audit"
	"housing/pkg/db"
)

type Repository struct {
	db db.Conn
}

func NewRepository(conn db.Conn) *Repository {
	return &Repository{db: conn}
}

const columns = `id, room_id, image_url, storage_path, is_primary, uploaded_at`

func scanImage(row pgx.Row) (*Image, error) {
	var img Image
	if err := row.Scan(&img.ID, &img.RoomID, &img.ImageURL, &img.StoragePath, &img.IsPrimary, &img.UploadedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *Repository) List(ctx context.Context, roomID string) ([]Image, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, roomID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRoomNotFound
	}
	byRoom, err := ListByRooms(ctx, r.db, []string{roomID})
	if err != nil {
		return nil, err
	}
	if imgs := byRoom[roomID]; imgs != nil {
		return imgs, nil
	}
	return []Image{}, nil
}

// ListByRooms loads the images of several rooms in one query, primary first, then newest.
func ListByRooms(ctx context.Context, q db.Querier, roomIDs []string) (map[string][]Image, error) {
	out := map[string][]Image{}
	if len(roomIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
SELECT `+columns+`
FROM room_images
WHERE room_id = ANY(CAST(CAST($1 AS text[]) AS uuid[]))
ORDER BY is_primary DESC, uploaded_at DESC, id
`, roomIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out[img.RoomID] = append(out[img.RoomID], *img)
	}
	return out, rows.Err()
}

// lockRoom serializes image changes per room for the rest of the transaction.
func lockRoom(ctx context.Context, tx pgx.Tx, roomID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRoomNotFound
	}
	return err
}

func clearPrimary(ctx context.Context, tx pgx.Tx, roomID, keepID string) error {
	_, err := tx.Exec(ctx, `
UPDATE room_images SET is_primary = false
WHERE room_id = $1 AND is_primary AND id::text <> $2
`, roomID, keepID)
	return err
}

func (r *Repository) Add(ctx context.Context, actorID string, in NewImage) (*Image, error) {
	var out *Image
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, in.RoomID); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM room_images WHERE room_id = $1`, in.RoomID).Scan(&count); err != nil {
			return err
		}
		primary := in.IsPrimary || count == 0
		if primary {
			if err := clearPrimary(ctx, tx, in.RoomID, ""); err != nil {
				return err
			}
		}

		img, err := scanImage(tx.QueryRow(ctx, `
INSERT INTO room_images (room_id, image_url, storage_path, is_primary)
VALUES ($1, $2, $3, $4)
RETURNING `+columns, in.RoomID, in.ImageURL, in.StoragePath, primary))
		if err != nil {
			return err
		}

		if err := audit.Insert(ctx, tx, actorID, "ROOM_IMAGE_ADDED", audit.EntityRoomImage, img.ID,
			map[string]any{"roomId": img.RoomID, "isPrimary": img.IsPrimary}); err != nil {
			return err
		}
		out = img
		return nil
	})
	return out, err
}

func (r *Repository) SetPrimary(ctx context.Context, actorID, roomID, imageID string) (*Image, error) {
	var out *Image
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM room_images WHERE id = $1 AND room_id = $2)`, imageID, roomID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		// The partial unique index is checked per row, so clear before set.
		if err := clearPrimary(ctx, tx, roomID, imageID); err != nil {
			return err
		}
		img, err := scanImage(tx.QueryRow(ctx, `
UPDATE room_images SET is_primary = true
WHERE id = $1 AND room_id = $2
RETURNING `+columns, imageID, roomID))
		if err != nil {
			return err
		}

		if err := audit.Insert(ctx, tx, actorID, "ROOM_IMAGE_PRIMARY_SET", audit.EntityRoomImage, img.ID,
			map[string]any{"roomId": roomID}); err != nil {
			return err
		}
		out = img
		return nil
	})
	return out, err
}

func (r *Repository) Delete(ctx context.Context, actorID, roomID, imageID string) (*Image, error) {
	var out *Image
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}

		img, err := scanImage(tx.QueryRow(ctx, `
DELETE FROM room_images
WHERE id = $1 AND room_id = $2
RETURNING `+columns, imageID, roomID))
		if err != nil {
			return err
		}

		if img.IsPrimary {
			if _, err := tx.Exec(ctx, `
UPDATE room_images SET is_primary = true
WHERE id = (
  SELECT id FROM room_images WHERE room_id = $1
  ORDER BY uploaded_at DESC, id LIMIT 1
)
`, roomID); err != nil {
				return err
			}
		}

		if err := audit.Insert(ctx, tx, actorID, "ROOM_IMAGE_DELETED", audit.EntityRoomImage, img.ID,
			map[string]any{"roomId": roomID, "wasPrimary": img.IsPrimary}); err != nil {
			return err
		}
		out = img
		return nil
	})
	return out, err
}
