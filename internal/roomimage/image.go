package roomimage

import (
	"context"
	"errors"
	"time"
)

type Image struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	ImageURL    string    `json:"image_url"`
	StoragePath *string   `json:"storage_path"`
	IsPrimary   bool      `json:"is_primary"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type NewImage struct {
	RoomID      string
	ImageURL    string
	StoragePath *string
	IsPrimary   bool
}

var (
	ErrNotFound     = errors.New("roomimage: not found")
	ErrRoomNotFound = errors.New("roomimage: room not found")
)

// Store keeps at most one primary image per room. A room with images always has exactly one.
type Store interface {
	List(ctx context.Context, roomID string) ([]Image, error)
	Add(ctx context.Context, actorID string, in NewImage) (*Image, error)
	SetPrimary(ctx context.Context, actorID, roomID, imageID string) (*Image, error)
	Delete(ctx context.Context, actorID, roomID, imageID string) (*Image, error)
}
