package room

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"housing/internal/roomimage"
)

const (
	StatusAvailable   = "available"
	StatusOccupied    = "occupied"
	StatusMaintenance = "maintenance"
)

var (
	Locations = []string{"MD", "IN", "IL"}
	Types     = []string{"single", "shared"}
	Statuses  = []string{StatusAvailable, StatusOccupied, StatusMaintenance}

	// Features is the closed catalog an admin can tick on a room.
	Features = []string{
		"Private Bathroom",
		"Shared Bathroom",
		"Kitchenette",
		"Full Kitchen",
		"Wi-Fi",
		"Utilities Included",
		"24/7 Support",
		"Laundry",
		"Community Areas",
		"Balcony",
		"Wheelchair Accessible",
		"Emergency Call System",
		"Housekeeping",
		"Social Activities",
	}
)

type Room struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Location           string            `json:"location"`
	RoomType           string            `json:"room_type"`
	PriceMonthly       decimal.Decimal   `json:"price_monthly"`
	SquareFeet         int               `json:"square_feet"`
	AvailabilityStatus string            `json:"availability_status"`
	Features           []string          `json:"features"`
	CreatedBy          *string           `json:"created_by"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Images             []roomimage.Image `json:"room_images"`
}

// Input is a create or partial update. Nil fields keep their current value.
type Input struct {
	Title              *string          `json:"title"`
	Description        *string          `json:"description"`
	Location           *string          `json:"location"`
	RoomType           *string          `json:"room_type"`
	PriceMonthly       *decimal.Decimal `json:"price_monthly"`
	SquareFeet         *int             `json:"square_feet"`
	AvailabilityStatus *string          `json:"availability_status"`
	Features           []string         `json:"features"`
}

func (in Input) apply(r *Room) {
	if in.Title != nil {
		r.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		r.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		r.Location = strings.ToUpper(strings.TrimSpace(*in.Location))
	}
	if in.RoomType != nil {
		r.RoomType = strings.ToLower(strings.TrimSpace(*in.RoomType))
	}
	if in.PriceMonthly != nil {
		r.PriceMonthly = in.PriceMonthly.Round(2)
	}
	if in.SquareFeet != nil {
		r.SquareFeet = *in.SquareFeet
	}
	if in.AvailabilityStatus != nil {
		r.AvailabilityStatus = strings.ToLower(strings.TrimSpace(*in.AvailabilityStatus))
	}
	if in.Features != nil {
		r.Features = dedupe(in.Features)
	}
}

// ValidationError names the first offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every stored column constraint before it reaches the database.
func Validate(r *Room) error {
	switch {
	case r.Title == "":
		return ValidationError{Field: "title", Message: "is required"}
	case !slices.Contains(Locations, r.Location):
		return ValidationError{Field: "location", Message: "must be one of MD, IN, IL"}
	case !slices.Contains(Types, r.RoomType):
		return ValidationError{Field: "room_type", Message: "must be single or shared"}
	case r.PriceMonthly.IsNegative():
		return ValidationError{Field: "price_monthly", Message: "must be zero or more"}
	case r.PriceMonthly.GreaterThanOrEqual(decimal.NewFromInt(100_000_000)):
		return ValidationError{Field: "price_monthly", Message: "is too large"}
	case r.SquareFeet < 0:
		return ValidationError{Field: "square_feet", Message: "must be zero or more"}
	case !slices.Contains(Statuses, r.AvailabilityStatus):
		return ValidationError{Field: "availability_status", Message: "must be available, occupied or maintenance"}
	}
	for _, f := range r.Features {
		if !slices.Contains(Features, f) {
			return ValidationError{Field: "features", Message: fmt.Sprintf("unknown feature %q", f)}
		}
	}
	return nil
}

// New builds a room from a create request. Status defaults to available.
func New(in Input) (*Room, error) {
	r := &Room{AvailabilityStatus: StatusAvailable, Features: []string{}}
	in.apply(r)
	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

type Filter struct {
	Location string
	RoomType string
	Status   string
	Limit    int
	Offset   int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

func (f Filter) normalized() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type Page struct {
	Items  []Room `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

var ErrNotFound = errors.New("room: not found")

// Store persists rooms. Delete cascades to the room's images and returns their storage paths.
type Store interface {
	List(ctx context.Context, f Filter) (*Page, error)
	Get(ctx context.Context, id string) (*Room, error)
	Create(ctx context.Context, actorID string, r Room) (*Room, error)
	Update(ctx context.Context, actorID string, id string, in Input) (*Room, error)
	Delete(ctx context.Context, actorID, id string) ([]string, error)
}
