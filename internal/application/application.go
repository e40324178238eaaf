package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"housing/internal/events"
)

type Application struct {
	ID                string          `json:"id"`
	ApplicantID       string          `json:"applicantId"`
	RoomID            *string         `json:"roomId"`
	Status            Status          `json:"status"`
	FormData          json.RawMessage `json:"formData"`
	PreApprovalReason string          `json:"preApprovalReason"`
	SubmittedAt       time.Time       `json:"submittedAt"`
	ReviewedAt        *time.Time      `json:"reviewedAt"`
	ReviewedBy        *string         `json:"reviewedBy"`
	ReviewNote        string          `json:"reviewNote,omitempty"`
}

// Answers decodes the stored form data. A malformed blob yields an empty map.
func (a *Application) Answers() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(a.FormData, &out)
	return out
}

func (a *Application) answer(name string) string {
	s, _ := a.Answers()[name].(string)
	return s
}

type NewApplication struct {
	ApplicantID       string
	RoomID            *string
	Status            Status
	FormData          json.RawMessage
	PreApprovalReason string
	Issues            []string
	SubmittedAt       time.Time
}

type TransitionRequest struct {
	ID         string
	Next       Status
	ReviewerID string
	Note       string
	At         time.Time
}

type Filter struct {
	Status Status
	Limit  int
	Offset int
	// After continues the listing strictly past this row. Rows inserted meanwhile
	// do not shift the remaining pages.
	After *Cursor
}

// Cursor is a position in the (submitted_at DESC, id DESC) order.
type Cursor struct {
	SubmittedAt time.Time
	ID          string
}

// CursorOf returns the position just after a.
func CursorOf(a Application) *Cursor {
	return &Cursor{SubmittedAt: a.SubmittedAt, ID: a.ID}
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
	Items  []Application `json:"items"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Store persists applications. Create writes the record and its first timeline entry atomically;
// Transition locks the row, checks the status table and records the change in one transaction.
type Store interface {
	RoomExists(ctx context.Context, roomID string) (bool, error)
	Create(ctx context.Context, in NewApplication) (*Application, error)
	List(ctx context.Context, f Filter) (*Page, error)
	Get(ctx context.Context, id string) (*Application, error)
	Events(ctx context.Context, id string) ([]events.Event, error)
	Transition(ctx context.Context, req TransitionRequest) (*Application, error)
}

var (
	ErrNotFound     = errors.New("application: not found")
	ErrRoomNotFound = errors.New("application: requested room does not exist")
	ErrIdentity     = errors.New("application: could not resolve applicant identity")
)

// TransitionError is returned when the status table forbids a move.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

// ValidationError carries everything wrong with a submitted form.
type ValidationError struct {
	Code    string
	Message string
	Missing map[int][]string
	Details []string
}

func (e *ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
