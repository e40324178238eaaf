package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"housing/internal/events"
	"housing/internal/notify"
	"housing/pkg/supabase"
)

type memStore struct {
	mu        sync.Mutex
	apps      []*Application
	events    map[string][]events.Event
	rooms     map[string]bool
	createErr error
	listErr   error
	// onList runs after each List call, outside the lock.
	onList func()
}

func newMemStore() *memStore {
	return &memStore{events: map[string][]events.Event{}, rooms: map[string]bool{}}
}

func (s *memStore) RoomExists(_ context.Context, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID], nil
}

func (s *memStore) Create(_ context.Context, in NewApplication) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	if in.RoomID != nil && !s.rooms[*in.RoomID] {
		return nil, ErrRoomNotFound
	}
	a := &Application{
		ID:                fmt.Sprintf("00000000-0000-4000-8000-%012d", len(s.apps)+1),
		ApplicantID:       in.ApplicantID,
		RoomID:            in.RoomID,
		Status:            in.Status,
		FormData:          in.FormData,
		PreApprovalReason: in.PreApprovalReason,
		SubmittedAt:       in.SubmittedAt,
	}
	s.apps = append(s.apps, a)
	s.events[a.ID] = append(s.events[a.ID], events.Event{ApplicationID: a.ID, EventType: events.TypeSubmitted, OccurredAt: in.SubmittedAt})
	cp := *a
	return &cp, nil
}

func (s *memStore) List(_ context.Context, f Filter) (*Page, error) {
	if s.onList != nil {
		defer s.onList()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	f = f.normalized()
	var matched []Application
	for _, a := range s.apps {
		if f.Status == "" || a.Status == f.Status {
			matched = append(matched, *a)
		}
	}
	total := len(matched)
	sort.SliceStable(matched, func(i, j int) bool { return listedBefore(matched[i], matched[j]) })

	items := []Application{}
	skipped := 0
	for _, a := range matched {
		if f.After != nil && !listedBefore(Application{SubmittedAt: f.After.SubmittedAt, ID: f.After.ID}, a) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		if len(items) == f.Limit {
			break
		}
		items = append(items, a)
	}
	return &Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// listedBefore is the (submitted_at DESC, id DESC) order.
func listedBefore(a, b Application) bool {
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.After(b.SubmittedAt)
	}
	return a.ID > b.ID
}

func (s *memStore) find(id string) *Application {
	for _, a := range s.apps {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.find(id)
	if a == nil {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) Events(_ context.Context, id string) ([]events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event{}, s.events[id]...), nil
}

func (s *memStore) Transition(_ context.Context, req TransitionRequest) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.find(req.ID)
	if a == nil {
		return nil, ErrNotFound
	}
	if !CanTransition(a.Status, req.Next) {
		return nil, &TransitionError{From: a.Status, To: req.Next}
	}
	at := req.At
	reviewer := req.ReviewerID
	a.Status = req.Next
	a.ReviewedAt = &at
	a.ReviewedBy = &reviewer
	a.ReviewNote = req.Note
	s.events[a.ID] = append(s.events[a.ID], events.Event{ApplicationID: a.ID, EventType: events.TypeStatusChanged, OccurredAt: at})
	cp := *a
	return &cp, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps)
}

type fakeSigner struct {
	calls int
	err   error
}

func (f *fakeSigner) SignInAnonymously(context.Context) (*supabase.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &supabase.Session{
		AccessToken:  "anon-token",
		RefreshToken: "anon-refresh",
		ExpiresIn:    3600,
		User:         supabase.User{ID: "anon-user-1", IsAnonymous: true},
	}, nil
}

type fakeNotifier struct {
	receipts  []notify.Receipt
	decisions []notify.Decision
	err       error
}

func (f *fakeNotifier) ApplicationReceived(_ context.Context, r notify.Receipt) error {
	f.receipts = append(f.receipts, r)
	return f.err
}

func (f *fakeNotifier) ApplicationDecided(_ context.Context, d notify.Decision) error {
	f.decisions = append(f.decisions, d)
	return f.err
}

var errBackend = errors.New("connection reset by peer")

// completeForm answers every required field across all six steps.
func completeForm(overrides map[string]any) map[string]any {
	v := map[string]any{
		"full_name":               "Jordan Rivers",
		"email":                   "jordan@example.org",
		"phone":                   "410-555-0100",
		"date_of_birth":           "1979-04-12",
		"current_address":         "12 Harbor St",
		"current_city":            "Baltimore",
		"current_state":           "MD",
		"current_zip":             "21201",
		"employment_status":       "employed",
		"monthly_income":          "2000",
		"preferred_location":      "MD",
		"preferred_room_type":     "single",
		"desired_move_in_date":    "2026-12-01",
		"emergency_contact_name":  "Sam Rivers",
		"emergency_contact_phone": "410-555-0101",
		"agree_terms":             true,
		"agree_background_check":  true,
	}
	for k, val := range overrides {
		if val == nil {
			delete(v, k)
			continue
		}
		v[k] = val
	}
	return v
}
