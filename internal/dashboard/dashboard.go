package dashboard

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"housing/internal/api"
	"housing/pkg/db"
	"housing/pkg/logger"
)

type Counts struct {
	Users               int `json:"users"`
	Rooms               int `json:"rooms"`
	Applications        int `json:"applications"`
	PendingApplications int `json:"pendingApplications"`
	AvailableRooms      int `json:"availableRooms"`
}

type Counter interface {
	Counts(ctx context.Context) (*Counts, error)
}

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{db: q}
}

// Counts reads every figure in one round trip.
func (r *Repository) Counts(ctx context.Context) (*Counts, error) {
	const q = `
SELECT
  (SELECT COUNT(*) FROM users),
  (SELECT COUNT(*) FROM rooms),
  (SELECT COUNT(*) FROM applications),
  (SELECT COUNT(*) FROM applications WHERE status = 'pending'),
  (SELECT COUNT(*) FROM rooms WHERE availability_status = 'available')
`
	var c Counts
	if err := r.db.QueryRow(ctx, q).Scan(&c.Users, &c.Rooms, &c.Applications, &c.PendingApplications, &c.AvailableRooms); err != nil {
		return nil, err
	}
	return &c, nil
}

type Handlers struct {
	Counter Counter
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Counter.Counts(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("dashboard counts", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, c)
}
