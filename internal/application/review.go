package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"housing/internal/events"
	"housing/internal/identity"
	"housing/internal/notify"
	"housing/pkg/logger"
	"housing/pkg/metrics"
)

// Review is the staff-facing queue over stored applications.
type Review struct {
	Store    Store
	Notifier notify.Notifier
	Now      func() time.Time
}

type Detail struct {
	Application *Application   `json:"application"`
	Events      []events.Event `json:"events"`
}

// List returns one page, newest submission first.
func (q *Review) List(ctx context.Context, f Filter) (*Page, error) {
	return q.Store.List(ctx, f.normalized())
}

// Detail returns the full record, including the read-only form data and its timeline.
func (q *Review) Detail(ctx context.Context, id string) (*Detail, error) {
	app, err := q.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	evs, err := q.Store.Events(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Application: app, Events: evs}, nil
}

// Transition records a staff decision. Only approved and rejected are valid targets,
// and only from an undecided application.
func (q *Review) Transition(ctx context.Context, reviewer *identity.Identity, id string, next Status, note string) (*Application, error) {
	if reviewer == nil {
		return nil, errors.New("transition requires a reviewer")
	}
	if !next.Reviewed() {
		return nil, &ValidationError{Code: "VALIDATION_FAILED", Message: "status must be approved or rejected"}
	}
	now := time.Now
	if q.Now != nil {
		now = q.Now
	}

	app, err := q.Store.Transition(ctx, TransitionRequest{
		ID:         id,
		Next:       next,
		ReviewerID: reviewer.UserID,
		Note:       note,
		At:         now(),
	})
	if err != nil {
		return nil, err
	}
	metrics.ApplicationReviews.WithLabelValues(string(app.Status)).Inc()

	if q.Notifier != nil {
		err := q.Notifier.ApplicationDecided(ctx, notify.Decision{
			ApplicationID: app.ID,
			To:            app.answer("email"),
			Name:          app.answer("full_name"),
			Status:        string(app.Status),
		})
		if err != nil {
			logger.FromContext(ctx).Warn("application decision email failed",
				zap.String("application_id", app.ID), zap.Error(err))
		}
	}
	return app, nil
}
