package events

import (
	"context"
	"encoding/json"
	"time"

	"housing/pkg/db"
)

const (
	TypeSubmitted     = "SUBMITTED"
	TypeClassified    = "CLASSIFIED"
	TypeStatusChanged = "STATUS_CHANGED"
)

// Insert appends one row to an application's timeline. Run it on the same tx as the change it records.
func Insert(ctx context.Context, q db.Querier, applicationID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		str := string(b)
		s = &str
	}
	const stmt = `
INSERT INTO application_events (application_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := q.Exec(ctx, stmt, applicationID, eventType, summary, actor, occurredAt, s)
	return err
}
