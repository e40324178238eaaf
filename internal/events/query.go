package events

import (
	"context"
	"encoding/json"
	"time"

	"housing/pkg/db"
)

type Event struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"applicationId"`
	EventType     string          `json:"eventType"`
	Summary       string          `json:"summary"`
	Actor         string          `json:"actor"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Data          json.RawMessage `json:"data,omitempty"`
}

func ListByApplication(ctx context.Context, q db.Querier, applicationID string) ([]Event, error) {
	const stmt = `
SELECT id, application_id, event_type, summary, actor, occurred_at, COALESCE(data, '{}'::jsonb)
FROM application_events
WHERE application_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := q.Query(ctx, stmt, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
