package audit

import (
	"context"
	"encoding/json"

	"housing/pkg/db"
)

const (
	EntityRoom        = "room"
	EntityRoomImage   = "room_image"
	EntityApplication = "application"
	EntityUser        = "user"
)

// Insert records an admin mutation. Run it on the same tx as the mutation.
func Insert(ctx context.Context, q db.Querier, actorID, action, entity, entityID string, metadata any) error {
	var s *string
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		str := string(b)
		s = &str
	}
	var eid *string
	if entityID != "" {
		eid = &entityID
	}
	const stmt = `
INSERT INTO audit_logs (actor_id, action, entity, entity_id, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := q.Exec(ctx, stmt, actorID, action, entity, eid, s)
	return err
}
