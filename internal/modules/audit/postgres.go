package audit

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Insert(ctx context.Context, e *Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events
		  (id, actor_id, actor_role, action, resource_type, resource_id, outcome, detail)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.ActorID, e.ActorRole, e.Action, e.ResourceType, e.ResourceID, e.Outcome, nullableJSON(e.Detail))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListByResource(ctx context.Context, resourceType, resourceID string) ([]*Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, actor_id, actor_role, action, resource_type, resource_id, outcome, detail, created_at
		FROM audit_events
		WHERE resource_type=$1 AND resource_id=$2
		ORDER BY created_at DESC`, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var detail []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Action,
			&e.ResourceType, &e.ResourceID, &e.Outcome, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Detail = detail
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
