package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepo persists the audit trail to Postgres. Schema in
// migrations/001_audit.sql.
type PGRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{pool: pool}
}

// Pool exposes the underlying pool for the database health endpoint.
func (r *PGRepo) Pool() *pgxpool.Pool { return r.pool }

func (r *PGRepo) Record(ctx context.Context, e Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_events (id, actor, action, module, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))`,
		e.ID, e.Actor, e.Action, e.Module, e.Details, nullableTime(e))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *PGRepo) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, int, error) {
	where := "WHERE ($1 = '' OR module = $1) AND ($2 = '' OR actor = $2)"

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT count(*) FROM audit_events "+where, f.Module, f.Actor).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, actor, action, module, details, occurred_at
		FROM audit_events `+where+`
		ORDER BY occurred_at DESC
		LIMIT $3 OFFSET $4`, f.Module, f.Actor, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Module, &e.Details, &e.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func nullableTime(e Event) interface{} {
	if e.Timestamp.IsZero() {
		return nil
	}
	return e.Timestamp
}
