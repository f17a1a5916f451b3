package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event EventRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, timestamp, event_type, actor_id, target_id, payload, round)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Timestamp.Format(timeLayout),
		event.EventType,
		event.ActorID,
		event.TargetID,
		event.Payload,
		event.Round,
	)
	if err != nil {
		return fmt.Errorf("failed to append event %s: %w", event.ID, err)
	}
	return nil
}

func (r *SQLiteEventRepository) GetSince(ctx context.Context, since time.Time) ([]EventRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, event_type, actor_id, target_id, payload, round
		FROM events WHERE timestamp >= ? ORDER BY timestamp ASC`,
		since.Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var rec EventRecord
		var ts string
		if err := rows.Scan(&rec.ID, &ts, &rec.EventType, &rec.ActorID, &rec.TargetID, &rec.Payload, &rec.Round); err != nil {
			return nil, err
		}
		if rec.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("corrupt event timestamp for %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
