package storage

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// InitPostgres opens a PostgreSQL connection pool through the pgx stdlib
// driver and creates the event ledger schema. Postgres is the deployment
// alternative to the embedded SQLite ledger for multi-instance setups.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	db.SetMaxOpenConns(runtime.NumCPU() * 4)
	db.SetMaxIdleConns(runtime.NumCPU() * 2)

	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL DEFAULT '',
			target_id TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '',
			round INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return db, nil
}

// PostgresEventRepository implements EventRepository using PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Append inserts a new event into the immutable ledger.
func (r *PostgresEventRepository) Append(ctx context.Context, event EventRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, timestamp, event_type, actor_id, target_id, payload, round)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID,
		event.Timestamp,
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

// GetSince retrieves events recorded at or after the given time, oldest first.
func (r *PostgresEventRepository) GetSince(ctx context.Context, since time.Time) ([]EventRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, timestamp, event_type, actor_id, target_id, payload, round
		FROM events WHERE timestamp >= $1 ORDER BY timestamp ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.EventType, &rec.ActorID, &rec.TargetID, &rec.Payload, &rec.Round); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ EventRepository = (*SQLiteEventRepository)(nil)
var _ EventRepository = (*PostgresEventRepository)(nil)
