package queue

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/nerrad567/weather-node/internal/infrastructure/database"
	"github.com/nerrad567/weather-node/internal/telemetry"
)

// SQLite is a Queue stored in the offline_readings table.
// Order is the autoincrement id, so it follows insertion order.
type SQLite struct {
	mu     sync.Mutex
	db     *database.DB
	logger Logger
}

// NewSQLite returns a queue on db. The schema must already be migrated.
func NewSQLite(db *database.DB, logger Logger) *SQLite {
	return &SQLite{db: db, logger: orNoop(logger)}
}

// Append inserts r. Values are stored at two decimals, as in the file backend.
func (q *SQLite) Append(ctx context.Context, r telemetry.Reading) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	r = r.Rounded()
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO offline_readings (taken_at, temperature, pressure) VALUES (?, ?, ?)",
		r.Timestamp, r.Temperature, r.Pressure,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting reading: %w", ErrStorage, err)
	}
	return nil
}

// DrainAll selects every row, oldest first.
func (q *SQLite) DrainAll(ctx context.Context) []telemetry.Reading {
	q.mu.Lock()
	defer q.mu.Unlock()

	records, err := q.selectAll(ctx)
	if err != nil {
		q.logger.Warn("offline queue: read failed", "error", err)
		return []telemetry.Reading{}
	}
	return records
}

func (q *SQLite) selectAll(ctx context.Context) ([]telemetry.Reading, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT taken_at, temperature, pressure FROM offline_readings ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []telemetry.Reading{}
	for rows.Next() {
		var r telemetry.Reading
		if err := rows.Scan(&r.Timestamp, &r.Temperature, &r.Pressure); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Clear deletes every row.
func (q *SQLite) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.db.ExecContext(ctx, "DELETE FROM offline_readings"); err != nil {
		return fmt.Errorf("%w: clearing: %w", ErrStorage, err)
	}
	return nil
}

// DropHead deletes the n lowest ids in one transaction.
func (q *SQLite) DropHead(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM offline_readings
			WHERE id IN (SELECT id FROM offline_readings ORDER BY id LIMIT ?)`,
			n,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: dropping %d entries: %w", ErrStorage, n, err)
	}
	return nil
}

// Len counts the stored rows.
func (q *SQLite) Len(ctx context.Context) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var n int
	if err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM offline_readings").Scan(&n); err != nil {
		q.logger.Warn("offline queue: count failed", "error", err)
		return 0
	}
	return n
}
