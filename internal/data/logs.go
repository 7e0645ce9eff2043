package data

import (
	"context"
	"fmt"
	"time"
)

type LogModel struct {
	DB DBTX
}

// Append records one operational event. Timestamps are supplied by the caller
// so a whole tick logs with a single clock reading.
func (m LogModel) Append(ctx context.Context, at time.Time, logType, state, details string) error {
	query := `
		INSERT INTO logs (timestamp, log_type, state, details)
		VALUES ($1, $2, $3, $4)`

	_, err := m.DB.ExecContext(ctx, query, at, logType, state, details)
	return err
}

// Search returns matching entries newest first plus the total match count.
// An empty q returns everything.
func (m LogModel) Search(ctx context.Context, q string, limit, offset int) ([]*LogEntry, int, error) {
	// 1. Build the filter.
	where := ""
	args := []any{}
	nextArg := 1

	if q != "" {
		where = fmt.Sprintf(
			`WHERE lower(details) LIKE '%%' || lower($%d) || '%%'
			    OR lower(log_type) LIKE '%%' || lower($%d) || '%%'
			    OR lower(state) LIKE '%%' || lower($%d) || '%%'`,
			nextArg, nextArg, nextArg)
		args = append(args, q)
		nextArg++
	}

	// 2. Count total matches for pagination.
	var total int
	if err := m.DB.QueryRowContext(ctx, "SELECT count(*) FROM logs "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// 3. Fetch the page.
	query := fmt.Sprintf(`
		SELECT id, timestamp, log_type, state, details
		FROM logs
		%s
		ORDER BY timestamp DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, nextArg, nextArg+1)
	args = append(args, limit, offset)

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []*LogEntry{}
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.LogType, &e.State, &e.Details); err != nil {
			return nil, 0, err
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}
