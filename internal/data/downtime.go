package data

import (
	"context"
	"database/sql"
	"time"
)

// DowntimeModel tracks outage intervals. A partial unique index on
// (camera_id) WHERE end_time IS NULL keeps at most one interval open per
// camera; Open and Close lean on that invariant instead of re-checking it.
type DowntimeModel struct {
	DB DBTX
}

// GetOpen returns the camera's open interval, or (nil, nil) when the camera
// is not currently down.
func (m DowntimeModel) GetOpen(ctx context.Context, cameraID int64) (*DowntimeEvent, error) {
	query := `
		SELECT id, camera_id, start_time, end_time
		FROM downtime_events
		WHERE camera_id = $1 AND end_time IS NULL`

	var e DowntimeEvent
	var endTime sql.NullTime

	err := m.DB.QueryRowContext(ctx, query, cameraID).Scan(&e.ID, &e.CameraID, &e.StartTime, &endTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		e.EndTime = &t
	}
	return &e, nil
}

// Open starts an outage interval at startTime. Idempotent per tick: if the
// camera already has an open interval it is left untouched.
func (m DowntimeModel) Open(ctx context.Context, cameraID int64, startTime time.Time) (*DowntimeEvent, error) {
	open, err := m.GetOpen(ctx, cameraID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return open, nil
	}

	query := `
		INSERT INTO downtime_events (camera_id, start_time)
		VALUES ($1, $2)
		RETURNING id`

	e := DowntimeEvent{CameraID: cameraID, StartTime: startTime}
	if err := m.DB.QueryRowContext(ctx, query, cameraID, startTime).Scan(&e.ID); err != nil {
		return nil, err
	}
	return &e, nil
}

// Close ends the camera's open interval at endTime. Closing a camera with no
// open interval is a no-op.
func (m DowntimeModel) Close(ctx context.Context, cameraID int64, endTime time.Time) error {
	query := `
		UPDATE downtime_events
		SET end_time = $1
		WHERE camera_id = $2 AND end_time IS NULL`

	_, err := m.DB.ExecContext(ctx, query, endTime, cameraID)
	return err
}

// ListOverlapping returns every interval that intersects [start, end), joined
// with the camera name for report building. Open intervals count as extending
// to infinity; clipping to the window is left to the caller so the arithmetic
// stays in one place and out of driver-specific SQL.
func (m DowntimeModel) ListOverlapping(ctx context.Context, start, end time.Time) ([]*DowntimeSpan, error) {
	query := `
		SELECT d.camera_id, c.name, d.start_time, d.end_time
		FROM downtime_events d
		JOIN cameras c ON c.id = d.camera_id
		WHERE d.start_time < $1 AND (d.end_time IS NULL OR d.end_time > $2)
		ORDER BY c.name, d.start_time`

	rows, err := m.DB.QueryContext(ctx, query, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spans := []*DowntimeSpan{}
	for rows.Next() {
		var s DowntimeSpan
		var endTime sql.NullTime
		if err := rows.Scan(&s.CameraID, &s.CameraName, &s.StartTime, &endTime); err != nil {
			return nil, err
		}
		if endTime.Valid {
			t := endTime.Time
			s.EndTime = &t
		}
		spans = append(spans, &s)
	}
	return spans, rows.Err()
}

// ListCameraOverlapping is ListOverlapping restricted to one camera, used by
// the per-camera stats endpoint.
func (m DowntimeModel) ListCameraOverlapping(ctx context.Context, cameraID int64, start, end time.Time) ([]*DowntimeSpan, error) {
	query := `
		SELECT d.camera_id, c.name, d.start_time, d.end_time
		FROM downtime_events d
		JOIN cameras c ON c.id = d.camera_id
		WHERE d.camera_id = $1 AND d.start_time < $2 AND (d.end_time IS NULL OR d.end_time > $3)
		ORDER BY d.start_time`

	rows, err := m.DB.QueryContext(ctx, query, cameraID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spans := []*DowntimeSpan{}
	for rows.Next() {
		var s DowntimeSpan
		var endTime sql.NullTime
		if err := rows.Scan(&s.CameraID, &s.CameraName, &s.StartTime, &endTime); err != nil {
			return nil, err
		}
		if endTime.Valid {
			t := endTime.Time
			s.EndTime = &t
		}
		spans = append(spans, &s)
	}
	return spans, rows.Err()
}
