package data

import (
	"context"
	"database/sql"
	"fmt"
)

type CameraModel struct {
	DB DBTX
}

const cameraColumns = `
	id, name, ip, nvr_ip, channel_id, is_muted, importance,
	last_online, status,
	mail_alert_count, mail_last_alert, telegram_alert_count, telegram_last_alert`

func scanCamera(row interface{ Scan(dest ...any) error }) (*Camera, error) {
	var c Camera
	var lastOnline, mailLast, telegramLast sql.NullTime

	err := row.Scan(
		&c.ID, &c.Name, &c.IP, &c.NVRIP, &c.ChannelID, &c.IsMuted, &c.Importance,
		&lastOnline, &c.Status,
		&c.MailAlertCount, &mailLast, &c.TelegramAlertCount, &telegramLast,
	)
	if err != nil {
		return nil, err
	}

	if lastOnline.Valid {
		t := lastOnline.Time
		c.LastOnline = &t
	}
	if mailLast.Valid {
		t := mailLast.Time
		c.MailLastAlert = &t
	}
	if telegramLast.Valid {
		t := telegramLast.Time
		c.TelegramLastAlert = &t
	}
	return &c, nil
}

func (m CameraModel) Get(ctx context.Context, id int64) (*Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE id = $1`

	c, err := scanCamera(m.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByIdentity looks a camera up by its stable (recorder, channel) pair.
// A miss returns (nil, nil): the reconciler treats that as a first sighting,
// not an error.
func (m CameraModel) GetByIdentity(ctx context.Context, nvrIP, channelID string) (*Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM cameras WHERE nvr_ip = $1 AND channel_id = $2`

	c, err := scanCamera(m.DB.QueryRowContext(ctx, query, nvrIP, channelID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (m CameraModel) List(ctx context.Context) ([]*Camera, error) {
	return m.list(ctx, `SELECT `+cameraColumns+` FROM cameras ORDER BY name, id`)
}

func (m CameraModel) ListByStatus(ctx context.Context, status string) ([]*Camera, error) {
	return m.list(ctx, `SELECT `+cameraColumns+` FROM cameras WHERE status = $1 ORDER BY name, id`, status)
}

func (m CameraModel) list(ctx context.Context, query string, args ...any) ([]*Camera, error) {
	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cameras := []*Camera{}
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		cameras = append(cameras, c)
	}
	return cameras, rows.Err()
}

// Insert stores a newly sighted camera and fills in its generated id plus the
// column defaults for the operator-owned fields.
func (m CameraModel) Insert(ctx context.Context, c *Camera) error {
	query := `
		INSERT INTO cameras (name, ip, nvr_ip, channel_id, last_online, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_muted, importance`

	var lastOnline sql.NullTime
	if c.LastOnline != nil {
		lastOnline = sql.NullTime{Time: *c.LastOnline, Valid: true}
	}

	return m.DB.QueryRowContext(ctx, query,
		c.Name, c.IP, c.NVRIP, c.ChannelID, lastOnline, c.Status,
	).Scan(&c.ID, &c.IsMuted, &c.Importance)
}

// UpdateObserved writes the fields the reconciler owns: name, source ip,
// status and the last-online watermark.
func (m CameraModel) UpdateObserved(ctx context.Context, c *Camera) error {
	query := `
		UPDATE cameras
		SET name = $1, ip = $2, status = $3, last_online = $4
		WHERE id = $5`

	var lastOnline sql.NullTime
	if c.LastOnline != nil {
		lastOnline = sql.NullTime{Time: *c.LastOnline, Valid: true}
	}

	_, err := m.DB.ExecContext(ctx, query, c.Name, c.IP, c.Status, lastOnline, c.ID)
	return err
}

// UpdateAlertState writes the per-sink alert counters and last-sent marks.
func (m CameraModel) UpdateAlertState(ctx context.Context, c *Camera) error {
	query := `
		UPDATE cameras
		SET mail_alert_count = $1, mail_last_alert = $2,
		    telegram_alert_count = $3, telegram_last_alert = $4
		WHERE id = $5`

	var mailLast, telegramLast sql.NullTime
	if c.MailLastAlert != nil {
		mailLast = sql.NullTime{Time: *c.MailLastAlert, Valid: true}
	}
	if c.TelegramLastAlert != nil {
		telegramLast = sql.NullTime{Time: *c.TelegramLastAlert, Valid: true}
	}

	_, err := m.DB.ExecContext(ctx, query,
		c.MailAlertCount, mailLast, c.TelegramAlertCount, telegramLast, c.ID)
	return err
}

// UpdateAdmin applies the operator-owned fields and returns the updated row.
func (m CameraModel) UpdateAdmin(ctx context.Context, id int64, params UpdateCameraParams) (*Camera, error) {
	set := ""
	args := []any{}
	nextArg := 1

	if params.Importance != nil {
		set += fmt.Sprintf("importance = $%d, ", nextArg)
		args = append(args, *params.Importance)
		nextArg++
	}
	if params.IsMuted != nil {
		set += fmt.Sprintf("is_muted = $%d, ", nextArg)
		args = append(args, *params.IsMuted)
		nextArg++
	}
	if set == "" {
		return m.Get(ctx, id)
	}
	set = set[:len(set)-2]

	query := fmt.Sprintf(`UPDATE cameras SET %s WHERE id = $%d`, set, nextArg)
	args = append(args, id)

	res, err := m.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, ErrRecordNotFound
	}
	return m.Get(ctx, id)
}
