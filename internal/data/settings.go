package data

import (
	"context"
	"database/sql"
)

type SettingsModel struct {
	DB DBTX
}

// DefaultSettings is the seed catalogue. Seed inserts any key that is
// missing and never touches a value an operator has changed.
var DefaultSettings = []Setting{
	{Key: "MAIL_ENABLED", Value: "false", Description: ptr("Master switch for email alerts")},
	{Key: "MAIL_SERVER", Value: "smtp.gmail.com", Description: ptr("SMTP server host")},
	{Key: "MAIL_PORT", Value: "587", Description: ptr("SMTP server port")},
	{Key: "MAIL_USER", Value: "email@gmail.com", Description: ptr("SMTP username and From address")},
	{Key: "MAIL_PASS", Value: "password", Description: ptr("SMTP password or app password")},
	{Key: "MAIL_RECIPIENTS", Value: "admin@example.com", Description: ptr("Comma separated recipient list")},
	{Key: "MAIL_FIRST_ALERT_DELAY_MINUTES", Value: "1", Description: ptr("Minutes a camera must be down before the first email")},
	{Key: "MAIL_LOW_IMPORTANCE_DELAY_MINUTES", Value: "60", Description: ptr("Reserved for a dedicated low importance delay")},
	{Key: "MAIL_ALERT_FREQUENCY_MINUTES", Value: "60", Description: ptr("Minutes between repeat emails for the same outage")},
	{Key: "MAIL_MUTE_AFTER_N_ALERTS", Value: "3", Description: ptr("Emails per outage before the camera is muted")},
	{Key: "TELEGRAM_ENABLED", Value: "false", Description: ptr("Master switch for Telegram alerts")},
	{Key: "TELEGRAM_BOT_TOKEN", Value: "", Description: ptr("Bot API token")},
	{Key: "TELEGRAM_CHAT_IDS", Value: "", Description: ptr("Comma separated chat ids")},
	{Key: "TELEGRAM_PROXY", Value: "", Description: ptr("Optional proxy URL for the Bot API")},
	{Key: "TELEGRAM_FIRST_ALERT_DELAY_MINUTES", Value: "1", Description: ptr("Minutes a camera must be down before the first Telegram message")},
	{Key: "TELEGRAM_ALERT_FREQUENCY_MINUTES", Value: "30", Description: ptr("Minutes between repeat Telegram messages for the same outage")},
	{Key: "TELEGRAM_MUTE_AFTER_N_ALERTS", Value: "3", Description: ptr("Telegram messages per outage before the camera is muted")},
}

func ptr(s string) *string { return &s }

func (m SettingsModel) Get(ctx context.Context, key string) (*Setting, error) {
	query := `SELECT key, value, description FROM settings WHERE key = $1`

	var s Setting
	var desc sql.NullString
	err := m.DB.QueryRowContext(ctx, query, key).Scan(&s.Key, &s.Value, &desc)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		s.Description = &desc.String
	}
	return &s, nil
}

func (m SettingsModel) List(ctx context.Context) ([]*Setting, error) {
	query := `SELECT key, value, description FROM settings ORDER BY key`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []*Setting{}
	for rows.Next() {
		var s Setting
		var desc sql.NullString
		if err := rows.Scan(&s.Key, &s.Value, &desc); err != nil {
			return nil, err
		}
		if desc.Valid {
			d := desc.String
			s.Description = &d
		}
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}

// Map returns all settings as key/value pairs, the shape the monitor loop
// reads once per tick.
func (m SettingsModel) Map(ctx context.Context) (map[string]string, error) {
	settings, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return out, nil
}

// Upsert writes a value, keeping any existing description when none is given.
func (m SettingsModel) Upsert(ctx context.Context, key, value string, description *string) (*Setting, error) {
	if description != nil {
		query := `
			INSERT INTO settings (key, value, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, description = excluded.description`

		if _, err := m.DB.ExecContext(ctx, query, key, value, *description); err != nil {
			return nil, err
		}
		return m.Get(ctx, key)
	}

	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`

	if _, err := m.DB.ExecContext(ctx, query, key, value); err != nil {
		return nil, err
	}
	return m.Get(ctx, key)
}

// Seed inserts every default key that does not exist yet.
func (m SettingsModel) Seed(ctx context.Context) error {
	query := `
		INSERT INTO settings (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING`

	for _, s := range DefaultSettings {
		var desc sql.NullString
		if s.Description != nil {
			desc = sql.NullString{String: *s.Description, Valid: true}
		}
		if _, err := m.DB.ExecContext(ctx, query, s.Key, s.Value, desc); err != nil {
			return err
		}
	}
	return nil
}
