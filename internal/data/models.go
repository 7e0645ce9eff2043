package data

import "time"

// Camera status values as reported by reconciliation. Unknown is only ever the
// schema default; the reconciler always writes Online or Offline.
const (
	StatusOnline  = "Online"
	StatusOffline = "Offline"
	StatusUnknown = "Unknown"
)

// Importance classes. Low-importance cameras wait a full repeat period before
// their first outage alert.
const (
	ImportanceLow    = 1
	ImportanceNormal = 2
	ImportanceHigh   = 3
)

// Log taxonomy.
const (
	LogTypeCamera   = "Camera"
	LogTypeMail     = "Mail"
	LogTypeTelegram = "Telegram"
	LogTypeService  = "Service"

	StateSent    = "Sent"
	StateFailed  = "Failed"
	StateError   = "Error"
	StateStarted = "Started"
	StateStopped = "Stopped"
)

type NVR struct {
	IP       string `json:"ip"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	Enabled  bool   `json:"enabled"`
}

type Camera struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	IP                 string     `json:"ip"`
	NVRIP              string     `json:"nvr_ip"`
	ChannelID          string     `json:"channel_id"`
	IsMuted            bool       `json:"is_muted"`
	Importance         int        `json:"importance"`
	LastOnline         *time.Time `json:"last_online,omitempty"`
	Status             string     `json:"status"`
	MailAlertCount     int        `json:"mail_alert_count"`
	MailLastAlert      *time.Time `json:"mail_last_alert,omitempty"`
	TelegramAlertCount int        `json:"telegram_alert_count"`
	TelegramLastAlert  *time.Time `json:"telegram_last_alert,omitempty"`
}

type DowntimeEvent struct {
	ID        int64      `json:"id"`
	CameraID  int64      `json:"camera_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// DowntimeSpan is a DowntimeEvent joined with its camera for report building.
type DowntimeSpan struct {
	CameraID   int64      `json:"camera_id"`
	CameraName string     `json:"name"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

type LogEntry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	LogType   string    `json:"log_type"`
	State     string    `json:"state"`
	Details   string    `json:"details"`
}

type Setting struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Description *string `json:"description,omitempty"`
}

// UpdateNVRParams carries a partial admin update; nil fields are left alone.
type UpdateNVRParams struct {
	User     *string `json:"user"`
	Password *string `json:"password"`
	Enabled  *bool   `json:"enabled"`
}

// UpdateCameraParams carries the admin-owned camera fields.
type UpdateCameraParams struct {
	Importance *int  `json:"importance"`
	IsMuted    *bool `json:"is_muted"`
}
