// Package alerting decides which cameras get notified about, renders the
// message batches and carries them to the email and Telegram sinks.
package alerting

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotConfigured marks sink failures caused by incomplete settings rather
// than by the transport; the test endpoints map it to a 400.
var ErrNotConfigured = errors.New("sink not configured")

type configError string

func (e configError) Error() string { return string(e) }

func (e configError) Is(target error) bool { return target == ErrNotConfigured }

// SinkSettings is the cadence knob set every sink shares.
type SinkSettings struct {
	Enabled    bool
	FirstDelay int
	Frequency  int
	MuteAfter  int
}

type MailSettings struct {
	SinkSettings
	Server     string
	Port       int
	User       string
	Password   string
	Recipients []string
}

type TelegramSettings struct {
	SinkSettings
	BotToken string
	ChatIDs  []string
	Proxy    string
}

// Settings is the typed per-tick view over the loose key/value store.
type Settings struct {
	Mail     MailSettings
	Telegram TelegramSettings
}

// ParseSettings builds the typed view. Unparseable or missing numbers fall
// back to the same defaults the seed catalogue ships with, so a half-wiped
// settings table still produces a sane cadence.
func ParseSettings(values map[string]string) Settings {
	return Settings{
		Mail: MailSettings{
			SinkSettings: SinkSettings{
				Enabled:    boolValue(values, "MAIL_ENABLED"),
				FirstDelay: intValue(values, "MAIL_FIRST_ALERT_DELAY_MINUTES", 1),
				Frequency:  intValue(values, "MAIL_ALERT_FREQUENCY_MINUTES", 60),
				MuteAfter:  intValue(values, "MAIL_MUTE_AFTER_N_ALERTS", 3),
			},
			Server:     values["MAIL_SERVER"],
			Port:       intValue(values, "MAIL_PORT", 587),
			User:       values["MAIL_USER"],
			Password:   values["MAIL_PASS"],
			Recipients: splitList(values["MAIL_RECIPIENTS"]),
		},
		Telegram: TelegramSettings{
			SinkSettings: SinkSettings{
				Enabled:    boolValue(values, "TELEGRAM_ENABLED"),
				FirstDelay: intValue(values, "TELEGRAM_FIRST_ALERT_DELAY_MINUTES", 1),
				Frequency:  intValue(values, "TELEGRAM_ALERT_FREQUENCY_MINUTES", 30),
				MuteAfter:  intValue(values, "TELEGRAM_MUTE_AFTER_N_ALERTS", 3),
			},
			BotToken: values["TELEGRAM_BOT_TOKEN"],
			ChatIDs:  splitList(values["TELEGRAM_CHAT_IDS"]),
			Proxy:    values["TELEGRAM_PROXY"],
		},
	}
}

func boolValue(values map[string]string, key string) bool {
	return strings.EqualFold(values[key], "true")
}

func intValue(values map[string]string, key string, fallback int) int {
	v, ok := values[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := []string{}
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
