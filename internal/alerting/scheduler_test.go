package alerting_test

import (
	"strings"
	"testing"
	"time"

	"github.com/technosupport/ts-camwatch/internal/alerting"
	"github.com/technosupport/ts-camwatch/internal/data"
)

func chatSettings(delay, freq, mute int) alerting.Settings {
	return alerting.Settings{
		Telegram: alerting.TelegramSettings{
			SinkSettings: alerting.SinkSettings{Enabled: true, FirstDelay: delay, Frequency: freq, MuteAfter: mute},
		},
	}
}

// 1. Full outage lifecycle: first sighting, three alerts, mute, recovery
func TestEvaluate_OutageLifecycle(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := chatSettings(1, 5, 3)

	cam := &data.Camera{ID: 7, Name: "Gate", Status: data.StatusOffline, Importance: data.ImportanceNormal}
	starts := map[int64]time.Time{7: t0}

	wantByMinute := map[int]string{
		1:  "🚨 Gate (1m)",
		6:  "🚨 Gate (6m)",
		11: "🚨 Gate (11m) 🔕(Muted)",
	}

	for min := 0; min <= 19; min++ {
		now := t0.Add(time.Duration(min) * time.Minute)
		b, _ := alerting.Evaluate(now, []*data.Camera{cam}, starts, cfg)

		want, expectAlert := wantByMinute[min]
		if expectAlert {
			if len(b.ChatOutages) != 1 || b.ChatOutages[0] != want {
				t.Errorf("minute %d: batch = %v, want [%s]", min, b.ChatOutages, want)
			}
		} else if len(b.ChatOutages) != 0 {
			t.Errorf("minute %d: unexpected alert %v", min, b.ChatOutages)
		}
	}
	if cam.TelegramAlertCount != 3 {
		t.Errorf("count = %d, want 3 (mute cap)", cam.TelegramAlertCount)
	}

	// Recovery at t=20.
	cam.Status = data.StatusOnline
	now := t0.Add(20 * time.Minute)
	b, dirty := alerting.Evaluate(now, []*data.Camera{cam}, nil, cfg)

	if len(b.ChatRecoveries) != 1 || b.ChatRecoveries[0] != "✅ Gate is back Online" {
		t.Errorf("recoveries = %v", b.ChatRecoveries)
	}
	if cam.TelegramAlertCount != 0 {
		t.Errorf("count = %d after recovery, want 0", cam.TelegramAlertCount)
	}
	if len(dirty) != 1 {
		t.Errorf("recovery must mark the camera dirty")
	}
}

// 2. Low importance waits for the repeat frequency, not the first delay
func TestEvaluate_LowImportanceSkipsDelay(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := chatSettings(1, 5, 3)

	cam := &data.Camera{ID: 7, Name: "Yard", Status: data.StatusOffline, Importance: data.ImportanceLow}
	starts := map[int64]time.Time{7: t0}

	firstAlertAt := -1
	for min := 0; min <= 5; min++ {
		now := t0.Add(time.Duration(min) * time.Minute)
		b, _ := alerting.Evaluate(now, []*data.Camera{cam}, starts, cfg)
		if len(b.ChatOutages) > 0 && firstAlertAt < 0 {
			firstAlertAt = min
		}
	}
	if firstAlertAt != 5 {
		t.Errorf("first alert at minute %d, want 5", firstAlertAt)
	}
}

// 3. A disabled sink produces no batch and never advances its counter
func TestEvaluate_DisabledSink(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := chatSettings(1, 5, 3)
	cfg.Telegram.Enabled = false

	lastOnline := t0.Add(-30 * time.Minute)
	cam := &data.Camera{ID: 7, Name: "Gate", Status: data.StatusOffline, Importance: 2, LastOnline: &lastOnline}

	b, dirty := alerting.Evaluate(t0, []*data.Camera{cam}, nil, cfg)
	if !b.Empty() {
		t.Errorf("batches = %+v, want empty", b)
	}
	if cam.TelegramAlertCount != 0 || len(dirty) != 0 {
		t.Errorf("disabled sink advanced counters: count=%d dirty=%d", cam.TelegramAlertCount, len(dirty))
	}
}

// 4. Recovery resets counters even while both sinks are off
func TestEvaluate_RecoveryResetsWhileDisabled(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := alerting.Settings{}

	cam := &data.Camera{ID: 7, Name: "Gate", Status: data.StatusOnline, TelegramAlertCount: 2, MailAlertCount: 1}
	b, dirty := alerting.Evaluate(now, []*data.Camera{cam}, nil, cfg)

	if !b.Empty() {
		t.Errorf("no lines expected with sinks off, got %+v", b)
	}
	if cam.TelegramAlertCount != 0 || cam.MailAlertCount != 0 {
		t.Errorf("counters not reset: tg=%d mail=%d", cam.TelegramAlertCount, cam.MailAlertCount)
	}
	if len(dirty) != 1 {
		t.Errorf("reset must be persisted")
	}
}

// 5. Sinks gate independently with their own cadence
func TestEvaluate_IndependentSinks(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := alerting.Settings{
		Telegram: alerting.TelegramSettings{
			SinkSettings: alerting.SinkSettings{Enabled: true, FirstDelay: 1, Frequency: 5, MuteAfter: 3},
		},
		Mail: alerting.MailSettings{
			SinkSettings: alerting.SinkSettings{Enabled: true, FirstDelay: 10, Frequency: 60, MuteAfter: 3},
		},
	}

	lastOnline := t0.Add(-5 * time.Minute)
	cam := &data.Camera{ID: 7, Name: "Gate", Status: data.StatusOffline, Importance: 2, LastOnline: &lastOnline}

	b, _ := alerting.Evaluate(t0, []*data.Camera{cam}, nil, cfg)
	if len(b.ChatOutages) != 1 || b.ChatOutages[0] != "🚨 Gate (5m)" {
		t.Errorf("chat should alert at 5m, got %v", b.ChatOutages)
	}
	if len(b.MailOutages) != 0 {
		t.Errorf("mail should wait for 10m, got %v", b.MailOutages)
	}
}

// 6. Counter never exceeds the mute cap over a long outage
func TestEvaluate_MuteCapHolds(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cfg := chatSettings(1, 2, 2)

	cam := &data.Camera{ID: 7, Name: "Gate", Status: data.StatusOffline, Importance: 2}
	starts := map[int64]time.Time{7: t0}

	total := 0
	for min := 0; min < 120; min++ {
		now := t0.Add(time.Duration(min) * time.Minute)
		b, _ := alerting.Evaluate(now, []*data.Camera{cam}, starts, cfg)
		total += len(b.ChatOutages)
		if cam.TelegramAlertCount > cfg.Telegram.MuteAfter {
			t.Fatalf("minute %d: count %d exceeded cap %d", min, cam.TelegramAlertCount, cfg.Telegram.MuteAfter)
		}
	}
	if total != 2 {
		t.Errorf("sent %d alerts over the outage, want exactly 2", total)
	}
}

// 7. Hourly summary clips to the past hour and skips fresh and unseen cameras
func TestBuildSummary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	at := func(min int) *time.Time {
		t := now.Add(-time.Duration(min) * time.Minute)
		return &t
	}
	offline := []*data.Camera{
		{Name: "Gate", Status: data.StatusOffline, LastOnline: at(13)},
		{Name: "Lobby", Status: data.StatusOffline, LastOnline: at(45)},
		{Name: "Dock", Status: data.StatusOffline, LastOnline: at(300)},
		{Name: "Fresh", Status: data.StatusOffline, LastOnline: nil},
		{Name: "Up", Status: data.StatusOnline, LastOnline: at(1)},
	}

	header, lines := alerting.BuildSummary(now, offline)
	if header != "📊 Hourly Downtime Summary (12:00)" {
		t.Errorf("header = %q", header)
	}
	want := []string{"Gate: 13m", "Lobby: 45m", "Dock: 60m"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

// 8. Settings parse with defaults for missing and garbage values
func TestParseSettings_Defaults(t *testing.T) {
	cfg := alerting.ParseSettings(map[string]string{
		"TELEGRAM_ENABLED":                 "TRUE",
		"TELEGRAM_ALERT_FREQUENCY_MINUTES": "not-a-number",
		"TELEGRAM_CHAT_IDS":                " 100 ,, 200 ",
		"MAIL_RECIPIENTS":                  "a@x.io,b@x.io",
	})

	if !cfg.Telegram.Enabled {
		t.Error("TRUE should enable the sink")
	}
	if cfg.Telegram.Frequency != 30 {
		t.Errorf("frequency = %d, want default 30", cfg.Telegram.Frequency)
	}
	if cfg.Telegram.FirstDelay != 1 || cfg.Telegram.MuteAfter != 3 {
		t.Errorf("telegram defaults wrong: %+v", cfg.Telegram.SinkSettings)
	}
	if len(cfg.Telegram.ChatIDs) != 2 || cfg.Telegram.ChatIDs[0] != "100" {
		t.Errorf("chat ids = %v", cfg.Telegram.ChatIDs)
	}
	if cfg.Mail.Enabled {
		t.Error("mail should default to disabled")
	}
	if cfg.Mail.Frequency != 60 || cfg.Mail.Port != 587 {
		t.Errorf("mail defaults wrong: freq=%d port=%d", cfg.Mail.Frequency, cfg.Mail.Port)
	}
	if len(cfg.Mail.Recipients) != 2 {
		t.Errorf("recipients = %v", cfg.Mail.Recipients)
	}
}

// 9. Message bodies keep their wire shape
func TestMessageBodies(t *testing.T) {
	text := alerting.ChatText("⚠️ Cameras Offline", []string{"🚨 Gate (3m)", "🚨 Lobby (8m)"})
	if text != "*⚠️ Cameras Offline*\n🚨 Gate (3m)\n🚨 Lobby (8m)" {
		t.Errorf("chat text = %q", text)
	}

	html := alerting.MailHTML([]string{"Gate is offline for 3 mins"})
	if !strings.HasPrefix(html, "<h3>System Alert</h3><ul>") || !strings.Contains(html, "<li>Gate is offline for 3 mins</li>") {
		t.Errorf("mail html = %q", html)
	}
}
