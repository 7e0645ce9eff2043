package alerting

import (
	"time"

	"github.com/technosupport/ts-camwatch/internal/data"
)

// Batches collects the four message lists one evaluation pass produces.
type Batches struct {
	ChatOutages    []string
	ChatRecoveries []string
	MailOutages    []string
	MailRecoveries []string
}

func (b *Batches) Empty() bool {
	return len(b.ChatOutages) == 0 && len(b.ChatRecoveries) == 0 &&
		len(b.MailOutages) == 0 && len(b.MailRecoveries) == 0
}

// Evaluate applies the per-sink gate to every camera reconciled this tick and
// mutates alert counters in place. outageStarts supplies the open interval
// start for cameras that have never been online, where last_online is still
// null but the outage is real. The returned cameras carry counter changes the
// caller must persist within the same tick transaction.
//
// Disabled sinks are skipped entirely: their counters neither advance on an
// outage nor produce batch lines. Recovery resets both counters regardless,
// so a sink toggled back on starts the next outage from a clean slate.
func Evaluate(now time.Time, observed []*data.Camera, outageStarts map[int64]time.Time, cfg Settings) (*Batches, []*data.Camera) {
	b := &Batches{}
	dirty := []*data.Camera{}

	for _, cam := range observed {
		if cam.Status == data.StatusOnline {
			changed := false
			if cam.TelegramAlertCount > 0 {
				if cfg.Telegram.Enabled {
					b.ChatRecoveries = append(b.ChatRecoveries, chatRecoveryLine(cam.Name))
				}
				cam.TelegramAlertCount = 0
				changed = true
			}
			if cam.MailAlertCount > 0 {
				if cfg.Mail.Enabled {
					b.MailRecoveries = append(b.MailRecoveries, mailRecoveryLine(cam.Name))
				}
				cam.MailAlertCount = 0
				changed = true
			}
			if changed {
				dirty = append(dirty, cam)
			}
			continue
		}
		if cam.Status != data.StatusOffline {
			continue
		}

		downtimeMin := downtimeMinutes(now, cam, outageStarts)
		changed := false

		if cfg.Telegram.Enabled && shouldSend(now, cam.TelegramAlertCount, cam.TelegramLastAlert, cam.Importance, downtimeMin, cfg.Telegram.SinkSettings) {
			muted := cam.TelegramAlertCount+1 >= cfg.Telegram.MuteAfter
			b.ChatOutages = append(b.ChatOutages, chatOutageLine(cam.Name, downtimeMin, muted))
			cam.TelegramAlertCount++
			t := now
			cam.TelegramLastAlert = &t
			changed = true
		}
		if cfg.Mail.Enabled && shouldSend(now, cam.MailAlertCount, cam.MailLastAlert, cam.Importance, downtimeMin, cfg.Mail.SinkSettings) {
			muted := cam.MailAlertCount+1 >= cfg.Mail.MuteAfter
			b.MailOutages = append(b.MailOutages, mailOutageLine(cam.Name, downtimeMin, muted))
			cam.MailAlertCount++
			t := now
			cam.MailLastAlert = &t
			changed = true
		}
		if changed {
			dirty = append(dirty, cam)
		}
	}
	return b, dirty
}

// shouldSend is the gate for one sink. Low-importance cameras wait a full
// repeat period instead of the short first delay; after the first alert only
// the repeat frequency matters; the mute cap ends the conversation until
// recovery.
func shouldSend(now time.Time, count int, lastAlert *time.Time, importance, downtimeMin int, s SinkSettings) bool {
	if count >= s.MuteAfter {
		return false
	}
	if count == 0 {
		threshold := s.FirstDelay
		if importance == data.ImportanceLow {
			threshold = s.Frequency
		}
		return downtimeMin >= threshold
	}
	last := now
	if lastAlert != nil {
		last = *lastAlert
	}
	return now.Sub(last) >= time.Duration(s.Frequency)*time.Minute
}

func downtimeMinutes(now time.Time, cam *data.Camera, outageStarts map[int64]time.Time) int {
	since := now
	if cam.LastOnline != nil {
		since = *cam.LastOnline
	} else if start, ok := outageStarts[cam.ID]; ok {
		since = start
	}
	d := now.Sub(since)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
