package alerting

import (
	"fmt"
	"time"

	"github.com/technosupport/ts-camwatch/internal/data"
)

// BuildSummary renders the top-of-hour downtime digest for cameras that are
// still Offline. Minutes are clipped to the hour that just ended, so a camera
// down since yesterday reports 60 and one that dropped at :47 reports 13.
// Cameras that have never been online carry no watermark and are left out.
func BuildSummary(now time.Time, offline []*data.Camera) (string, []string) {
	hourStart := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location()).
		Add(-time.Hour)

	lines := []string{}
	for _, cam := range offline {
		if cam.Status != data.StatusOffline {
			continue
		}
		since := now
		if cam.LastOnline != nil {
			since = *cam.LastOnline
		}
		if since.Before(hourStart) {
			since = hourStart
		}
		if m := int(now.Sub(since) / time.Minute); m > 0 {
			lines = append(lines, fmt.Sprintf("%s: %dm", cam.Name, m))
		}
	}

	header := fmt.Sprintf("📊 Hourly Downtime Summary (%02d:00)", now.Hour())
	return header, lines
}
