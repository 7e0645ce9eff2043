package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/technosupport/ts-camwatch/internal/data"
	"github.com/technosupport/ts-camwatch/internal/events"
	"github.com/technosupport/ts-camwatch/internal/isapi"
)

// Outcome is what one reconciled tick hands to the alert scheduler.
type Outcome struct {
	// Observed holds every camera seen in a successful poll this tick,
	// with its in-memory fields already matching the database.
	Observed []*data.Camera
	// OutageStarts maps cameras that have never been seen online to the
	// start of their open downtime interval, which stands in for the
	// missing last_online when computing alert thresholds.
	OutageStarts map[int64]time.Time
	Transitions  []events.Transition
	// LogRows are the tick's transition and poll-failure log entries.
	// Reconciliation runs inside the tick transaction but log rows must
	// survive a rollback, so they are collected here and written on the
	// root handle once the transaction has ended. With the single-writer
	// sqlite pool a log insert from inside the transaction would also
	// block on the connection the transaction itself holds.
	LogRows []LogRow
}

// LogRow is one deferred log entry; the engine stamps the tick time on all of
// them when flushing.
type LogRow struct {
	Type    string
	State   string
	Details string
}

// reconcile folds poll results into the camera table: upserts identity
// fields, records status transitions, opens and closes downtime intervals.
// A failed poll produces one log row and leaves that recorder's cameras
// exactly as they were. The outcome is returned even on error so the log
// rows collected up to that point are not lost with the transaction.
func reconcile(ctx context.Context, repos *data.Repositories, now time.Time, results []PollResult, names map[string]string) (*Outcome, error) {
	out := &Outcome{OutageStarts: map[int64]time.Time{}}

	for _, res := range results {
		if res.Err != nil {
			details := fmt.Sprintf("NVR %s Failed: %v", res.NVR.IP, res.Err)
			out.LogRows = append(out.LogRows, LogRow{data.LogTypeCamera, data.StateError, details})
			continue
		}
		for _, ch := range res.Channels {
			cam, err := reconcileChannel(ctx, repos, now, res.NVR.IP, ch, names, out)
			if err != nil {
				return out, err
			}
			out.Observed = append(out.Observed, cam)
		}
	}
	return out, nil
}

func reconcileChannel(ctx context.Context, repos *data.Repositories, now time.Time, nvrIP string, ch isapi.ChannelStatus, names map[string]string, out *Outcome) (*data.Camera, error) {
	newStatus := data.StatusOffline
	if ch.Online {
		newStatus = data.StatusOnline
	}
	csvName := names[ch.IP]

	cam, err := repos.Cameras.GetByIdentity(ctx, nvrIP, ch.ID)
	if err != nil {
		return nil, err
	}

	// 1. First sighting: create the row, open an interval if it arrived dead.
	if cam == nil {
		cam = &data.Camera{
			Name:      csvName,
			IP:        ch.IP,
			NVRIP:     nvrIP,
			ChannelID: ch.ID,
			Status:    newStatus,
		}
		if cam.Name == "" {
			cam.Name = "Ch " + ch.ID
		}
		if ch.Online {
			cam.LastOnline = &now
		}
		if err := repos.Cameras.Insert(ctx, cam); err != nil {
			return nil, err
		}
		if newStatus == data.StatusOffline {
			if _, err := repos.Downtime.Open(ctx, cam.ID, now); err != nil {
				return nil, err
			}
			out.OutageStarts[cam.ID] = now
		}
		return cam, nil
	}

	// 2. Identity refresh. Renames come from the CSV only; a camera keeps
	// its stored name when the file has nothing for it.
	changed := false
	if csvName != "" && cam.Name != csvName {
		cam.Name = csvName
		changed = true
	}
	if cam.IP != ch.IP {
		cam.IP = ch.IP
		changed = true
	}

	// 3. Transition handling. The log line carries the refreshed name/ip.
	if cam.Status != newStatus {
		details := fmt.Sprintf("%s (%s)", cam.Name, cam.IP)
		out.LogRows = append(out.LogRows, LogRow{data.LogTypeCamera, newStatus, details})
		out.Transitions = append(out.Transitions, events.Transition{
			CameraID:  cam.ID,
			Name:      cam.Name,
			IP:        cam.IP,
			NVRIP:     cam.NVRIP,
			ChannelID: cam.ChannelID,
			From:      cam.Status,
			To:        newStatus,
			At:        now,
		})
		switch newStatus {
		case data.StatusOffline:
			if _, err := repos.Downtime.Open(ctx, cam.ID, now); err != nil {
				return nil, err
			}
			out.OutageStarts[cam.ID] = now
		case data.StatusOnline:
			if err := repos.Downtime.Close(ctx, cam.ID, now); err != nil {
				return nil, err
			}
		}
		cam.Status = newStatus
		changed = true
	}

	if ch.Online {
		cam.LastOnline = &now
		changed = true
	}

	if changed {
		if err := repos.Cameras.UpdateObserved(ctx, cam); err != nil {
			return nil, err
		}
	}

	// 4. Cameras that have never been online alert from their interval start.
	if cam.Status == data.StatusOffline && cam.LastOnline == nil {
		if _, ok := out.OutageStarts[cam.ID]; !ok {
			ev, err := repos.Downtime.GetOpen(ctx, cam.ID)
			if err != nil {
				return nil, err
			}
			if ev != nil {
				out.OutageStarts[cam.ID] = ev.StartTime
			}
		}
	}

	return cam, nil
}
