// Package reports turns raw downtime intervals into the per-camera
// availability figures served by the admin API.
package reports

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/technosupport/ts-camwatch/internal/data"
)

// SpanSource is the slice of the downtime store the builder needs.
// data.DowntimeModel satisfies it.
type SpanSource interface {
	ListOverlapping(ctx context.Context, start, end time.Time) ([]*data.DowntimeSpan, error)
	ListCameraOverlapping(ctx context.Context, cameraID int64, start, end time.Time) ([]*data.DowntimeSpan, error)
}

// Row is one camera's total downtime inside a report window.
type Row struct {
	CameraID int64  `json:"camera_id"`
	Name     string `json:"name"`
	Minutes  int64  `json:"minutes"`
}

// CameraStats holds the rolling per-camera figures behind the stats endpoint.
type CameraStats struct {
	Down1hMinutes  int64 `json:"down_1h_minutes"`
	Down24hMinutes int64 `json:"down_24h_minutes"`
}

type cachedStats struct {
	stats CameraStats
	at    time.Time
}

const (
	statsCacheSize = 512
	statsCacheTTL  = 30 * time.Second
)

// Builder computes report rows and per-camera stats. Stats are cached for a
// short TTL because dashboards poll them far more often than they change.
type Builder struct {
	downtime SpanSource
	cacheTTL time.Duration
	stats    *lru.Cache[int64, cachedStats]
}

func NewBuilder(downtime SpanSource) *Builder {
	c, _ := lru.New[int64, cachedStats](statsCacheSize)
	return &Builder{
		downtime: downtime,
		cacheTTL: statsCacheTTL,
		stats:    c,
	}
}

// Range aggregates downtime per camera over [start, end). Open intervals run
// until now before clipping, so a camera that is still down accrues time up to
// the moment of the query and no further.
func (b *Builder) Range(ctx context.Context, start, end, now time.Time) ([]Row, error) {
	spans, err := b.downtime.ListOverlapping(ctx, start, end)
	if err != nil {
		return nil, err
	}

	rows := []Row{}
	totals := map[int64]time.Duration{}
	index := map[int64]int{}
	for _, s := range spans {
		d := clip(s, start, end, now)
		if d <= 0 {
			continue
		}
		if _, ok := index[s.CameraID]; !ok {
			index[s.CameraID] = len(rows)
			rows = append(rows, Row{CameraID: s.CameraID, Name: s.CameraName})
		}
		totals[s.CameraID] += d
	}
	for i := range rows {
		rows[i].Minutes = int64(totals[rows[i].CameraID].Minutes())
	}
	return rows, nil
}

// Stats returns the camera's downtime over the last hour and last 24 hours,
// serving a cached value when one is fresh enough.
func (b *Builder) Stats(ctx context.Context, cameraID int64, now time.Time) (CameraStats, error) {
	if c, ok := b.stats.Get(cameraID); ok && now.Sub(c.at) < b.cacheTTL {
		return c.stats, nil
	}

	dayAgo := now.Add(-24 * time.Hour)
	spans, err := b.downtime.ListCameraOverlapping(ctx, cameraID, dayAgo, now)
	if err != nil {
		return CameraStats{}, err
	}

	hourAgo := now.Add(-time.Hour)
	var d1, d24 time.Duration
	for _, s := range spans {
		d24 += clip(s, dayAgo, now, now)
		d1 += clip(s, hourAgo, now, now)
	}

	stats := CameraStats{
		Down1hMinutes:  int64(d1.Minutes()),
		Down24hMinutes: int64(d24.Minutes()),
	}
	b.stats.Add(cameraID, cachedStats{stats: stats, at: now})
	return stats, nil
}

// clip returns how much of the span falls inside [start, end), treating an
// open span as ending at now.
func clip(s *data.DowntimeSpan, start, end, now time.Time) time.Duration {
	from := s.StartTime
	if from.Before(start) {
		from = start
	}
	to := now
	if s.EndTime != nil {
		to = *s.EndTime
	}
	if to.After(end) {
		to = end
	}
	if !to.After(from) {
		return 0
	}
	return to.Sub(from)
}
