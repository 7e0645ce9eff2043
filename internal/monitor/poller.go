package monitor

import (
	"context"
	"sync"

	"github.com/technosupport/ts-camwatch/internal/data"
	"github.com/technosupport/ts-camwatch/internal/isapi"
)

// NVRClient is the slice of the ISAPI client the poller needs.
type NVRClient interface {
	ChannelStatuses(ctx context.Context, ip, username, password string) ([]isapi.ChannelStatus, error)
}

// PollResult pairs an NVR with what its status endpoint returned.
type PollResult struct {
	NVR      *data.NVR
	Channels []isapi.ChannelStatus
	Err      error
}

// Poller fans one status request per NVR out to a bounded pool.
type Poller struct {
	client  NVRClient
	workers int
}

func NewPoller(client NVRClient, workers int) *Poller {
	if workers <= 0 {
		workers = 16
	}
	return &Poller{client: client, workers: workers}
}

// PollAll blocks until every NVR has been polled. Results keep the input
// order so callers can pair them back up without a lookup.
func (p *Poller) PollAll(ctx context.Context, nvrs []*data.NVR) []PollResult {
	results := make([]PollResult, len(nvrs))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, nvr := range nvrs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, nvr *data.NVR) {
			defer wg.Done()
			defer func() { <-sem }()

			channels, err := p.client.ChannelStatuses(ctx, nvr.IP, nvr.User, nvr.Password)
			results[i] = PollResult{NVR: nvr, Channels: channels, Err: err}
		}(i, nvr)
	}
	wg.Wait()
	return results
}
