package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/technosupport/ts-camwatch/internal/events"
)

// 1. A publisher without a broker drops events instead of failing the tick
func TestPublish_NilSafe(t *testing.T) {
	ctx := context.Background()

	var p *events.Publisher
	if err := p.Publish(ctx, events.Transition{To: "Offline"}); err != nil {
		t.Errorf("nil publisher returned %v", err)
	}

	p = events.NewPublisher(nil, "camwatch.transitions", 3)
	if err := p.Publish(ctx, events.Transition{To: "Offline"}); err != nil {
		t.Errorf("publisher without conn returned %v", err)
	}
}

// 2. Wire shape stays stable for downstream consumers
func TestTransition_JSON(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := events.Transition{
		ID:        "evt-1",
		CameraID:  7,
		Name:      "Gate",
		IP:        "10.0.0.51",
		NVRIP:     "10.0.0.5",
		ChannelID: "1",
		From:      "Online",
		To:        "Offline",
		At:        at,
	}

	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "camera_id", "name", "ip", "nvr_ip", "channel_id", "from", "to", "at"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing field %q in %s", key, data)
		}
	}
}
