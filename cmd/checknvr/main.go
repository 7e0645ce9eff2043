// Command checknvr polls one recorder once and prints its channel table.
// Handy when onboarding an NVR: it verifies the credentials and shows which
// channel IDs the recorder reports before the monitor is pointed at it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/technosupport/ts-camwatch/internal/isapi"
)

func main() {
	ip := flag.String("ip", "", "recorder ip (required)")
	user := flag.String("user", "admin", "recorder username")
	password := flag.String("password", "", "recorder password (required)")
	timeout := flag.Duration("timeout", isapi.DefaultTimeout, "poll timeout")
	flag.Parse()

	if *ip == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Usage: checknvr -ip <addr> -password <pw> [-user admin] [-timeout 6s]")
		os.Exit(2)
	}

	client := isapi.NewClient(*timeout)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()

	start := time.Now()
	channels, err := client.ChannelStatuses(ctx, *ip, *user, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "poll failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("NVR %s answered in %v with %d channels\n", *ip, time.Since(start).Round(time.Millisecond), len(channels))
	for _, ch := range channels {
		state := "offline"
		if ch.Online {
			state = "online"
		}
		fmt.Printf("  channel %-4s %-8s %s\n", ch.ID, state, ch.IP)
	}
}
