package probe

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// clampICMPPacketCount enforces a [1,10] packet count range, defaulting unset (0) to 3.
func clampICMPPacketCount(n int) int {
	if n == 0 {
		return 3
	}
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

func probeICMP(ctx context.Context, spec Spec) Result {
	pinger, err := probing.NewPinger(spec.Host)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("create pinger: %w", err)}
	}

	pinger.Count = clampICMPPacketCount(spec.ICMPPacketCount)
	pinger.Timeout = time.Duration(spec.TimeoutSec) * time.Second
	// Privileged raw-socket mode requires CAP_NET_RAW or root; without it pinger.Run below
	// fails outright rather than degrading to unprivileged UDP-based ping.
	pinger.SetPrivileged(true)

	done := make(chan error, 1)
	go func() { done <- pinger.Run() }()

	select {
	case <-ctx.Done():
		pinger.Stop()
		return Result{Status: StatusDead, Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return Result{Status: StatusDead, Err: fmt.Errorf("ping execution failed: %w", err)}
		}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return Result{Status: StatusDead, Err: fmt.Errorf("0 received (sent %d, loss %.1f%%)", stats.PacketsSent, stats.PacketLoss)}
	}
	return Result{Status: StatusAlive}
}
