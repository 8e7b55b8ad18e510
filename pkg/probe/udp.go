package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

func probeUDP(ctx context.Context, spec Spec) Result {
	if spec.UDPSendData == "" {
		return Result{Status: StatusDead, Err: fmt.Errorf("send data required for udp probe")}
	}

	addr := fmt.Sprintf("%s:%d", spec.Host, spec.Port)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("udp dial failed: %w", err)}
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Duration(spec.TimeoutSec) * time.Second)
	}
	conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte(spec.UDPSendData)); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("udp write failed: %w", err)}
	}

	if spec.UDPExpectData == "" {
		return Result{Status: StatusAlive}
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("udp read failed: %w", err)}
	}
	if !strings.Contains(string(buf[:n]), spec.UDPExpectData) {
		return Result{Status: StatusDead, Err: fmt.Errorf("expected response %q not found", spec.UDPExpectData)}
	}
	return Result{Status: StatusAlive}
}
