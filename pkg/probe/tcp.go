package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

func probeTCP(ctx context.Context, spec Spec) Result {
	addr := fmt.Sprintf("%s:%d", spec.Host, spec.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("tcp dial failed: %w", err)}
	}
	defer conn.Close()

	if spec.TCPSendData == "" {
		return Result{Status: StatusAlive}
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(time.Duration(spec.TimeoutSec) * time.Second))
	}

	if _, err := conn.Write([]byte(spec.TCPSendData)); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("tcp write failed: %w", err)}
	}

	if spec.TCPExpectData == "" {
		return Result{Status: StatusAlive}
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("tcp read failed: %w", err)}
	}
	if !strings.Contains(string(buf[:n]), spec.TCPExpectData) {
		return Result{Status: StatusDead, Err: fmt.Errorf("expected response %q not found", spec.TCPExpectData)}
	}
	return Result{Status: StatusAlive}
}
