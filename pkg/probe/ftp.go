package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"
)

func probeFTP(ctx context.Context, spec Spec) Result {
	addr := fmt.Sprintf("%s:%d", spec.Host, spec.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("ftp dial failed: %w", err)}
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Duration(spec.TimeoutSec) * time.Second)
	}
	conn.SetDeadline(deadline)

	reader := bufio.NewReader(conn)
	if _, err := reader.ReadString('\n'); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("ftp banner read failed: %w", err)}
	}

	if _, err := conn.Write([]byte("QUIT\r\n")); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("ftp quit write failed: %w", err)}
	}
	if _, err := reader.ReadString('\n'); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("ftp quit response read failed: %w", err)}
	}
	return Result{Status: StatusAlive}
}
