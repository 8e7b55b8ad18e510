package probe

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

func probeSMTP(ctx context.Context, spec Spec) Result {
	addr := fmt.Sprintf("%s:%d", spec.Host, spec.Port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("smtp dial failed: %w", err)}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Duration(spec.TimeoutSec) * time.Second)
	}
	conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, spec.Host)
	if err != nil {
		conn.Close()
		return Result{Status: StatusDead, Err: fmt.Errorf("smtp handshake failed: %w", err)}
	}
	defer client.Close()

	if err := client.Noop(); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("smtp noop failed: %w", err)}
	}
	return Result{Status: StatusAlive}
}
