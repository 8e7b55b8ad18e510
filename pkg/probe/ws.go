package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

func probeWebsocket(ctx context.Context, spec Spec) Result {
	if spec.HealthcheckPath == "" {
		return Result{Status: StatusDead, Err: fmt.Errorf("healthcheckPath required for %s", spec.Method)}
	}

	scheme := "ws"
	if spec.Method == MethodWSS {
		scheme = "wss"
	}
	url := fmt.Sprintf("%s://%s:%d%s", scheme, spec.Host, spec.Port, spec.HealthcheckPath)

	dialer := websocket.Dialer{
		HandshakeTimeout: time.Duration(spec.TimeoutSec) * time.Second,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: scheme == "wss" && !spec.SSLVerify},
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("websocket dial failed: %w", err)}
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Duration(spec.TimeoutSec) * time.Second)
	}

	if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("ping frame failed: %w", err)}
	}

	pong := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})
	conn.SetReadDeadline(deadline)

	read := make(chan error, 1)
	go func() {
		_, _, err := conn.ReadMessage()
		read <- err
	}()

	select {
	case <-pong:
		return Result{Status: StatusAlive}
	case err := <-read:
		if err != nil {
			return Result{Status: StatusDead, Err: fmt.Errorf("no response frame: %w", err)}
		}
		return Result{Status: StatusAlive}
	case <-time.After(time.Until(deadline)):
		return Result{Status: StatusDead, Err: fmt.Errorf("no response frame before deadline")}
	}
}
