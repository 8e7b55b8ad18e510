package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// probeSSH opens a transport with fixed low-privilege credentials. Any auth or transport
// failure renders Dead, the same as a real healthcheck account without a usable shell would.
func probeSSH(ctx context.Context, spec Spec) Result {
	addr := fmt.Sprintf("%s:%d", spec.Host, spec.Port)
	timeout := time.Duration(spec.TimeoutSec) * time.Second

	config := &ssh.ClientConfig{
		User:            "healthcheck",
		Auth:            []ssh.AuthMethod{ssh.Password("healthcheck")},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("ssh dial failed: %w", err)}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return Result{Status: StatusDead, Err: fmt.Errorf("ssh handshake failed: %w", err)}
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("ssh session failed: %w", err)}
	}
	defer session.Close()

	out, err := session.Output("echo 'healthcheck'")
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("ssh command failed: %w", err)}
	}
	if !strings.Contains(string(out), "healthcheck") {
		return Result{Status: StatusDead, Err: fmt.Errorf("unexpected ssh command output")}
	}
	return Result{Status: StatusAlive}
}
