package probe

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func probeGRPC(ctx context.Context, spec Spec) Result {
	addr := fmt.Sprintf("%s:%d", spec.Host, spec.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("grpc dial failed: %w", err)}
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: spec.HealthcheckPath})
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.Unimplemented {
			return Result{Status: StatusDegraded, Err: fmt.Errorf("health service unimplemented: %w", err)}
		}
		return Result{Status: StatusDead, Err: fmt.Errorf("grpc health check failed: %w", err)}
	}

	if resp.Status == healthpb.HealthCheckResponse_SERVING {
		return Result{Status: StatusAlive}
	}
	return Result{Status: StatusDegraded, Err: fmt.Errorf("grpc health status: %s", resp.Status)}
}
