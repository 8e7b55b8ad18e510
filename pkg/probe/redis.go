package probe

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func probeRedis(ctx context.Context, spec Spec) Result {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", spec.Host, spec.Port),
	})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("redis ping failed: %w", err)}
	}
	return Result{Status: StatusAlive}
}
