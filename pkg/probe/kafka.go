package probe

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

func probeKafka(ctx context.Context, spec Spec) Result {
	clientID := spec.KafkaClientID
	if clientID == "" {
		clientID = "service-weaver-healthcheck"
	}

	addr := fmt.Sprintf("%s:%d", spec.Host, spec.Port)
	dialer := &kafka.Dialer{ClientID: clientID}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("kafka dial failed: %w", err)}
	}
	defer conn.Close()

	if _, err := conn.Controller(); err != nil {
		return Result{Status: StatusDead, Err: fmt.Errorf("kafka controller metadata fetch failed: %w", err)}
	}

	if spec.KafkaTopic == "" {
		return Result{Status: StatusAlive}
	}

	partitions, err := conn.ReadPartitions(spec.KafkaTopic)
	if err != nil || len(partitions) == 0 {
		return Result{Status: StatusDegraded, Err: fmt.Errorf("topic %q missing or has no partitions", spec.KafkaTopic)}
	}
	return Result{Status: StatusAlive}
}
