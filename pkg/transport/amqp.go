package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/service-weaver/probe-engine/pkg/hub"
)

const statusExchange = "weaver.status"

// AMQPPublisher fans every Hub StatusUpdate out to a fanout exchange. It is a no-op when built
// with an empty URL, so deployments without a broker configured pay no cost.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher dials url and declares the status exchange. An empty url yields a no-op
// publisher whose Publish calls are silently skipped.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	if url == "" {
		return &AMQPPublisher{}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("transport: dial amqp broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: open amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(statusExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("transport: declare amqp exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel}, nil
}

// Run subscribes to the Hub and publishes every StatusUpdate until the subscriber is closed.
// Intended to run in its own goroutine for the lifetime of the engine.
func (p *AMQPPublisher) Run(ctx context.Context, h *hub.Hub) {
	sub := h.Subscribe()
	defer sub.Close()

	for {
		msg, ok := sub.NextMessage()
		if !ok {
			return
		}
		if err := p.Publish(ctx, msg); err != nil {
			log.Printf("transport: amqp publish for service %d failed: %v", msg.ServiceID, err)
		}
	}
}

// Publish sends one StatusUpdate to the exchange. A no-op publisher returns nil immediately.
func (p *AMQPPublisher) Publish(ctx context.Context, msg hub.StatusUpdate) error {
	if p.channel == nil {
		return nil
	}

	frame := statusUpdateFrame{ServiceID: msg.ServiceID, Status: msg.Status, Timestamp: msg.Timestamp}
	body, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}

	return p.channel.PublishWithContext(ctx, statusExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Close tears the channel and connection down. Safe to call on a no-op publisher.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
