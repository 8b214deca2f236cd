package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes reset events as persistent JSON messages on a
// durable queue. Each publish opens its own connection.
type AMQPNotifier struct {
	url   string
	queue string
}

func NewAMQPNotifier(url, queue string) *AMQPNotifier {
	return &AMQPNotifier{url: url, queue: queue}
}

func (n *AMQPNotifier) PasswordReset(ctx context.Context, event PasswordResetEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal reset event: %w", err)
	}

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error { return nil }
