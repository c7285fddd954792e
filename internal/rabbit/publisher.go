// Package rabbit is a thin AMQP publishing adapter. Events go to a single
// durable topic exchange keyed by event type.
package rabbit

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchange = "venuebook.events"

type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	const op = "rabbit.NewPublisher"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish sends one event. The message id carries the outbox record id so
// consumers can deduplicate redeliveries.
func (p *Publisher) Publish(ctx context.Context, eventType, messageID string, body []byte) error {
	const op = "rabbit.Publisher.Publish"

	err := p.ch.PublishWithContext(ctx, exchange, eventType, false, false, amqp.Publishing{
		MessageId:    messageID,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}

	return p.conn.Close()
}
