package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher hands reset emails to RabbitMQ. It opens a connection per
// publish; reset requests are rare enough that pooling is not worth the
// reconnect handling.
type Publisher struct {
	URL    string
	Queue  string
	Logger *slog.Logger
	now    func() time.Time
}

func NewPublisher(url, queue string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{URL: url, Queue: queue, Logger: logger, now: time.Now}
}

// Send publishes a PasswordResetEmail. Errors are logged and returned so the
// caller can report the delivery failure.
func (p *Publisher) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	body, err := json.Marshal(PasswordResetEmail{
		To:          to,
		Subject:     subject,
		Text:        textBody,
		HTML:        htmlBody,
		RequestedAt: p.now().UTC(),
	})
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.ErrorContext(ctx, "rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.ErrorContext(ctx, "rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if err := declareQueue(ch, p.Queue); err != nil {
		p.Logger.ErrorContext(ctx, "rabbitmq: queue declare failed", "queue", p.Queue, "error", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.Logger.ErrorContext(ctx, "rabbitmq: publish failed", "queue", p.Queue, "error", err)
		return err
	}
	return nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return err
}
