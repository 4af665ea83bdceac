package amqpmail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MrEthical07/mediauth/mailer"
)

// Consumer is the consuming half of *amqp.Channel.
type Consumer interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Relay forwards queued messages to a concrete mailer.
type Relay struct {
	next   mailer.Mailer
	logger *slog.Logger
}

func NewRelay(next mailer.Mailer, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Relay{next: next, logger: logger}
}

// Consume registers a manual-ack consumer on queue with a prefetch of one.
func Consume(ch Consumer, queue string) (<-chan amqp.Delivery, error) {
	const op = "amqpmail.Consume"

	if queue == "" {
		queue = DefaultQueue
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deliveries, nil
}

// Run handles deliveries until ctx is done or the delivery channel closes.
// A closed channel (broker connection lost) returns nil.
func (r *Relay) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			r.handle(ctx, d)
		}
	}
}

func (r *Relay) handle(ctx context.Context, d amqp.Delivery) {
	log := r.logger.With(slog.Uint64("delivery_tag", d.DeliveryTag))

	var msg mailer.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Error("failed to decode queued mail", slog.String("error", err.Error()))
		r.nack(log, d)
		return
	}

	if err := r.next.Send(ctx, msg); err != nil {
		log.Error("failed to relay queued mail", slog.String("error", err.Error()))
		r.nack(log, d)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Warn("failed to ack delivery", slog.String("error", err.Error()))
		return
	}
	log.Debug("queued mail relayed")
}

func (r *Relay) nack(log *slog.Logger, d amqp.Delivery) {
	if err := d.Nack(false, false); err != nil {
		log.Warn("failed to nack delivery", slog.String("error", err.Error()))
	}
}
