package amqpmail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MrEthical07/mediauth/mailer"
)

// DefaultQueue is used when no queue name is configured.
const DefaultQueue = "mediauth.mail"

// Publisher is the publishing half of *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Mailer publishes messages to a queue through the default exchange.
type Mailer struct {
	pub   Publisher
	queue string
	now   func() time.Time
}

var _ mailer.Mailer = (*Mailer)(nil)

func New(pub Publisher, queue string) *Mailer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Mailer{pub: pub, queue: queue, now: time.Now}
}

func (m *Mailer) Send(ctx context.Context, msg mailer.Message) error {
	const op = "amqpmail.Send"

	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = m.pub.PublishWithContext(ctx, "", m.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    m.now(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Client owns a connection and one channel bound to a declared queue.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// Dial connects to url and declares queue as durable.
func Dial(url, queue string) (*Client, error) {
	const op = "amqpmail.Dial"

	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Client{conn: conn, channel: ch, queue: queue}, nil
}

func (c *Client) Mailer() *Mailer {
	return New(c.channel, c.queue)
}

func (c *Client) Channel() *amqp.Channel { return c.channel }

func (c *Client) Queue() string { return c.queue }

func (c *Client) Close() error {
	chErr := c.channel.Close()
	connErr := c.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}
