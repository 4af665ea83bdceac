package amqpmail

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/mediauth/mailer"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.calls = append(p.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return p.err
}

type ackRecorder struct {
	mu      sync.Mutex
	acks    []uint64
	nacks   []uint64
	requeue []bool
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks = append(a.nacks, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestMailerPublishesPersistentJSON(t *testing.T) {
	pub := &fakePublisher{}
	m := New(pub, "")
	m.now = func() time.Time { return time.Unix(1700000000, 0) }

	msg := mailer.Message{To: "alice@example.com", Subject: "Forget Password link", Body: "<p>hi</p>"}
	require.NoError(t, m.Send(context.Background(), msg))
	require.Len(t, pub.calls, 1)

	call := pub.calls[0]
	assert.Equal(t, "", call.exchange)
	assert.Equal(t, DefaultQueue, call.key)
	assert.Equal(t, "application/json", call.msg.ContentType)
	assert.Equal(t, amqp.Persistent, call.msg.DeliveryMode)

	var decoded mailer.Message
	require.NoError(t, json.Unmarshal(call.msg.Body, &decoded))
	assert.Equal(t, msg, decoded)
}

func TestMailerRejectsInvalidMessage(t *testing.T) {
	pub := &fakePublisher{}
	err := New(pub, "q").Send(context.Background(), mailer.Message{To: "a@example.com"})
	assert.ErrorIs(t, err, mailer.ErrInvalidMessage)
	assert.Empty(t, pub.calls)
}

func TestMailerReportsPublishFailure(t *testing.T) {
	boom := errors.New("channel closed")
	err := New(&fakePublisher{err: boom}, "q").Send(context.Background(), mailer.Message{To: "a@example.com", Subject: "s"})
	assert.ErrorIs(t, err, boom)
}

func delivery(acks *ackRecorder, tag uint64, body []byte) amqp.Delivery {
	return amqp.Delivery{Acknowledger: acks, DeliveryTag: tag, Body: body}
}

func TestRelayAcksSentAndNacksFailures(t *testing.T) {
	var sent []mailer.Message
	next := mailer.Func(func(_ context.Context, msg mailer.Message) error {
		if msg.To == "bounce@example.com" {
			return errors.New("mailbox unavailable")
		}
		sent = append(sent, msg)
		return nil
	})

	good, err := json.Marshal(mailer.Message{To: "alice@example.com", Subject: "s"})
	require.NoError(t, err)
	bounce, err := json.Marshal(mailer.Message{To: "bounce@example.com", Subject: "s"})
	require.NoError(t, err)

	acks := &ackRecorder{}
	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- delivery(acks, 1, good)
	deliveries <- delivery(acks, 2, []byte("{not json"))
	deliveries <- delivery(acks, 3, bounce)
	close(deliveries)

	require.NoError(t, NewRelay(next, nil).Run(context.Background(), deliveries))

	assert.Equal(t, []uint64{1}, acks.acks)
	assert.Equal(t, []uint64{2, 3}, acks.nacks)
	assert.Equal(t, []bool{false, false}, acks.requeue)
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
}

func TestRelayStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan amqp.Delivery)

	done := make(chan error, 1)
	go func() {
		done <- NewRelay(mailer.Func(func(context.Context, mailer.Message) error { return nil }), nil).Run(ctx, deliveries)
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

type fakeConsumer struct {
	prefetch int
	autoAck  bool
	queue    string
	qosErr   error
}

func (c *fakeConsumer) Qos(prefetchCount, _ int, _ bool) error {
	c.prefetch = prefetchCount
	return c.qosErr
}

func (c *fakeConsumer) Consume(queue, _ string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	c.queue = queue
	c.autoAck = autoAck
	return make(chan amqp.Delivery), nil
}

func TestConsumeUsesManualAck(t *testing.T) {
	c := &fakeConsumer{}
	ch, err := Consume(c, "")
	require.NoError(t, err)
	assert.NotNil(t, ch)
	assert.Equal(t, 1, c.prefetch)
	assert.False(t, c.autoAck)
	assert.Equal(t, DefaultQueue, c.queue)

	_, err = Consume(&fakeConsumer{qosErr: errors.New("closed")}, "q")
	assert.Error(t, err)
}
