// Package amqpmail queues outbound mail on RabbitMQ instead of sending it
// inline.
//
// Mailer publishes each mailer.Message as a persistent JSON delivery on a
// durable queue. Relay drains that queue and hands every message to a
// concrete transport, usually smtpmail. Deliveries that cannot be decoded or
// sent are nacked without requeue so a poison message never loops; configure
// a dead-letter exchange on the queue to keep them.
//
// Since publishing succeeds once the broker accepts the delivery, the
// password reset flow treats a queued message as sent. SMTP failures after
// that point surface only in the relay's logs.
package amqpmail
