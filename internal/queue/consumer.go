package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Invalidator drops cached resolver results.
type Invalidator interface {
	ClearAllCaches(ctx context.Context) error
}

// Consume processes canon events from q until ctx ends or the delivery
// channel closes. Prefetch is one message.
func Consume(ctx context.Context, ch *amqp091.Channel, q Queue, inv Invalidator) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		q.Name+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", q.Name, err)
	}

	logger.Info("[Queue] Listening for canon events", "queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", q.Name)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("[Queue] Message channel closed", "queue", q.Name)
				return nil
			}
			Process(ctx, ch, inv, msg, q)
		}
	}
}

// Process handles one delivery. Malformed events are acked and dropped.
// Failed invalidations go to the retry queue, or the dead-letter queue after
// maxRetries attempts; without retry companions they are requeued once.
func Process(ctx context.Context, pub Publisher, inv Invalidator, msg amqp091.Delivery, q Queue) {
	event, err := DecodeEvent(msg.Body)
	if err != nil {
		logger.Warn("[Queue] Dropping malformed event", "queue", q.Name, "err", err)
		ack(msg)
		return
	}

	if err := inv.ClearAllCaches(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			msg.Nack(false, true)
			return
		}
		logger.Error("[Queue] Failed to invalidate caches", "event", event.Type, "err", err)
		if !q.Retry {
			msg.Nack(false, !msg.Redelivered)
			return
		}
		handleProcessingError(pub, msg, q.Name)
		return
	}

	ack(msg)
	logger.Debug("[Queue] Caches invalidated", "event", event.Type, "entities", len(event.EntityIDs))
}

func ack(msg amqp091.Delivery) {
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
}

func retries(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func handleProcessingError(pub Publisher, msg amqp091.Delivery, queueName string) {
	n := retries(msg.Headers)

	if n >= maxRetries {
		logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName(queueName))
		err := pub.Publish("", dlqName(queueName), false, false, amqp091.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     msg.Headers,
		})
		if err != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName(queueName), "err", err)
			msg.Nack(false, true)
			return
		}
		ack(msg)
		return
	}

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retries"] = int32(n + 1)

	err := pub.Publish("", retryName(queueName), false, false, amqp091.Publishing{
		ContentType: msg.ContentType,
		Body:        msg.Body,
		Headers:     headers,
	})
	if err != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName(queueName), "err", err)
		msg.Nack(false, true)
		return
	}
	ack(msg)
}
