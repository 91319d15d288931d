package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemy-game-studios/game-planner/internal/util"
	"github.com/alchemy-game-studios/game-planner/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	Exchange       = "canon"
	BindingKey     = "canon.#"
	DefaultQueue   = "canon_events"
	retryTTLMillis = int32(10000)
	maxRetries     = 10
)

// Enabled reports whether a broker host is configured.
func Enabled() bool {
	return util.GetEnv("RABBITMQ_HOST") != ""
}

// QueueName is CANON_EVENTS_QUEUE or DefaultQueue.
func QueueName() string {
	return util.GetEnvString("CANON_EVENTS_QUEUE", DefaultQueue)
}

// Connect dials RabbitMQ from the RABBITMQ_* variables, retrying while the
// broker starts up.
func Connect(ctx context.Context) (*amqp091.Connection, error) {
	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnv("RABBITMQ_HOST"),
		util.GetEnvString("RABBITMQ_PORT", "5672"),
	)

	return util.RetryWithContext(ctx, 5, time.Second, func(context.Context) (*amqp091.Connection, error) {
		conn, err := amqp091.Dial(connURL)
		if err != nil {
			logger.Warn("[Queue] RabbitMQ not reachable yet", "err", err)
			return nil, err
		}
		return conn, nil
	})
}

// Queue names a consumed queue. Retry queues own _retry and _dlq companions
// that failed invalidations are parked in.
type Queue struct {
	Name  string
	Retry bool
}

// SetupQueue declares the canon topic exchange, the shared durable event
// queue bound to it and the queue's retry and dead-letter companions.
func SetupQueue(ch *amqp091.Channel, name string) (Queue, error) {
	if err := declareExchange(ch); err != nil {
		return Queue{}, err
	}

	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return Queue{}, fmt.Errorf("queue declare %s failed: %w", name, err)
	}
	if err := ch.QueueBind(name, BindingKey, Exchange, false, nil); err != nil {
		return Queue{}, fmt.Errorf("queue bind %s failed: %w", name, err)
	}

	_, err = ch.QueueDeclare(dlqName(name), true, false, false, false, nil)
	if err != nil {
		return Queue{}, fmt.Errorf("queue declare %s failed: %w", dlqName(name), err)
	}

	_, err = ch.QueueDeclare(
		retryName(name),
		true,
		false,
		false,
		false,
		amqp091.Table{
			"x-message-ttl":             retryTTLMillis,
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": name,
		},
	)
	if err != nil {
		return Queue{}, fmt.Errorf("queue declare %s failed: %w", retryName(name), err)
	}
	return Queue{Name: name, Retry: true}, nil
}

// SetupInstanceQueue declares a broker-named exclusive queue bound to the
// canon exchange, so every process holding a private cache sees every event.
// It lives as long as the channel's connection.
func SetupInstanceQueue(ch *amqp091.Channel) (Queue, error) {
	if err := declareExchange(ch); err != nil {
		return Queue{}, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return Queue{}, fmt.Errorf("instance queue declare failed: %w", err)
	}
	if err := ch.QueueBind(q.Name, BindingKey, Exchange, false, nil); err != nil {
		return Queue{}, fmt.Errorf("queue bind %s failed: %w", q.Name, err)
	}
	return Queue{Name: q.Name}, nil
}

func declareExchange(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("exchange declare failed: %w", err)
	}
	return nil
}

func dlqName(queueName string) string   { return queueName + "_dlq" }
func retryName(queueName string) string { return queueName + "_retry" }

// Publisher is the publishing half of an amqp091 channel.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// PublishEvent sends event to the canon exchange under canon.<type>.
func PublishEvent(pub Publisher, event Event) error {
	body, err := event.Encode()
	if err != nil {
		return err
	}
	return pub.Publish(
		Exchange,
		event.RoutingKey(),
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
