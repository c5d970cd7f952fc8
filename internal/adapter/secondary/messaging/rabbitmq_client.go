package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alxtravel/travel-payments/internal/port/output"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeName  = "travel.jobs"
	QueueName     = "notifications"
	RoutingKey    = "job.notification"
	PrefetchCount = 1 // Process one message at a time per worker
)

// JobMessage is the envelope published for every background job
type JobMessage struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Args       json.RawMessage `json:"args"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewJobMessage wraps args in a job envelope
func NewJobMessage(name string, args any) (JobMessage, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return JobMessage{}, fmt.Errorf("failed to marshal job args: %w", err)
	}
	return JobMessage{
		ID:         uuid.New(),
		Name:       name,
		Args:       raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// RabbitMQClient is a secondary adapter that implements the JobQueue output port
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	log     *zap.Logger
}

// NewRabbitMQClient creates a new RabbitMQ client (returns interface for ports)
func NewRabbitMQClient(amqpURL string, log *zap.Logger) (output.JobQueue, error) {
	return NewRabbitMQClientConcrete(amqpURL, log)
}

// NewRabbitMQClientConcrete creates a new RabbitMQ client (returns concrete type for workers)
func NewRabbitMQClientConcrete(amqpURL string, log *zap.Logger) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: channel,
		log:     log.Named("rabbitmq"),
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// Enqueue publishes a persistent job message
func (c *RabbitMQClient) Enqueue(ctx context.Context, name string, args any) error {
	message, err := NewJobMessage(name, args)
	if err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.PublishWithContext(
		ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    message.ID.String(),
			Type:         name,
			Body:         body,
			Timestamp:    message.EnqueuedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.log.Debug("published job", zap.String("job", name), zap.String("job_id", message.ID.String()))
	return nil
}

// ConsumeJobs starts consuming job messages. Messages whose handler error is
// permanent are acknowledged and dropped; other failures are requeued once
// and dropped if they fail again on redelivery.
func (c *RabbitMQClient) ConsumeJobs(handler func(JobMessage) error, isPermanent func(error) bool) error {
	err := c.channel.Qos(
		PrefetchCount,
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack (we'll manually ack after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("started consuming jobs", zap.String("queue", QueueName))

	go func() {
		for msg := range msgs {
			var job JobMessage
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				c.log.Error("dropping undecodable message", zap.Error(err))
				_ = msg.Nack(false, false)
				continue
			}

			fields := []zap.Field{zap.String("job", job.Name), zap.String("job_id", job.ID.String())}
			if err := handler(job); err != nil {
				switch {
				case isPermanent != nil && isPermanent(err):
					c.log.Error("job failed permanently", append(fields, zap.Error(err))...)
					_ = msg.Ack(false)
				case msg.Redelivered:
					c.log.Error("job failed after redelivery, dropping", append(fields, zap.Error(err))...)
					_ = msg.Nack(false, false)
				default:
					c.log.Warn("job failed, requeueing", append(fields, zap.Error(err))...)
					_ = msg.Nack(false, true)
				}
				continue
			}

			_ = msg.Ack(false)
			c.log.Info("job processed", fields...)
		}
	}()

	return nil
}

// Close closes the RabbitMQ connection
func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
