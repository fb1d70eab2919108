package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
)

// JobEventRoutingKey builds the topic routing key for an event.
func JobEventRoutingKey(event interfaces.JobEvent) string {
	return fmt.Sprintf("job.%s.%s", event.AccountID, event.EventType)
}

// rabbitPublisher owns one channel and serializes publishes on it.
type rabbitPublisher struct {
	mu       sync.Mutex
	ch       *amqp091.Channel
	exchange string
	logger   *zap.Logger
}

func newRabbitPublisher(conn *amqp091.Connection, exchange, kind string, logger *zap.Logger) (*rabbitPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		kind,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchange, err)
	}
	logger.Info("Exchange declared", zap.String("exchange", exchange), zap.String("type", kind))
	return &rabbitPublisher{ch: ch, exchange: exchange, logger: logger}, nil
}

func (p *rabbitPublisher) publish(ctx context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("exchange", p.exchange),
			zap.String("routing_key", routingKey),
			zap.Error(err))
		return fmt.Errorf("failed to publish to '%s': %w", p.exchange, err)
	}
	return nil
}

// Close releases the publishing channel.
func (p *rabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	return p.ch.Close()
}

// RabbitMQJobEventPublisher publishes job transitions to the job_events topic exchange.
type RabbitMQJobEventPublisher struct {
	*rabbitPublisher
}

var _ interfaces.JobEventPublisher = (*RabbitMQJobEventPublisher)(nil)

// NewRabbitMQJobEventPublisher declares the exchange and opens a publishing channel.
func NewRabbitMQJobEventPublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQJobEventPublisher, error) {
	p, err := newRabbitPublisher(conn, JobEventsExchange, exchangeTypeTopic, logger.Named("JobEventPublisher"))
	if err != nil {
		return nil, err
	}
	return &RabbitMQJobEventPublisher{rabbitPublisher: p}, nil
}

func (p *RabbitMQJobEventPublisher) PublishJobEvent(ctx context.Context, event interfaces.JobEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return p.publish(ctx, JobEventRoutingKey(event), event)
}

// RabbitMQTemplatePublisher publishes template changes to the template_updates fanout exchange.
type RabbitMQTemplatePublisher struct {
	*rabbitPublisher
}

var _ interfaces.TemplateEventPublisher = (*RabbitMQTemplatePublisher)(nil)

// NewRabbitMQTemplatePublisher declares the exchange and opens a publishing channel.
func NewRabbitMQTemplatePublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQTemplatePublisher, error) {
	p, err := newRabbitPublisher(conn, TemplateUpdatesExchange, exchangeTypeFanout, logger.Named("TemplatePublisher"))
	if err != nil {
		return nil, err
	}
	return &RabbitMQTemplatePublisher{rabbitPublisher: p}, nil
}

func (p *RabbitMQTemplatePublisher) PublishTemplateEvent(ctx context.Context, event interfaces.TemplateEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return p.publish(ctx, "", event)
}

// LogPublisher is used when no broker is configured; events go to the debug log.
type LogPublisher struct {
	logger *zap.Logger
}

var (
	_ interfaces.JobEventPublisher      = (*LogPublisher)(nil)
	_ interfaces.TemplateEventPublisher = (*LogPublisher)(nil)
)

// NewLogPublisher creates a publisher that only logs.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("LogPublisher")}
}

func (p *LogPublisher) PublishJobEvent(_ context.Context, event interfaces.JobEvent) error {
	p.logger.Debug("Job event",
		zap.String("event_type", string(event.EventType)),
		zap.String("job_id", event.JobID),
		zap.String("account_id", event.AccountID),
		zap.String("status", string(event.Status)))
	return nil
}

func (p *LogPublisher) PublishTemplateEvent(_ context.Context, event interfaces.TemplateEvent) error {
	p.logger.Debug("Template event",
		zap.String("event_type", string(event.EventType)),
		zap.String("template_id", event.TemplateID),
		zap.String("version_id", event.VersionID),
		zap.String("account_id", event.AccountID))
	return nil
}
