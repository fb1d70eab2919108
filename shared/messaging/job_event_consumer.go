package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"content-pipeline/shared/interfaces"
)

// JobEventHandler receives decoded job events.
type JobEventHandler interface {
	HandleJobEvent(event interfaces.JobEvent)
}

// JobEventConsumer binds a private queue to the job_events exchange and
// forwards every delivery to a handler.
type JobEventConsumer struct {
	conn        *amqp091.Connection
	ch          *amqp091.Channel
	handler     JobEventHandler
	logger      *zap.Logger
	queueName   string
	bindingKey  string
	consumerTag string
}

// NewJobEventConsumer declares the exchange, a server-named exclusive queue
// and the binding for bindingKey (JobEventsBindingAll when empty).
func NewJobEventConsumer(conn *amqp091.Connection, handler JobEventHandler, bindingKey string, logger *zap.Logger) (*JobEventConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("job event handler is nil")
	}
	if bindingKey == "" {
		bindingKey = JobEventsBindingAll
	}
	consumerTag := fmt.Sprintf("job_event_consumer_%d", time.Now().UnixNano())
	c := &JobEventConsumer{
		conn:        conn,
		handler:     handler,
		logger:      logger.Named("JobEventConsumer").With(zap.String("consumer_tag", consumerTag)),
		bindingKey:  bindingKey,
		consumerTag: consumerTag,
	}
	if err := c.setupChannelAndQueue(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *JobEventConsumer) setupChannelAndQueue() error {
	var err error
	c.ch, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err = c.ch.ExchangeDeclare(JobEventsExchange, exchangeTypeTopic, true, false, false, false, nil); err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare exchange '%s': %w", JobEventsExchange, err)
	}
	q, err := c.ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	c.queueName = q.Name
	if err = c.ch.QueueBind(c.queueName, c.bindingKey, JobEventsExchange, false, nil); err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.queueName, JobEventsExchange, err)
	}
	c.logger.Info("Job event queue bound", zap.String("queue", c.queueName), zap.String("binding_key", c.bindingKey))
	return nil
}

// Run consumes until ctx is done or the channel closes.
func (c *JobEventConsumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(c.queueName, c.consumerTag, false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return c.Stop()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("job event deliveries channel closed")
			}
			event, err := decodeJobEvent(d.Body)
			if err != nil {
				c.logger.Error("Dropping malformed job event", zap.String("routing_key", d.RoutingKey), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			c.handler.HandleJobEvent(event)
			if err := d.Ack(false); err != nil {
				c.logger.Error("Failed to ack job event", zap.Error(err))
			}
		}
	}
}

func decodeJobEvent(body []byte) (interfaces.JobEvent, error) {
	var event interfaces.JobEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to decode job event: %w", err)
	}
	if event.JobID == "" || event.AccountID == "" || event.EventType == "" {
		return event, fmt.Errorf("job event is missing job_id, account_id or event_type")
	}
	return event, nil
}

// Stop cancels the subscription and closes the channel.
func (c *JobEventConsumer) Stop() error {
	if c.ch == nil {
		return nil
	}
	if err := c.ch.Cancel(c.consumerTag, false); err != nil {
		c.logger.Warn("Failed to cancel consumer", zap.Error(err))
	}
	return c.ch.Close()
}
