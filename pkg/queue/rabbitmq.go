package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"codemarket/pkg/config"
	"codemarket/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrderEventQueueName  = "order_event_queue"
	OrderEventExchange   = "order_events"
	orderEventRoutingKey = "order.status"
)

// OrderEvent is published after an order transition has committed. Consumers
// (notification, analytics) get it fire-and-forget; a publish failure is logged
// and never affects the committed transaction.
type OrderEvent struct {
	OrderNo   string    `json:"order_no"`
	Status    string    `json:"status"`
	BuyerID   uint64    `json:"buyer_id"`
	SellerID  uint64    `json:"seller_id"`
	ProjectID uint64    `json:"project_id"`
	Amount    string    `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		OrderEventExchange, // name
		"direct",           // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		OrderEventQueueName, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		OrderEventQueueName,
		orderEventRoutingKey,
		OrderEventExchange,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishOrderEvent publishes an order lifecycle event to the exchange.
func (c *Client) PublishOrderEvent(event OrderEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	err = c.channel.Publish(
		OrderEventExchange,
		orderEventRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Timestamp,
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish order event orderNo=%s status=%s: %v", event.OrderNo, event.Status, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published order event orderNo=%s status=%s", event.OrderNo, event.Status)
	return nil
}

// ConsumeOrderEvents consumes order events from the queue.
func (c *Client) ConsumeOrderEvents(handler func(event OrderEvent) error) error {
	msgs, err := c.channel.Consume(
		OrderEventQueueName,
		"",    // consumer
		false, // auto-ack (we'll manually ack after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", OrderEventQueueName)

	go func() {
		for msg := range msgs {
			var event OrderEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				c.logger.Error("[RABBITMQ] Failed to unmarshal order event: %v, body=%s", err, string(msg.Body))
				msg.Nack(false, false) // Reject and don't requeue
				continue
			}

			if err := handler(event); err != nil {
				c.logger.Error("[RABBITMQ] Handler failed for orderNo=%s: %v", event.OrderNo, err)
				msg.Nack(false, true) // Reject and requeue
				continue
			}

			msg.Ack(false)
		}
	}()

	return nil
}
