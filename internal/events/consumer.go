package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/service"
)

// paymentMessage is the wire format on the payments topic. Events arriving
// here have already been verified by the payments service, so they bypass
// signature verification and go straight to reconciliation.
type paymentMessage struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
}

// KafkaConsumer consumes payment events from Kafka and applies them to
// orders. It is an alternative delivery path to the HTTP webhook; both feed
// the same idempotent status transition.
type KafkaConsumer struct {
	reader   *kafka.Reader
	checkout *service.CheckoutService
	logger   *logging.Logger
	stopCh   chan struct{}
}

// NewKafkaConsumer creates a new Kafka-based payment event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, checkout *service.CheckoutService) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		checkout: checkout,
		logger:   logging.New("kafka-consumer"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins consuming events. It blocks until the context is cancelled
// or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var payload paymentMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		c.logger.Error("Failed to unmarshal event", logging.Fields{"error": err.Error()})
		return
	}

	event := &models.PaymentEvent{
		ID:                payload.ID,
		Type:              payload.Type,
		OrderID:           payload.OrderID,
		ProviderSessionID: payload.SessionID,
		ReceivedAt:        time.Now().UTC(),
	}

	if err := c.checkout.ApplyPaymentEvent(ctx, event); err != nil {
		c.logger.Error("Failed to apply payment event", logging.Fields{
			"event_id": event.ID,
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
	}
}
