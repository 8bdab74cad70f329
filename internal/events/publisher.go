package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

// EventType represents the type of order event.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderPaid          EventType = "order.paid"
	EventTypeOrderPaymentFailed EventType = "order.payment_failed"
)

// OrderEvent is the envelope for order events on the orders topic.
type OrderEvent struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	OrderID    string          `json:"order_id"`
	CustomerID string          `json:"customer_id"`
	Data       json.RawMessage `json:"data"`
	Timestamp  time.Time       `json:"timestamp"`
}

// KafkaPublisher publishes order events to Kafka. Messages are keyed by
// order id so all events for one order land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *logging.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.OrdersTopic,
		logger: logging.New("kafka-publisher"),
	}
}

// PublishOrderCreated publishes an order created event.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderCreated, order)
}

// PublishOrderPaid publishes an event for an order that transitioned to paid.
func (p *KafkaPublisher) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderPaid, order)
}

// PublishOrderPaymentFailed publishes an event for an order whose payment failed.
func (p *KafkaPublisher) PublishOrderPaymentFailed(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderPaymentFailed, order)
}

func (p *KafkaPublisher) publishOrder(ctx context.Context, eventType EventType, order *models.Order) error {
	p.logger.Debug("Publishing order event", logging.Fields{
		"event_type": eventType,
		"order_id":   order.ID,
	})

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	event := &OrderEvent{
		ID:         "evt_" + uuid.NewString(),
		Type:       eventType,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Data:       data,
		Timestamp:  time.Now().UTC(),
	}

	return p.publish(ctx, event)
}

func (p *KafkaPublisher) publish(ctx context.Context, event *OrderEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
		return err
	}

	p.logger.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"order_id":   event.OrderID,
	})

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// NoopEventPublisher is used when order events are disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return nil
}

func (NoopEventPublisher) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	return nil
}

func (NoopEventPublisher) PublishOrderPaymentFailed(ctx context.Context, order *models.Order) error {
	return nil
}

// MockEventPublisher is a mock implementation for testing.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []*OrderEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]*OrderEvent, 0),
	}
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return m.record(EventTypeOrderCreated, order)
}

func (m *MockEventPublisher) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	return m.record(EventTypeOrderPaid, order)
}

func (m *MockEventPublisher) PublishOrderPaymentFailed(ctx context.Context, order *models.Order) error {
	return m.record(EventTypeOrderPaymentFailed, order)
}

func (m *MockEventPublisher) record(eventType EventType, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, &OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
	})
	return nil
}

// EventsOfType returns the recorded events matching the given type.
func (m *MockEventPublisher) EventsOfType(eventType EventType) []*OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*OrderEvent
	for _, e := range m.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
