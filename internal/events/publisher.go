package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

// EventType represents the type of order event.
type EventType string

const (
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
)

// OrderEvent is the envelope written to the orders topic.
type OrderEvent struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	OrderID       int64           `json:"order_id"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// StatusChange is the payload of an order.status_changed event.
type StatusChange struct {
	Order          *models.Order `json:"order"`
	PreviousStatus string        `json:"previous_status"`
	NewStatus      string        `json:"new_status"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes order events to Kafka.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logging.Logger
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *logging.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.OrdersTopic,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order created event.
func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.logger.Debug("Publishing order created event", logging.Fields{"order_id": order.ID})

	event, err := NewOrderEvent(ctx, EventTypeOrderCreated, order.ID, order)
	if err != nil {
		return err
	}
	return p.publish(ctx, event)
}

// PublishOrderStatusChanged publishes an order status change event.
func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus string) error {
	p.logger.Debug("Publishing order status changed event", logging.Fields{
		"order_id":        order.ID,
		"previous_status": previousStatus,
		"new_status":      order.Status,
	})

	event, err := NewOrderEvent(ctx, EventTypeOrderStatusChanged, order.ID, StatusChange{
		Order:          order,
		PreviousStatus: previousStatus,
		NewStatus:      order.Status,
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, event)
}

// NewOrderEvent builds an envelope around payload. The correlation id is the
// request id carried by ctx, if any.
func NewOrderEvent(ctx context.Context, eventType EventType, orderID int64, payload interface{}) (*OrderEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OrderEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		OrderID:       orderID,
		Data:          data,
		Timestamp:     time.Now().UTC(),
		CorrelationID: middleware.GetRequestID(ctx),
	}, nil
}

func (p *KafkaPublisher) publish(ctx context.Context, event *OrderEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
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
		"topic":      p.topic,
	})
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher")
	return p.writer.Close()
}

// MockEventPublisher records events in memory. Safe for concurrent use.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []*OrderEvent
	Err    error
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]*OrderEvent, 0),
	}
}

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return m.record(ctx, EventTypeOrderCreated, order.ID, order)
}

func (m *MockEventPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previousStatus string) error {
	return m.record(ctx, EventTypeOrderStatusChanged, order.ID, StatusChange{
		Order:          order,
		PreviousStatus: previousStatus,
		NewStatus:      order.Status,
	})
}

// Snapshot returns a copy of the recorded events.
func (m *MockEventPublisher) Snapshot() []*OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*OrderEvent(nil), m.Events...)
}

func (m *MockEventPublisher) record(ctx context.Context, eventType EventType, orderID int64, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	event, err := NewOrderEvent(ctx, eventType, orderID, payload)
	if err != nil {
		return err
	}
	m.Events = append(m.Events, event)
	return nil
}
