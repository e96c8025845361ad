package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

// ShipmentEvent is published by the shipping system when a parcel changes
// state. Its status is copied onto the order as is.
type ShipmentEvent struct {
	ID        string    `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusUpdater is the part of the order service the consumer drives.
type StatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ShipmentConsumer applies shipment events to orders.
type ShipmentConsumer struct {
	reader  messageReader
	orders  StatusUpdater
	logger  *logging.Logger
	stopCh  chan struct{}
	backoff time.Duration
}

// NewShipmentConsumer creates a consumer on the shipments topic.
func NewShipmentConsumer(cfg config.KafkaConfig, orders StatusUpdater, logger *logging.Logger) *ShipmentConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.ShipmentsTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &ShipmentConsumer{
		reader:  reader,
		orders:  orders,
		logger:  logger,
		stopCh:  make(chan struct{}),
		backoff: time.Second,
	}
}

// Start consumes until ctx is cancelled or Stop is called.
func (c *ShipmentConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting shipment consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Shipment consumer stopped")
			return nil
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return ctx.Err()
			case <-c.stopCh:
				return nil
			}
			continue
		}

		c.HandleMessage(ctx, msg)
	}
}

// Stop stops the consumer and closes the reader.
func (c *ShipmentConsumer) Stop() error {
	close(c.stopCh)
	return c.reader.Close()
}

// HandleMessage applies one shipment message. Malformed or failing messages
// are logged and skipped.
func (c *ShipmentConsumer) HandleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var event ShipmentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error("Failed to unmarshal shipment event", logging.Fields{"error": err.Error()})
		return
	}

	if event.OrderID <= 0 || event.Status == "" {
		c.logger.Warn("Ignoring incomplete shipment event", logging.Fields{
			"event_id": event.ID,
			"order_id": event.OrderID,
		})
		return
	}

	c.logger.Info("Handling shipment event", logging.Fields{
		"event_id": event.ID,
		"order_id": event.OrderID,
		"status":   event.Status,
	})

	if _, err := c.orders.UpdateOrderStatus(ctx, event.OrderID, event.Status); err != nil {
		c.logger.Error("Failed to update order status", logging.Fields{
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
	}
}
