package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	Topic   = "order-events"
	GroupID = "shipping-service"
)

// Event types published by orders-service.
const (
	eventOrderStatusChanged = "OrderStatusChanged"
	eventOrderDeleted       = "OrderDeleted"
)

type orderEvent struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	OrderID   int64  `json:"orderId"`
	Status    string `json:"status"`
}

type ShipmentCanceller interface {
	CancelForOrder(ctx context.Context, orderID int64) (int64, error)
}

type OrderItemPurger interface {
	DeleteByOrder(ctx context.Context, orderID int64) (int64, error)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderEventsConsumer keeps shipping data in line with order lifecycle
// events: a cancelled order cancels its pending shipments, a deleted order
// also loses its order lines.
type OrderEventsConsumer struct {
	reader    messageReader
	shipments ShipmentCanceller
	items     OrderItemPurger
	log       *slog.Logger

	retryBase time.Duration
	retryMax  time.Duration
}

func NewOrderEventsConsumer(shipments ShipmentCanceller, items OrderItemPurger, log *slog.Logger, brokers ...string) *OrderEventsConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    Topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &OrderEventsConsumer{
		reader:    reader,
		shipments: shipments,
		items:     items,
		log:       log,
		retryBase: 200 * time.Millisecond,
		retryMax:  10 * time.Second,
	}
}

func (c *OrderEventsConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.consumeNext(ctx)
	}
}

func (c *OrderEventsConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Error("error closing reader", "error", err)
	}
}

func (c *OrderEventsConsumer) consumeNext(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.log.ErrorContext(ctx, "error reading message", "error", err)
		}
		return
	}

	// The group reader has already moved past m, so a failed event is
	// retried here until it applies. Nothing after it is fetched meanwhile.
	if !c.applyWithRetry(ctx, m) {
		return
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.log.ErrorContext(ctx, "failed to commit message", "offset", m.Offset, "error", err)
	}
}

// applyWithRetry reports false only when ctx ends first; m then stays
// uncommitted and is redelivered to the next group member.
func (c *OrderEventsConsumer) applyWithRetry(ctx context.Context, m kafka.Message) bool {
	backoff := c.retryBase
	for attempt := 1; ; attempt++ {
		err := c.handleMessage(ctx, m.Value)
		if err == nil {
			return true
		}
		c.log.ErrorContext(ctx, "failed to apply order event", "offset", m.Offset, "attempt", attempt, "retry_in", backoff, "error", err)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.retryMax)
	}
}

// handleMessage applies one event. Malformed or irrelevant payloads are
// skipped without error so they do not block the partition.
func (c *OrderEventsConsumer) handleMessage(ctx context.Context, value []byte) error {
	var ev orderEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		c.log.WarnContext(ctx, "skipping malformed order event", "error", err)
		return nil
	}
	if ev.OrderID <= 0 {
		c.log.WarnContext(ctx, "skipping order event without order id", "event_id", ev.EventID)
		return nil
	}

	switch {
	case ev.EventType == eventOrderStatusChanged && ev.Status == "CANCELLED":
		n, err := c.shipments.CancelForOrder(ctx, ev.OrderID)
		if err != nil {
			return err
		}
		c.log.InfoContext(ctx, "cancelled pending shipments", "order_id", ev.OrderID, "count", n)

	case ev.EventType == eventOrderDeleted:
		n, err := c.items.DeleteByOrder(ctx, ev.OrderID)
		if err != nil {
			return err
		}
		cancelled, err := c.shipments.CancelForOrder(ctx, ev.OrderID)
		if err != nil {
			return err
		}
		c.log.InfoContext(ctx, "purged deleted order", "order_id", ev.OrderID, "items", n, "shipments_cancelled", cancelled)
	}
	return nil
}
