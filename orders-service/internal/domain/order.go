package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusPaid, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := validTransitions[st]
	return st, ok
}

func (s OrderStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order in status from may move to to.
// Re-applying the current status is allowed and is a no-op.
func CanTransitionTo(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Cart struct {
	ID     int64
	UserID int64
}

type Order struct {
	ID          int64
	OrderDate   time.Time
	Description string
	Fee         decimal.Decimal
	Status      OrderStatus
	Cart        Cart
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderDeleted       = "OrderDeleted"
)

// OrderEvent is the payload written to the outbox and published to Kafka.
type OrderEvent struct {
	EventID        string      `json:"eventId"`
	EventType      string      `json:"eventType"`
	OrderID        int64       `json:"orderId"`
	CartID         int64       `json:"cartId,omitempty"`
	UserID         int64       `json:"userId,omitempty"`
	Status         OrderStatus `json:"status,omitempty"`
	PreviousStatus OrderStatus `json:"previousStatus,omitempty"`
	OccurredAt     time.Time   `json:"occurredAt"`
}
