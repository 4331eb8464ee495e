package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusNotStarted PaymentStatus = "NOT_STARTED"
	PaymentStatusInProgress PaymentStatus = "IN_PROGRESS"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
)

const DefaultPaymentMethod = "CREDIT_CARD"

var validTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusNotStarted: {PaymentStatusInProgress, PaymentStatusFailed},
	PaymentStatusInProgress: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:  {},
	PaymentStatusFailed:     {},
}

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	st := PaymentStatus(s)
	_, ok := validTransitions[st]
	return st, ok
}

func (s PaymentStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// CanTransitionTo reports whether a payment may move from one status to
// another. Re-applying the current status is allowed.
func CanTransitionTo(from, to PaymentStatus) bool {
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

type Payment struct {
	ID        int64
	OrderID   int64
	IsPayed   bool
	Status    PaymentStatus
	Amount    decimal.Decimal
	Method    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderSummary is the read-only order shape served by orders-service.
type OrderSummary struct {
	ID        int64       `json:"id"`
	OrderDate time.Time   `json:"orderDate"`
	OrderDesc string      `json:"orderDesc"`
	OrderFee  json.Number `json:"orderFee"`
	Status    string      `json:"status"`
}
