package repository

import (
	"context"
	"errors"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/domain"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrStatusChanged   = errors.New("payment status changed concurrently")
)

type ListFilter struct {
	OrderID int64
	Limit   int
	Offset  int
}

type RepoInterface interface {
	ListPayments(ctx context.Context, f ListFilter) ([]*domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	CreatePayment(ctx context.Context, p *domain.Payment) error
	// UpdatePaymentStatus applies to and isPayed only when the payment is still in from.
	UpdatePaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus, isPayed bool) (*domain.Payment, error)
	DeletePayment(ctx context.Context, id int64) error
	Close() error
	RunMigrations(string) error
}
