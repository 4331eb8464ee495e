package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrCartNotFound  = errors.New("cart not found")
	// ErrStatusChanged is returned when a conditional status update finds
	// the order in a different status than the caller observed.
	ErrStatusChanged = errors.New("order status changed concurrently")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type ListFilter struct {
	UserID int64
	Limit  int
	Offset int
}

type OutboxEvent struct {
	ID          int64
	EventID     string
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

type OrderRepository interface {
	ListOrders(ctx context.Context, f ListFilter) ([]*domain.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	UpdateOrder(ctx context.Context, order *domain.Order) error
	UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error

	ListCarts(ctx context.Context) ([]*domain.Cart, error)
	GetCart(ctx context.Context, id int64) (*domain.Cart, error)
	GetOrCreateCartForUser(ctx context.Context, userID int64) (*domain.Cart, error)
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
