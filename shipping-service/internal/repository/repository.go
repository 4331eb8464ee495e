package repository

import (
	"context"
	"errors"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/domain"
)

var (
	ErrOrderItemNotFound  = errors.New("order item not found")
	ErrDuplicateOrderItem = errors.New("order item already exists")
	ErrShipmentNotFound   = errors.New("shipment not found")
	ErrStatusChanged      = errors.New("shipment status changed concurrently")
)

// OrderItemRepository stores order lines keyed by (productId, orderId).
type OrderItemRepository interface {
	List(ctx context.Context) ([]*domain.OrderItem, error)
	Get(ctx context.Context, key domain.OrderItemKey) (*domain.OrderItem, error)
	Insert(ctx context.Context, item *domain.OrderItem) error
	Update(ctx context.Context, item *domain.OrderItem) error
	Delete(ctx context.Context, key domain.OrderItemKey) error
	DeleteByOrder(ctx context.Context, orderID int64) (int64, error)
}

type ShipmentRepository interface {
	List(ctx context.Context, orderID int64) ([]*domain.Shipment, error)
	Get(ctx context.Context, id int64) (*domain.Shipment, error)
	Create(ctx context.Context, s *domain.Shipment) error
	UpdateStatus(ctx context.Context, id int64, from, to domain.ShipmentStatus) (*domain.Shipment, error)
	Delete(ctx context.Context, id int64) error
	CancelPendingForOrder(ctx context.Context, orderID int64) (int64, error)
}
