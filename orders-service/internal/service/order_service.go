package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/repository"
)

// Page selects a window of a listing. A zero Size means no paging.
type Page struct {
	Page int
	Size int
}

func (p Page) filter(userID int64) repository.ListFilter {
	f := repository.ListFilter{UserID: userID}
	if p.Size > 0 {
		f.Limit = p.Size
		if p.Page > 0 {
			f.Offset = p.Page * p.Size
		}
	}
	return f
}

// maxFee is the first value that no longer fits order_fee NUMERIC(12, 2).
var maxFee = decimal.New(1, 10)

// validateFee rejects fees the store would round or refuse.
func validateFee(fee decimal.Decimal) error {
	switch {
	case fee.IsNegative():
		return ErrNegativeFee
	case !fee.Equal(fee.Truncate(2)), fee.GreaterThanOrEqual(maxFee):
		return ErrInvalidFee
	}
	return nil
}

// storedDate drops what TIMESTAMPTZ cannot hold, so the returned order
// matches a later read.
func storedDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

type OrderService struct {
	repo repository.OrderRepository
	log  *slog.Logger
	now  func() time.Time
}

func NewOrderService(repo repository.OrderRepository, log *slog.Logger) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{repo: repo, log: log, now: time.Now}
}

func (s *OrderService) FindAll(ctx context.Context, page Page) ([]*domain.Order, error) {
	return s.repo.ListOrders(ctx, page.filter(0))
}

func (s *OrderService) FindByUser(ctx context.Context, userID int64, page Page) ([]*domain.Order, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	return s.repo.ListOrders(ctx, page.filter(userID))
}

func (s *OrderService) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// Save validates and stores a new order in PENDING status. The cart is
// resolved from order.Cart.ID when set, otherwise the cart of
// order.Cart.UserID is used and created on demand.
func (s *OrderService) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := validateFee(order.Fee); err != nil {
		return nil, err
	}

	cart, err := s.resolveCart(ctx, order.Cart)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrMissingCart
	}

	order.ID = 0
	order.Cart = *cart
	order.Status = domain.OrderStatusPending
	if order.OrderDate.IsZero() {
		order.OrderDate = s.now()
	}
	order.OrderDate = storedDate(order.OrderDate)

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrUnknownCart
		}
		s.log.ErrorContext(ctx, "create order failed", "error", err)
		return nil, err
	}

	s.log.InfoContext(ctx, "order created", "order_id", order.ID, "cart_id", cart.ID)
	return order, nil
}

// Update overwrites the date, description and fee of an existing order.
// A zero date and an absent cart reference keep the stored values.
func (s *OrderService) Update(ctx context.Context, id int64, in *domain.Order) (*domain.Order, error) {
	if err := validateFee(in.Fee); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cart, err := s.resolveCart(ctx, in.Cart)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		existing.Cart = *cart
	}
	if !in.OrderDate.IsZero() {
		existing.OrderDate = storedDate(in.OrderDate)
	}
	existing.Description = in.Description
	existing.Fee = in.Fee

	if err := s.repo.UpdateOrder(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrUnknownCart
		}
		return nil, err
	}
	return existing, nil
}

// UpdateStatus moves the order to the named status if the transition table
// allows it. Setting the current status again returns the order unchanged.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	to, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return current, nil
	}
	if !domain.CanTransitionTo(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, to)
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, id, current.Status, to)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "order status changed", "order_id", id, "from", current.Status, "to", to)
	return updated, nil
}

func (s *OrderService) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "order deleted", "order_id", id)
	return nil
}

func (s *OrderService) ListCarts(ctx context.Context) ([]*domain.Cart, error) {
	return s.repo.ListCarts(ctx)
}

func (s *OrderService) GetCart(ctx context.Context, id int64) (*domain.Cart, error) {
	return s.repo.GetCart(ctx, id)
}

func (s *OrderService) CartForUser(ctx context.Context, userID int64) (*domain.Cart, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	return s.repo.GetOrCreateCartForUser(ctx, userID)
}

// resolveCart returns nil, nil when ref carries neither a cart nor a user id.
func (s *OrderService) resolveCart(ctx context.Context, ref domain.Cart) (*domain.Cart, error) {
	switch {
	case ref.ID > 0:
		cart, err := s.repo.GetCart(ctx, ref.ID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrUnknownCart
		}
		return cart, err
	case ref.UserID > 0:
		return s.repo.GetOrCreateCartForUser(ctx, ref.UserID)
	case ref.ID < 0 || ref.UserID < 0:
		return nil, ErrMissingCart
	}
	return nil, nil
}
