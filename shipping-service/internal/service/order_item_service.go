package service

import (
	"context"
	"log/slog"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/remote"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/repository"
)

// OrderItemView is an order line joined with its product and order.
type OrderItemView struct {
	Item             *domain.OrderItem
	Product          *domain.Product
	Order            *domain.OrderSummary
	EnrichmentErrors []string
}

type OrderItemService struct {
	repo        repository.OrderItemRepository
	enricher    *Enricher
	concurrency int
	log         *slog.Logger
}

func NewOrderItemService(repo repository.OrderItemRepository, enricher *Enricher, concurrency int, log *slog.Logger) *OrderItemService {
	return &OrderItemService{
		repo:        repo,
		enricher:    enricher,
		concurrency: concurrency,
		log:         log,
	}
}

// FindAll returns every stored line in repository order. Rows are enriched
// concurrently, at most concurrency at a time.
func (s *OrderItemService) FindAll(ctx context.Context) ([]*OrderItemView, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*OrderItemView, len(items))
	err = remote.Each(ctx, len(items), s.concurrency, func(ctx context.Context, i int) {
		views[i] = s.enrich(ctx, items[i])
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *OrderItemService) FindByID(ctx context.Context, key domain.OrderItemKey) (*OrderItemView, error) {
	if !key.Valid() {
		return nil, ErrInvalidKey
	}
	item, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, item), nil
}

func (s *OrderItemService) Save(ctx context.Context, item *domain.OrderItem) (*OrderItemView, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "order item created", "product_id", item.Key.ProductID, "order_id", item.Key.OrderID, "quantity", item.OrderedQuantity)
	return s.enrich(ctx, item), nil
}

func (s *OrderItemService) Update(ctx context.Context, item *domain.OrderItem) (*OrderItemView, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return s.enrich(ctx, item), nil
}

func (s *OrderItemService) DeleteByID(ctx context.Context, key domain.OrderItemKey) error {
	if !key.Valid() {
		return ErrInvalidKey
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "order item deleted", "product_id", key.ProductID, "order_id", key.OrderID)
	return nil
}

// DeleteByOrder drops every line of an order, used when the order is deleted upstream.
func (s *OrderItemService) DeleteByOrder(ctx context.Context, orderID int64) (int64, error) {
	return s.repo.DeleteByOrder(ctx, orderID)
}

func validateItem(item *domain.OrderItem) error {
	if !item.Key.Valid() {
		return ErrInvalidKey
	}
	if item.OrderedQuantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (s *OrderItemService) enrich(ctx context.Context, item *domain.OrderItem) *OrderItemView {
	view := &OrderItemView{Item: item}

	product, reason := s.enricher.product(ctx, item.Key.ProductID)
	if reason != "" {
		view.EnrichmentErrors = append(view.EnrichmentErrors, reason)
	}
	view.Product = product

	order, reason := s.enricher.order(ctx, item.Key.OrderID)
	if reason != "" {
		view.EnrichmentErrors = append(view.EnrichmentErrors, reason)
	}
	view.Order = order

	return view
}
