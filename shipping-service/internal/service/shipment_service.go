package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/remote"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/repository"
)

type ShipmentView struct {
	Shipment         *domain.Shipment
	Order            *domain.OrderSummary
	EnrichmentErrors []string
}

type ShipmentInput struct {
	OrderID         int64
	ShippingAddress string
	ShippingMethod  string
}

type ShipmentService struct {
	repo        repository.ShipmentRepository
	enricher    *Enricher
	concurrency int
	log         *slog.Logger
}

func NewShipmentService(repo repository.ShipmentRepository, enricher *Enricher, concurrency int, log *slog.Logger) *ShipmentService {
	return &ShipmentService{
		repo:        repo,
		enricher:    enricher,
		concurrency: concurrency,
		log:         log,
	}
}

func (s *ShipmentService) FindAll(ctx context.Context, orderID int64) ([]*ShipmentView, error) {
	shipments, err := s.repo.List(ctx, orderID)
	if err != nil {
		return nil, err
	}

	views := make([]*ShipmentView, len(shipments))
	err = remote.Each(ctx, len(shipments), s.concurrency, func(ctx context.Context, i int) {
		views[i] = s.enrich(ctx, shipments[i])
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *ShipmentService) FindByID(ctx context.Context, id int64) (*ShipmentView, error) {
	sh, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, sh), nil
}

// Save creates a PENDING shipment. The method defaults to STANDARD.
func (s *ShipmentService) Save(ctx context.Context, in ShipmentInput) (*ShipmentView, error) {
	if in.OrderID <= 0 {
		return nil, ErrInvalidOrderID
	}
	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" {
		return nil, ErrMissingAddress
	}
	method := domain.ShippingMethodStandard
	if in.ShippingMethod != "" {
		m, ok := domain.ParseShippingMethod(strings.ToUpper(in.ShippingMethod))
		if !ok {
			return nil, ErrInvalidMethod
		}
		method = m
	}

	sh := &domain.Shipment{
		OrderID:         in.OrderID,
		ShippingAddress: address,
		ShippingMethod:  method,
		Status:          domain.ShipmentStatusPending,
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "shipment created", "shipment_id", sh.ID, "order_id", sh.OrderID, "method", sh.ShippingMethod)
	return s.enrich(ctx, sh), nil
}

func (s *ShipmentService) UpdateStatus(ctx context.Context, id int64, status string) (*ShipmentView, error) {
	to, ok := domain.ParseShipmentStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return s.enrich(ctx, current), nil
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "shipment status changed", "shipment_id", id, "from", current.Status, "to", to)
	return s.enrich(ctx, updated), nil
}

func (s *ShipmentService) DeleteByID(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// CancelForOrder cancels the order's shipments that have not left yet.
func (s *ShipmentService) CancelForOrder(ctx context.Context, orderID int64) (int64, error) {
	return s.repo.CancelPendingForOrder(ctx, orderID)
}

func (s *ShipmentService) enrich(ctx context.Context, sh *domain.Shipment) *ShipmentView {
	view := &ShipmentView{Shipment: sh}
	order, reason := s.enricher.order(ctx, sh.OrderID)
	if reason != "" {
		view.EnrichmentErrors = append(view.EnrichmentErrors, reason)
	}
	view.Order = order
	return view
}
