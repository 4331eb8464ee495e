package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/remote"
)

// PaymentView is a payment joined with its order. Order is nil when the
// lookup failed; the reason is in EnrichmentErrors.
type PaymentView struct {
	Payment          *domain.Payment
	Order            *domain.OrderSummary
	EnrichmentErrors []string
}

type Query struct {
	OrderID int64
	Page    int
	Size    int
}

type SaveInput struct {
	OrderID int64
	Amount  decimal.Decimal
	Method  string
}

type PaymentService struct {
	repo        repository.RepoInterface
	orders      remote.Fetcher
	ordersURL   string
	concurrency int
	log         *slog.Logger
}

func NewPaymentService(repo repository.RepoInterface, orders remote.Fetcher, ordersURL string, concurrency int, log *slog.Logger) *PaymentService {
	if log == nil {
		log = slog.Default()
	}
	return &PaymentService{
		repo:        repo,
		orders:      orders,
		ordersURL:   ordersURL,
		concurrency: concurrency,
		log:         log,
	}
}

func (s *PaymentService) FindAll(ctx context.Context, q Query) ([]*PaymentView, error) {
	f := repository.ListFilter{OrderID: q.OrderID}
	if q.Size > 0 {
		f.Limit = q.Size
		f.Offset = q.Page * q.Size
	}

	payments, err := s.repo.ListPayments(ctx, f)
	if err != nil {
		return nil, err
	}

	views := make([]*PaymentView, len(payments))
	err = remote.Each(ctx, len(payments), s.concurrency, func(ctx context.Context, i int) {
		views[i] = s.enrich(ctx, payments[i])
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *PaymentService) FindByID(ctx context.Context, id int64) (*PaymentView, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, p), nil
}

// Save records a new payment for an order. It always starts NOT_STARTED and
// unpaid whatever the caller sent.
func (s *PaymentService) Save(ctx context.Context, in SaveInput) (*PaymentView, error) {
	if in.OrderID <= 0 {
		return nil, ErrInvalidOrderID
	}
	if in.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}

	method := strings.ToUpper(strings.TrimSpace(in.Method))
	if method == "" {
		method = domain.DefaultPaymentMethod
	}

	p := &domain.Payment{
		OrderID: in.OrderID,
		IsPayed: false,
		Status:  domain.PaymentStatusNotStarted,
		Amount:  in.Amount,
		Method:  method,
	}
	if err := s.repo.CreatePayment(ctx, p); err != nil {
		s.log.ErrorContext(ctx, "create payment failed", "order_id", in.OrderID, "error", err)
		return nil, err
	}

	s.log.InfoContext(ctx, "payment created", "payment_id", p.ID, "order_id", p.OrderID, "amount", p.Amount.String())
	return s.enrich(ctx, p), nil
}

// UpdateStatus sets paymentStatus and isPayed together. A nil isPayed is
// derived from the status.
func (s *PaymentService) UpdateStatus(ctx context.Context, id int64, status string, isPayed *bool) (*PaymentView, error) {
	to, ok := domain.ParsePaymentStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	payed := to == domain.PaymentStatusCompleted
	if isPayed != nil && *isPayed != payed {
		return nil, ErrInconsistentPayment
	}

	current, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return s.enrich(ctx, current), nil
	}
	if !domain.CanTransitionTo(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, to)
	}

	updated, err := s.repo.UpdatePaymentStatus(ctx, id, current.Status, to, payed)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "payment status changed", "payment_id", id, "from", current.Status, "to", to)
	return s.enrich(ctx, updated), nil
}

func (s *PaymentService) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repo.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "payment deleted", "payment_id", id)
	return nil
}

func (s *PaymentService) enrich(ctx context.Context, p *domain.Payment) *PaymentView {
	view := &PaymentView{Payment: p}

	var order domain.OrderSummary
	if err := s.orders.Fetch(ctx, s.ordersURL, fmt.Sprintf("/api/orders/%d", p.OrderID), &order); err != nil {
		s.log.WarnContext(ctx, "order enrichment failed", "payment_id", p.ID, "order_id", p.OrderID, "error", err)
		view.EnrichmentErrors = append(view.EnrichmentErrors, remote.Describe("order", err))
		return view
	}
	view.Order = &order
	return view
}
