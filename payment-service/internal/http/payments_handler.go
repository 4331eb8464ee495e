package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/service"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/httpapi"
)

type PaymentService interface {
	FindAll(ctx context.Context, q service.Query) ([]*service.PaymentView, error)
	FindByID(ctx context.Context, id int64) (*service.PaymentView, error)
	Save(ctx context.Context, in service.SaveInput) (*service.PaymentView, error)
	UpdateStatus(ctx context.Context, id int64, status string, isPayed *bool) (*service.PaymentView, error)
	DeleteByID(ctx context.Context, id int64) error
}

type PaymentsHandler struct {
	payments PaymentService
	timeout  time.Duration
	log      *slog.Logger
}

func NewPaymentsHandler(payments PaymentService, timeout time.Duration, log *slog.Logger) *PaymentsHandler {
	return &PaymentsHandler{payments: payments, timeout: timeout, log: log}
}

func (h *PaymentsHandler) Routes(r chi.Router) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Get("/", h.ListPayments)
		r.Post("/", h.CreatePayment)
		r.Get("/{id}", h.GetPayment)
		r.Put("/{id}", h.UpdatePayment)
		r.Put("/{id}/status", h.UpdatePaymentStatus)
		r.Delete("/{id}", h.DeletePayment)
	})
}

type OrderRefDTO struct {
	OrderID int64 `json:"orderId"`
}

type PaymentRequestDTO struct {
	OrderID       int64           `json:"orderId"`
	Order         *OrderRefDTO    `json:"order,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

type PaymentUpdateDTO struct {
	PaymentStatus string `json:"paymentStatus"`
	Status        string `json:"status"`
	IsPayed       *bool  `json:"isPayed"`
}

type PaymentResponseDTO struct {
	PaymentID        int64                `json:"paymentId"`
	OrderID          int64                `json:"orderId"`
	IsPayed          bool                 `json:"isPayed"`
	PaymentStatus    string               `json:"paymentStatus"`
	Amount           json.Number          `json:"amount"`
	PaymentMethod    string               `json:"paymentMethod"`
	CreatedAt        time.Time            `json:"createdAt"`
	Order            *domain.OrderSummary `json:"order,omitempty"`
	EnrichmentErrors []string             `json:"enrichmentErrors,omitempty"`
}

func convertView(v *service.PaymentView) PaymentResponseDTO {
	p := v.Payment
	return PaymentResponseDTO{
		PaymentID:        p.ID,
		OrderID:          p.OrderID,
		IsPayed:          p.IsPayed,
		PaymentStatus:    string(p.Status),
		Amount:           json.Number(p.Amount.String()),
		PaymentMethod:    p.Method,
		CreatedAt:        p.CreatedAt,
		Order:            v.Order,
		EnrichmentErrors: v.EnrichmentErrors,
	}
}

// GET /api/payments
func (h *PaymentsHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q, ok := parseQuery(r)
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "orderId, page and size must be non-negative integers")
		return
	}

	views, err := h.payments.FindAll(ctx, q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	dtos := make([]PaymentResponseDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, convertView(v))
	}
	httpapi.RespondJSON(w, http.StatusOK, dtos)
}

// GET /api/payments/{id}
func (h *PaymentsHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_payment_id", "payment id must be a positive integer")
		return
	}

	view, err := h.payments.FindByID(ctx, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, convertView(view))
}

// POST /api/payments
func (h *PaymentsHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.OrderID == 0 && req.Order != nil {
		req.OrderID = req.Order.OrderID
	}

	view, err := h.payments.Save(ctx, service.SaveInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Method:  req.PaymentMethod,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, convertView(view))
}

// PUT /api/payments/{id}
func (h *PaymentsHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r)
}

// PUT /api/payments/{id}/status
func (h *PaymentsHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r)
}

func (h *PaymentsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_payment_id", "payment id must be a positive integer")
		return
	}

	var req PaymentUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	status := req.PaymentStatus
	if status == "" {
		status = req.Status
	}
	if status == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "paymentStatus is required")
		return
	}

	view, err := h.payments.UpdateStatus(ctx, id, status, req.IsPayed)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, convertView(view))
}

// DELETE /api/payments/{id}
func (h *PaymentsHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_payment_id", "payment id must be a positive integer")
		return
	}

	if err := h.payments.DeleteByID(ctx, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseQuery(r *http.Request) (service.Query, bool) {
	var q service.Query
	values := r.URL.Query()
	fields := []struct {
		key string
		set func(int)
	}{
		{"orderId", func(n int) { q.OrderID = int64(n) }},
		{"page", func(n int) { q.Page = n }},
		{"size", func(n int) { q.Size = n }},
	}
	for _, f := range fields {
		raw := values.Get(f.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return service.Query{}, false
		}
		f.set(n)
	}
	return q, true
}

func (h *PaymentsHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInvalidOrderID):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_order_id", err.Error())
	case errors.Is(err, service.ErrNegativeAmount):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInconsistentPayment):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, service.ErrIllegalTransition), errors.Is(err, repository.ErrStatusChanged):
		httpapi.RespondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpapi.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		h.log.ErrorContext(r.Context(), "payment request failed", "path", r.URL.Path, "error", err)
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
