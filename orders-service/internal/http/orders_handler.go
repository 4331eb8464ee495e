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

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/service"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/httpapi"
)

type OrderService interface {
	FindAll(ctx context.Context, page service.Page) ([]*domain.Order, error)
	FindByUser(ctx context.Context, userID int64, page service.Page) ([]*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	Update(ctx context.Context, id int64, order *domain.Order) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error)
	DeleteByID(ctx context.Context, id int64) error

	ListCarts(ctx context.Context) ([]*domain.Cart, error)
	GetCart(ctx context.Context, id int64) (*domain.Cart, error)
	CartForUser(ctx context.Context, userID int64) (*domain.Cart, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
	log     *slog.Logger
}

func NewOrdersHandler(orders OrderService, timeout time.Duration, log *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
		log:     log,
	}
}

func (h *OrdersHandler) Routes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/user/{userId}", h.ListUserOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}", h.UpdateOrder)
		r.Put("/{id}/status", h.UpdateOrderStatus)
		r.Delete("/{id}", h.DeleteOrder)
	})
	r.Route("/api/carts", func(r chi.Router) {
		r.Get("/", h.ListCarts)
		r.Post("/", h.CreateCart)
		r.Get("/{id}", h.GetCart)
	})
}

type CartDTO struct {
	CartID int64 `json:"cartId,omitempty"`
	UserID int64 `json:"userId,omitempty"`
}

type OrderRequestDTO struct {
	OrderDate *time.Time      `json:"orderDate,omitempty"`
	OrderDesc string          `json:"orderDesc"`
	OrderFee  decimal.Decimal `json:"orderFee"`
	Cart      *CartDTO        `json:"cart,omitempty"`
	UserID    int64           `json:"userId,omitempty"`
}

type OrderResponseDTO struct {
	ID        int64       `json:"id"`
	OrderDate time.Time   `json:"orderDate"`
	OrderDesc string      `json:"orderDesc"`
	OrderFee  json.Number `json:"orderFee"`
	Status    string      `json:"status"`
	Cart      CartDTO     `json:"cart"`
}

type StatusRequestDTO struct {
	Status string `json:"status"`
}

func (d OrderRequestDTO) toDomain() *domain.Order {
	o := &domain.Order{
		Description: d.OrderDesc,
		Fee:         d.OrderFee,
	}
	if d.OrderDate != nil {
		o.OrderDate = d.OrderDate.UTC()
	}
	if d.Cart != nil {
		o.Cart = domain.Cart{ID: d.Cart.CartID, UserID: d.Cart.UserID}
	}
	if o.Cart.UserID == 0 {
		o.Cart.UserID = d.UserID
	}
	return o
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	return OrderResponseDTO{
		ID:        o.ID,
		OrderDate: o.OrderDate,
		OrderDesc: o.Description,
		OrderFee:  json.Number(o.Fee.String()),
		Status:    o.Status.String(),
		Cart:      CartDTO{CartID: o.Cart.ID, UserID: o.Cart.UserID},
	}
}

func convertOrders(orders []*domain.Order) []OrderResponseDTO {
	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	return dtos
}

// GET /api/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, ok := pageParams(r)
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "page and size must be non-negative integers")
		return
	}

	orders, err := h.orders.FindAll(ctx, page)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, convertOrders(orders))
}

// GET /api/orders/user/{userId}
func (h *OrdersHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := httpapi.PositiveIDParam(r, "userId")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_user_id", "userId must be a positive integer")
		return
	}
	page, ok := pageParams(r)
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "page and size must be non-negative integers")
		return
	}

	orders, err := h.orders.FindByUser(ctx, userID, page)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, convertOrders(orders))
}

// GET /api/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	order, err := h.orders.FindByID(ctx, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /api/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req OrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.Save(ctx, req.toDomain())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, convertOrder(order))
}

// PUT /api/orders/{id}
func (h *OrdersHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	var req OrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.orders.Update(ctx, id, req.toDomain())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, convertOrder(order))
}

// PUT /api/orders/{id}/status
func (h *OrdersHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	var req StatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}

	order, err := h.orders.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, convertOrder(order))
}

// DELETE /api/orders/{id}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a positive integer")
		return
	}

	if err := h.orders.DeleteByID(ctx, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/carts
func (h *OrdersHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	carts, err := h.orders.ListCarts(ctx)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	dtos := make([]CartDTO, 0, len(carts))
	for _, c := range carts {
		dtos = append(dtos, CartDTO{CartID: c.ID, UserID: c.UserID})
	}
	httpapi.RespondJSON(w, http.StatusOK, dtos)
}

// GET /api/carts/{id}
func (h *OrdersHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_cart_id", "cart id must be a positive integer")
		return
	}

	cart, err := h.orders.GetCart(ctx, id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, CartDTO{CartID: cart.ID, UserID: cart.UserID})
}

// POST /api/carts
func (h *OrdersHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CartDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	cart, err := h.orders.CartForUser(ctx, req.UserID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, CartDTO{CartID: cart.ID, UserID: cart.UserID})
}

func pageParams(r *http.Request) (service.Page, bool) {
	var p service.Page
	q := r.URL.Query()
	for key, dst := range map[string]*int{"page": &p.Page, "size": &p.Size} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return service.Page{}, false
		}
		*dst = n
	}
	return p, true
}

func (h *OrdersHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound), errors.Is(err, repository.ErrCartNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrUnknownCart):
		httpapi.RespondError(w, http.StatusBadRequest, "cart_not_found", err.Error())
	case errors.Is(err, service.ErrNegativeFee), errors.Is(err, service.ErrInvalidFee):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_fee", err.Error())
	case errors.Is(err, service.ErrMissingCart), errors.Is(err, service.ErrInvalidUser):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, service.ErrIllegalTransition), errors.Is(err, repository.ErrStatusChanged):
		httpapi.RespondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpapi.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		h.log.ErrorContext(r.Context(), "order request failed", "path", r.URL.Path, "error", err)
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
