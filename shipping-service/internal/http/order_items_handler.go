package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/httpapi"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/service"
)

type OrderItemService interface {
	FindAll(ctx context.Context) ([]*service.OrderItemView, error)
	FindByID(ctx context.Context, key domain.OrderItemKey) (*service.OrderItemView, error)
	Save(ctx context.Context, item *domain.OrderItem) (*service.OrderItemView, error)
	Update(ctx context.Context, item *domain.OrderItem) (*service.OrderItemView, error)
	DeleteByID(ctx context.Context, key domain.OrderItemKey) error
}

type OrderItemsHandler struct {
	items   OrderItemService
	timeout time.Duration
	log     *slog.Logger
}

func NewOrderItemsHandler(items OrderItemService, timeout time.Duration, log *slog.Logger) *OrderItemsHandler {
	return &OrderItemsHandler{items: items, timeout: timeout, log: log}
}

func (h *OrderItemsHandler) Routes(r chi.Router) {
	r.Route("/api/order-items", func(r chi.Router) {
		r.Get("/", h.ListOrderItems)
		r.Post("/", h.CreateOrderItem)
		r.Get("/{productId}/{orderId}", h.GetOrderItem)
		r.Put("/{productId}/{orderId}", h.UpdateOrderItem)
		r.Delete("/{productId}/{orderId}", h.DeleteOrderItem)
	})
}

type OrderItemRequestDTO struct {
	ProductID       int64 `json:"productId"`
	OrderID         int64 `json:"orderId"`
	OrderedQuantity int   `json:"orderedQuantity"`
}

type OrderItemResponseDTO struct {
	ProductID        int64                `json:"productId"`
	OrderID          int64                `json:"orderId"`
	OrderedQuantity  int                  `json:"orderedQuantity"`
	Product          *domain.Product      `json:"product,omitempty"`
	Order            *domain.OrderSummary `json:"order,omitempty"`
	EnrichmentErrors []string             `json:"enrichmentErrors,omitempty"`
}

func convertItemView(v *service.OrderItemView) OrderItemResponseDTO {
	return OrderItemResponseDTO{
		ProductID:        v.Item.Key.ProductID,
		OrderID:          v.Item.Key.OrderID,
		OrderedQuantity:  v.Item.OrderedQuantity,
		Product:          v.Product,
		Order:            v.Order,
		EnrichmentErrors: v.EnrichmentErrors,
	}
}

func keyParams(r *http.Request) (domain.OrderItemKey, bool) {
	productID, ok := httpapi.PositiveIDParam(r, "productId")
	if !ok {
		return domain.OrderItemKey{}, false
	}
	orderID, ok := httpapi.PositiveIDParam(r, "orderId")
	if !ok {
		return domain.OrderItemKey{}, false
	}
	return domain.OrderItemKey{ProductID: productID, OrderID: orderID}, true
}

// GET /api/order-items
func (h *OrderItemsHandler) ListOrderItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	views, err := h.items.FindAll(ctx)
	if err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}

	dtos := make([]OrderItemResponseDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, convertItemView(v))
	}
	httpapi.RespondJSON(w, http.StatusOK, dtos)
}

// GET /api/order-items/{productId}/{orderId}
func (h *OrderItemsHandler) GetOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key, ok := keyParams(r)
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_id", "productId and orderId must be positive integers")
		return
	}

	view, err := h.items.FindByID(ctx, key)
	if err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, convertItemView(view))
}

// POST /api/order-items
func (h *OrderItemsHandler) CreateOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req OrderItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	view, err := h.items.Save(ctx, &domain.OrderItem{
		Key:             domain.OrderItemKey{ProductID: req.ProductID, OrderID: req.OrderID},
		OrderedQuantity: req.OrderedQuantity,
	})
	if err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusCreated, convertItemView(view))
}

// PUT /api/order-items/{productId}/{orderId}
func (h *OrderItemsHandler) UpdateOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key, ok := keyParams(r)
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_id", "productId and orderId must be positive integers")
		return
	}

	var req OrderItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// The path is the identity; body ids are ignored.
	view, err := h.items.Update(ctx, &domain.OrderItem{Key: key, OrderedQuantity: req.OrderedQuantity})
	if err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, convertItemView(view))
}

// DELETE /api/order-items/{productId}/{orderId}
func (h *OrderItemsHandler) DeleteOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	key, ok := keyParams(r)
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_id", "productId and orderId must be positive integers")
		return
	}

	if err := h.items.DeleteByID(ctx, key); err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
