package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/httpapi"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/service"
)

type ShipmentService interface {
	FindAll(ctx context.Context, orderID int64) ([]*service.ShipmentView, error)
	FindByID(ctx context.Context, id int64) (*service.ShipmentView, error)
	Save(ctx context.Context, in service.ShipmentInput) (*service.ShipmentView, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*service.ShipmentView, error)
	DeleteByID(ctx context.Context, id int64) error
}

type ShipmentsHandler struct {
	shipments ShipmentService
	timeout   time.Duration
	log       *slog.Logger
}

func NewShipmentsHandler(shipments ShipmentService, timeout time.Duration, log *slog.Logger) *ShipmentsHandler {
	return &ShipmentsHandler{shipments: shipments, timeout: timeout, log: log}
}

func (h *ShipmentsHandler) Routes(r chi.Router) {
	r.Route("/api/shipments", func(r chi.Router) {
		r.Get("/", h.ListShipments)
		r.Post("/", h.CreateShipment)
		r.Get("/{id}", h.GetShipment)
		r.Put("/{id}/status", h.UpdateShipmentStatus)
		r.Delete("/{id}", h.DeleteShipment)
	})
}

type ShipmentRequestDTO struct {
	OrderID         int64  `json:"orderId"`
	ShippingAddress string `json:"shippingAddress"`
	ShippingMethod  string `json:"shippingMethod"`
}

type ShipmentStatusDTO struct {
	Status string `json:"status"`
}

type ShipmentResponseDTO struct {
	ShipmentID       int64                `json:"shipmentId"`
	OrderID          int64                `json:"orderId"`
	ShippingAddress  string               `json:"shippingAddress"`
	ShippingMethod   string               `json:"shippingMethod"`
	Status           string               `json:"status"`
	CreatedAt        time.Time            `json:"createdAt"`
	Order            *domain.OrderSummary `json:"order,omitempty"`
	EnrichmentErrors []string             `json:"enrichmentErrors,omitempty"`
}

func convertShipmentView(v *service.ShipmentView) ShipmentResponseDTO {
	s := v.Shipment
	return ShipmentResponseDTO{
		ShipmentID:       s.ID,
		OrderID:          s.OrderID,
		ShippingAddress:  s.ShippingAddress,
		ShippingMethod:   string(s.ShippingMethod),
		Status:           string(s.Status),
		CreatedAt:        s.CreatedAt,
		Order:            v.Order,
		EnrichmentErrors: v.EnrichmentErrors,
	}
}

// GET /api/shipments?orderId=
func (h *ShipmentsHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var orderID int64
	if raw := r.URL.Query().Get("orderId"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "orderId must be a positive integer")
			return
		}
		orderID = n
	}

	views, err := h.shipments.FindAll(ctx, orderID)
	if err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}

	dtos := make([]ShipmentResponseDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, convertShipmentView(v))
	}
	httpapi.RespondJSON(w, http.StatusOK, dtos)
}

// GET /api/shipments/{id}
func (h *ShipmentsHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_id", "shipment id must be a positive integer")
		return
	}

	view, err := h.shipments.FindByID(ctx, id)
	if err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, convertShipmentView(view))
}

// POST /api/shipments
func (h *ShipmentsHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ShipmentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	view, err := h.shipments.Save(ctx, service.ShipmentInput{
		OrderID:         req.OrderID,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
	})
	if err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusCreated, convertShipmentView(view))
}

// PUT /api/shipments/{id}/status
func (h *ShipmentsHandler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_id", "shipment id must be a positive integer")
		return
	}

	var req ShipmentStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", "status is required")
		return
	}

	view, err := h.shipments.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, convertShipmentView(view))
}

// DELETE /api/shipments/{id}
func (h *ShipmentsHandler) DeleteShipment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := httpapi.PositiveIDParam(r, "id")
	if !ok {
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_id", "shipment id must be a positive integer")
		return
	}

	if err := h.shipments.DeleteByID(ctx, id); err != nil {
		handleServiceError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
