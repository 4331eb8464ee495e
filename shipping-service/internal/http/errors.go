package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/httpapi"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/service"
)

func handleServiceError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderItemNotFound), errors.Is(err, repository.ErrShipmentNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrDuplicateOrderItem):
		httpapi.RespondError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, service.ErrInvalidQuantity):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, service.ErrInvalidKey), errors.Is(err, service.ErrInvalidOrderID):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_id", err.Error())
	case errors.Is(err, service.ErrMissingAddress), errors.Is(err, service.ErrInvalidMethod):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		httpapi.RespondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, service.ErrIllegalTransition), errors.Is(err, repository.ErrStatusChanged):
		httpapi.RespondError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpapi.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.ErrorContext(r.Context(), "shipping request failed", "path", r.URL.Path, "error", err)
		httpapi.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
