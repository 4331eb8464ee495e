package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/remote"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/domain"
)

// Enricher looks up the remote records a view is joined with. A failed
// lookup never fails the request: the record stays nil and a short reason is
// returned for the view's enrichmentErrors.
type Enricher struct {
	Products   remote.Fetcher
	ProductURL string
	Orders     remote.Fetcher
	OrderURL   string
	Log        *slog.Logger
}

func (e *Enricher) product(ctx context.Context, id int64) (*domain.Product, string) {
	var p domain.Product
	if err := e.Products.Fetch(ctx, e.ProductURL, fmt.Sprintf("/api/products/%d", id), &p); err != nil {
		e.Log.WarnContext(ctx, "product enrichment failed", "product_id", id, "error", err)
		return nil, remote.Describe("product", err)
	}
	return &p, ""
}

func (e *Enricher) order(ctx context.Context, id int64) (*domain.OrderSummary, string) {
	var o domain.OrderSummary
	if err := e.Orders.Fetch(ctx, e.OrderURL, fmt.Sprintf("/api/orders/%d", id), &o); err != nil {
		e.Log.WarnContext(ctx, "order enrichment failed", "order_id", id, "error", err)
		return nil, remote.Describe("order", err)
	}
	return &o, ""
}
