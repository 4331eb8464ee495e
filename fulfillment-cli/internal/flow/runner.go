// Package flow drives one order through the gateway: order, order line,
// payment, paid status and shipment. Steps run strictly in sequence and a
// failed step stops the run. Nothing already created is rolled back.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	CorrelationHeader = "X-Correlation-ID"
	maxErrorBody      = 4 << 10
)

type Step string

const (
	StepCreateOrder    Step = "create_order"
	StepAddOrderItem   Step = "add_order_item"
	StepCreatePayment  Step = "create_payment"
	StepMarkOrderPaid  Step = "mark_order_paid"
	StepCreateShipment Step = "create_shipment"
)

type Request struct {
	UserID          int64
	ProductID       int64
	Quantity        int
	Description     string
	Fee             decimal.Decimal
	Amount          decimal.Decimal
	ShippingAddress string
}

type Result struct {
	CorrelationID  string `json:"correlationId"`
	OrderID        int64  `json:"orderId,omitempty"`
	PaymentID      int64  `json:"paymentId,omitempty"`
	ShipmentID     int64  `json:"shipmentId,omitempty"`
	CompletedSteps []Step `json:"completedSteps"`
	FailedStep     Step   `json:"failedStep,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (r *Result) OK() bool { return r.FailedStep == "" }

// StepError is returned for a non-2xx answer or a transport failure.
type StepError struct {
	Step   Step
	Status int
	Body   string
	Err    error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Step, e.Status, e.Body)
}

func (e *StepError) Unwrap() error { return e.Err }

type Runner struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewRunner targets the gateway at baseURL. Every call is bounded by timeout.
func NewRunner(baseURL string, timeout time.Duration, log *slog.Logger) *Runner {
	return &Runner{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

func (r *Runner) Run(ctx context.Context, req Request) *Result {
	res := &Result{CorrelationID: uuid.NewString(), CompletedSteps: []Step{}}
	log := r.log.With("correlation_id", res.CorrelationID)

	steps := []struct {
		step Step
		fn   func(ctx context.Context, corr string) error
	}{
		{StepCreateOrder, func(ctx context.Context, corr string) error {
			var out struct {
				ID int64 `json:"id"`
			}
			body := map[string]any{
				"userId":    req.UserID,
				"orderDesc": req.Description,
				"orderFee":  json.Number(req.Fee.String()),
			}
			if err := r.call(ctx, corr, StepCreateOrder, http.MethodPost, "/api/orders", body, &out); err != nil {
				return err
			}
			res.OrderID = out.ID
			return nil
		}},
		{StepAddOrderItem, func(ctx context.Context, corr string) error {
			body := map[string]any{
				"productId":       req.ProductID,
				"orderId":         res.OrderID,
				"orderedQuantity": req.Quantity,
			}
			return r.call(ctx, corr, StepAddOrderItem, http.MethodPost, "/api/order-items", body, nil)
		}},
		{StepCreatePayment, func(ctx context.Context, corr string) error {
			var out struct {
				PaymentID int64 `json:"paymentId"`
			}
			body := map[string]any{
				"orderId": res.OrderID,
				"amount":  json.Number(req.Amount.String()),
			}
			if err := r.call(ctx, corr, StepCreatePayment, http.MethodPost, "/api/payments", body, &out); err != nil {
				return err
			}
			res.PaymentID = out.PaymentID
			return nil
		}},
		{StepMarkOrderPaid, func(ctx context.Context, corr string) error {
			path := fmt.Sprintf("/api/orders/%d/status", res.OrderID)
			return r.call(ctx, corr, StepMarkOrderPaid, http.MethodPut, path, map[string]string{"status": "PAID"}, nil)
		}},
		{StepCreateShipment, func(ctx context.Context, corr string) error {
			var out struct {
				ShipmentID int64 `json:"shipmentId"`
			}
			body := map[string]any{
				"orderId":         res.OrderID,
				"shippingAddress": req.ShippingAddress,
				"shippingMethod":  "STANDARD",
			}
			if err := r.call(ctx, corr, StepCreateShipment, http.MethodPost, "/api/shipments", body, &out); err != nil {
				return err
			}
			res.ShipmentID = out.ShipmentID
			return nil
		}},
	}

	for _, s := range steps {
		if err := s.fn(ctx, res.CorrelationID); err != nil {
			res.FailedStep = s.step
			res.Error = err.Error()
			log.ErrorContext(ctx, "fulfillment step failed", "step", s.step, "order_id", res.OrderID, "error", err)
			return res
		}
		res.CompletedSteps = append(res.CompletedSteps, s.step)
		log.InfoContext(ctx, "fulfillment step completed", "step", s.step, "order_id", res.OrderID)
	}
	return res
}

func (r *Runner) call(ctx context.Context, corr string, step Step, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &StepError{Step: step, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &StepError{Step: step, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(CorrelationHeader, corr)

	resp, err := r.client.Do(req)
	if err != nil {
		return &StepError{Step: step, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StepError{Step: step, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &StepError{Step: step, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
