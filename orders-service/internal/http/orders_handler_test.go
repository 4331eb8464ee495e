package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/service"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/httpapi"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/logger"
)

// --- Mock ---

type OrderServiceMock struct {
	order  *domain.Order
	orders []*domain.Order
	cart   *domain.Cart
	err    error

	saved      *domain.Order
	lastStatus string
	lastPage   service.Page
	lastUserID int64
}

func (m *OrderServiceMock) FindAll(_ context.Context, page service.Page) ([]*domain.Order, error) {
	m.lastPage = page
	return m.orders, m.err
}

func (m *OrderServiceMock) FindByUser(_ context.Context, userID int64, page service.Page) ([]*domain.Order, error) {
	m.lastUserID = userID
	m.lastPage = page
	return m.orders, m.err
}

func (m *OrderServiceMock) FindByID(context.Context, int64) (*domain.Order, error) {
	return m.order, m.err
}

func (m *OrderServiceMock) Save(_ context.Context, o *domain.Order) (*domain.Order, error) {
	m.saved = o
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *OrderServiceMock) Update(_ context.Context, _ int64, o *domain.Order) (*domain.Order, error) {
	m.saved = o
	return m.order, m.err
}

func (m *OrderServiceMock) UpdateStatus(_ context.Context, _ int64, status string) (*domain.Order, error) {
	m.lastStatus = status
	return m.order, m.err
}

func (m *OrderServiceMock) DeleteByID(context.Context, int64) error {
	return m.err
}

func (m *OrderServiceMock) ListCarts(context.Context) ([]*domain.Cart, error) {
	if m.cart == nil {
		return nil, m.err
	}
	return []*domain.Cart{m.cart}, m.err
}

func (m *OrderServiceMock) GetCart(context.Context, int64) (*domain.Cart, error) {
	return m.cart, m.err
}

func (m *OrderServiceMock) CartForUser(context.Context, int64) (*domain.Cart, error) {
	return m.cart, m.err
}

// --- helper ---

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:          1,
		OrderDate:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Description: "laptop",
		Fee:         decimal.RequireFromString("99.99"),
		Status:      domain.OrderStatusPending,
		Cart:        domain.Cart{ID: 3, UserID: 7},
	}
}

func newHandler(m *OrderServiceMock) *OrdersHandler {
	return NewOrdersHandler(m, 5*time.Second, logger.Nop())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpapi.ErrorResponse {
	t.Helper()
	var resp httpapi.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

// --- tests ---

func TestGetOrder_Success(t *testing.T) {
	handler := newHandler(&OrderServiceMock{order: sampleOrder()})
	recorder := httptest.NewRecorder()
	request := withParam(httptest.NewRequest("GET", "/api/orders/1", nil), "id", "1")

	handler.GetOrder(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var raw map[string]any
	if err := json.NewDecoder(recorder.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if raw["id"] != float64(1) {
		t.Errorf("expected id 1, got %v", raw["id"])
	}
	if raw["orderFee"] != 99.99 {
		t.Errorf("expected orderFee as number 99.99, got %v", raw["orderFee"])
	}
	if raw["status"] != "PENDING" {
		t.Errorf("expected PENDING, got %v", raw["status"])
	}
	cart := raw["cart"].(map[string]any)
	if cart["cartId"] != float64(3) || cart["userId"] != float64(7) {
		t.Errorf("unexpected cart %v", cart)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	handler := newHandler(&OrderServiceMock{err: repository.ErrOrderNotFound})
	recorder := httptest.NewRecorder()
	request := withParam(httptest.NewRequest("GET", "/api/orders/999999", nil), "id", "999999")

	handler.GetOrder(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, recorder.Code)
	}
	if resp := decodeError(t, recorder); resp.Code != "not_found" {
		t.Errorf("expected code not_found, got %q", resp.Code)
	}
}

func TestGetOrder_InvalidID(t *testing.T) {
	handler := newHandler(&OrderServiceMock{})
	for _, id := range []string{"abc", "0", "-4"} {
		recorder := httptest.NewRecorder()
		request := withParam(httptest.NewRequest("GET", "/api/orders/"+id, nil), "id", id)

		handler.GetOrder(recorder, request)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("id %q: expected %d, got %d", id, http.StatusBadRequest, recorder.Code)
		}
	}
}

func TestCreateOrder_Success(t *testing.T) {
	mock := &OrderServiceMock{order: sampleOrder()}
	handler := newHandler(mock)
	body := `{"orderDesc":"laptop","orderFee":99.99,"cart":{"userId":7}}`
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/orders", strings.NewReader(body))

	handler.CreateOrder(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}
	if mock.saved.Cart.UserID != 7 {
		t.Errorf("expected userId 7 to reach the service, got %d", mock.saved.Cart.UserID)
	}
	if !mock.saved.Fee.Equal(decimal.RequireFromString("99.99")) {
		t.Errorf("unexpected fee %s", mock.saved.Fee)
	}
}

func TestCreateOrder_UserIDShortcut(t *testing.T) {
	mock := &OrderServiceMock{order: sampleOrder()}
	handler := newHandler(mock)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/orders", strings.NewReader(`{"userId":12,"orderFee":"5.00"}`))

	handler.CreateOrder(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected %d, got %d", http.StatusCreated, recorder.Code)
	}
	if mock.saved.Cart.UserID != 12 {
		t.Errorf("expected userId 12, got %d", mock.saved.Cart.UserID)
	}
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{`, nil, http.StatusBadRequest, "invalid_request"},
		{"negative fee", `{"orderFee":-1}`, service.ErrNegativeFee, http.StatusBadRequest, "invalid_fee"},
		{"fee precision", `{"orderFee":12.345}`, service.ErrInvalidFee, http.StatusBadRequest, "invalid_fee"},
		{"missing cart", `{}`, service.ErrMissingCart, http.StatusBadRequest, "invalid_request"},
		{"unknown cart", `{"cart":{"cartId":9}}`, service.ErrUnknownCart, http.StatusBadRequest, "cart_not_found"},
		{"storage failure", `{"userId":1}`, errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHandler(&OrderServiceMock{err: tt.err})
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest("POST", "/api/orders", strings.NewReader(tt.body))

			handler.CreateOrder(recorder, request)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, recorder.Code)
			}
			resp := decodeError(t, recorder)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, resp.Code)
			}
			if strings.Contains(resp.Error, "db down") {
				t.Errorf("internal error detail leaked: %q", resp.Error)
			}
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	paid := sampleOrder()
	paid.Status = domain.OrderStatusPaid
	mock := &OrderServiceMock{order: paid}
	handler := newHandler(mock)
	recorder := httptest.NewRecorder()
	request := withParam(httptest.NewRequest("PUT", "/api/orders/1/status", strings.NewReader(`{"status":"PAID"}`)), "id", "1")

	handler.UpdateOrderStatus(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if mock.lastStatus != "PAID" {
		t.Errorf("expected PAID to reach the service, got %q", mock.lastStatus)
	}
}

func TestUpdateOrderStatus_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"empty status", `{}`, nil, http.StatusBadRequest},
		{"unknown status", `{"status":"LOST"}`, service.ErrInvalidStatus, http.StatusBadRequest},
		{"illegal transition", `{"status":"PENDING"}`, service.ErrIllegalTransition, http.StatusConflict},
		{"concurrent change", `{"status":"PAID"}`, repository.ErrStatusChanged, http.StatusConflict},
		{"missing order", `{"status":"PAID"}`, repository.ErrOrderNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newHandler(&OrderServiceMock{err: tt.err})
			recorder := httptest.NewRecorder()
			request := withParam(httptest.NewRequest("PUT", "/api/orders/1/status", strings.NewReader(tt.body)), "id", "1")

			handler.UpdateOrderStatus(recorder, request)

			if recorder.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, recorder.Code)
			}
		})
	}
}

func TestDeleteOrder(t *testing.T) {
	handler := newHandler(&OrderServiceMock{})
	recorder := httptest.NewRecorder()
	request := withParam(httptest.NewRequest("DELETE", "/api/orders/1", nil), "id", "1")

	handler.DeleteOrder(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Errorf("expected %d, got %d", http.StatusNoContent, recorder.Code)
	}

	handler = newHandler(&OrderServiceMock{err: repository.ErrOrderNotFound})
	recorder = httptest.NewRecorder()
	handler.DeleteOrder(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestRoutes_ListUserOrdersWithPaging(t *testing.T) {
	mock := &OrderServiceMock{orders: []*domain.Order{sampleOrder()}}
	r := chi.NewRouter()
	newHandler(mock).Routes(r)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/orders/user/7?page=2&size=10", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if mock.lastUserID != 7 {
		t.Errorf("expected user 7, got %d", mock.lastUserID)
	}
	if mock.lastPage != (service.Page{Page: 2, Size: 10}) {
		t.Errorf("unexpected page %+v", mock.lastPage)
	}

	var dtos []OrderResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&dtos); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(dtos) != 1 {
		t.Errorf("expected 1 order, got %d", len(dtos))
	}
}

func TestRoutes_InvalidPaging(t *testing.T) {
	r := chi.NewRouter()
	newHandler(&OrderServiceMock{}).Routes(r)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/orders?size=-1", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestRoutes_ListOrdersEmpty(t *testing.T) {
	r := chi.NewRouter()
	newHandler(&OrderServiceMock{}).Routes(r)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/orders", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	if body := strings.TrimSpace(recorder.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}
}

func TestCarts(t *testing.T) {
	r := chi.NewRouter()
	newHandler(&OrderServiceMock{cart: &domain.Cart{ID: 5, UserID: 8}}).Routes(r)

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/carts", strings.NewReader(`{"userId":8}`)))
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected %d, got %d", http.StatusCreated, recorder.Code)
	}

	recorder = httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/carts/5", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}
	var cart CartDTO
	if err := json.NewDecoder(recorder.Body).Decode(&cart); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if cart.CartID != 5 || cart.UserID != 8 {
		t.Errorf("unexpected cart %+v", cart)
	}

	r = chi.NewRouter()
	newHandler(&OrderServiceMock{err: repository.ErrCartNotFound}).Routes(r)
	recorder = httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/carts/6", nil))
	if recorder.Code != http.StatusNotFound {
		t.Errorf("expected %d, got %d", http.StatusNotFound, recorder.Code)
	}
}
