package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/remote"
)

type MockRepository struct {
	mu       sync.Mutex
	payments map[int64]*domain.Payment
	nextID   int64

	CreateErr     error
	StatusUpdates int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{payments: make(map[int64]*domain.Payment)}
}

func (m *MockRepository) ListPayments(_ context.Context, f repository.ListFilter) ([]*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Payment, 0)
	for id := int64(1); id <= m.nextID; id++ {
		p, ok := m.payments[id]
		if !ok || (f.OrderID > 0 && p.OrderID != f.OrderID) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockRepository) GetPayment(_ context.Context, id int64) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockRepository) CreatePayment(_ context.Context, p *domain.Payment) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockRepository) UpdatePaymentStatus(_ context.Context, id int64, from, to domain.PaymentStatus, isPayed bool) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusUpdates++
	p, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	if p.Status != from {
		return nil, repository.ErrStatusChanged
	}
	p.Status = to
	p.IsPayed = isPayed
	cp := *p
	return &cp, nil
}

func (m *MockRepository) DeletePayment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return repository.ErrPaymentNotFound
	}
	delete(m.payments, id)
	return nil
}

func (m *MockRepository) Close() error               { return nil }
func (m *MockRepository) RunMigrations(string) error { return nil }

// fakeOrders serves order summaries from memory. Paths listed in failing
// answer with the given status.
type fakeOrders struct {
	mu      sync.Mutex
	failing map[string]int
	calls   int
}

func (f *fakeOrders) Fetch(_ context.Context, baseURL, path string, target any) error {
	f.mu.Lock()
	f.calls++
	status, fail := f.failing[path]
	f.mu.Unlock()

	if fail {
		return &remote.FetchError{URL: baseURL + path, StatusCode: status, Err: fmt.Errorf("unexpected status")}
	}

	var id int64
	if _, err := fmt.Sscanf(strings.TrimPrefix(path, "/api/orders/"), "%d", &id); err != nil {
		return &remote.FetchError{URL: baseURL + path, Err: err}
	}
	body := fmt.Sprintf(`{"id":%d,"orderDesc":"order %d","orderFee":10.5,"status":"PENDING"}`, id, id)
	return json.Unmarshal([]byte(body), target)
}
