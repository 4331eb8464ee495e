package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/remote"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/repository"
)

type MockItemRepository struct {
	mu    sync.Mutex
	items map[domain.OrderItemKey]*domain.OrderItem
}

func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{items: make(map[domain.OrderItemKey]*domain.OrderItem)}
}

func (m *MockItemRepository) List(_ context.Context) ([]*domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.OrderItem, 0, len(m.items))
	for _, it := range m.items {
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.OrderID != out[j].Key.OrderID {
			return out[i].Key.OrderID < out[j].Key.OrderID
		}
		return out[i].Key.ProductID < out[j].Key.ProductID
	})
	return out, nil
}

func (m *MockItemRepository) Get(_ context.Context, key domain.OrderItemKey) (*domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, repository.ErrOrderItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *MockItemRepository) Insert(_ context.Context, item *domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.Key]; ok {
		return repository.ErrDuplicateOrderItem
	}
	cp := *item
	m.items[item.Key] = &cp
	return nil
}

func (m *MockItemRepository) Update(_ context.Context, item *domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.Key]; !ok {
		return repository.ErrOrderItemNotFound
	}
	cp := *item
	m.items[item.Key] = &cp
	return nil
}

func (m *MockItemRepository) Delete(_ context.Context, key domain.OrderItemKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; !ok {
		return repository.ErrOrderItemNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *MockItemRepository) DeleteByOrder(_ context.Context, orderID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.items {
		if k.OrderID == orderID {
			delete(m.items, k)
			n++
		}
	}
	return n, nil
}

type MockShipmentRepository struct {
	mu        sync.Mutex
	shipments map[int64]*domain.Shipment
	nextID    int64

	StatusUpdates int
}

func NewMockShipmentRepository() *MockShipmentRepository {
	return &MockShipmentRepository{shipments: make(map[int64]*domain.Shipment)}
}

func (m *MockShipmentRepository) List(_ context.Context, orderID int64) ([]*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Shipment, 0)
	for id := int64(1); id <= m.nextID; id++ {
		s, ok := m.shipments[id]
		if !ok || (orderID > 0 && s.OrderID != orderID) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockShipmentRepository) Get(_ context.Context, id int64) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok {
		return nil, repository.ErrShipmentNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockShipmentRepository) Create(_ context.Context, s *domain.Shipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.shipments[s.ID] = &cp
	return nil
}

func (m *MockShipmentRepository) UpdateStatus(_ context.Context, id int64, from, to domain.ShipmentStatus) (*domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusUpdates++
	s, ok := m.shipments[id]
	if !ok {
		return nil, repository.ErrShipmentNotFound
	}
	if s.Status != from {
		return nil, repository.ErrStatusChanged
	}
	s.Status = to
	cp := *s
	return &cp, nil
}

func (m *MockShipmentRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shipments[id]; !ok {
		return repository.ErrShipmentNotFound
	}
	delete(m.shipments, id)
	return nil
}

func (m *MockShipmentRepository) CancelPendingForOrder(_ context.Context, orderID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.shipments {
		if s.OrderID == orderID && s.Status == domain.ShipmentStatusPending {
			s.Status = domain.ShipmentStatusCancelled
			n++
		}
	}
	return n, nil
}

// fakeRemote serves products and orders from memory. Paths listed in failing
// answer with the given status; a zero status simulates a timeout.
type fakeRemote struct {
	mu      sync.Mutex
	failing map[string]int
	calls   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{failing: map[string]int{}}
}

func (f *fakeRemote) fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[path] = status
}

func (f *fakeRemote) Fetch(ctx context.Context, baseURL, path string, target any) error {
	f.mu.Lock()
	f.calls++
	status, fail := f.failing[path]
	f.mu.Unlock()

	if fail {
		if status == 0 {
			return &remote.FetchError{URL: baseURL + path, Err: context.DeadlineExceeded}
		}
		return &remote.FetchError{URL: baseURL + path, StatusCode: status, Err: fmt.Errorf("unexpected status")}
	}

	var body string
	switch {
	case strings.HasPrefix(path, "/api/products/"):
		var id int64
		fmt.Sscanf(strings.TrimPrefix(path, "/api/products/"), "%d", &id)
		body = fmt.Sprintf(`{"productId":%d,"productTitle":"product %d","sku":"SKU-%d","priceUnit":12.5,"quantity":3}`, id, id, id)
	case strings.HasPrefix(path, "/api/orders/"):
		var id int64
		fmt.Sscanf(strings.TrimPrefix(path, "/api/orders/"), "%d", &id)
		body = fmt.Sprintf(`{"id":%d,"orderDesc":"order %d","orderFee":10.5,"status":"PENDING"}`, id, id)
	default:
		return &remote.FetchError{URL: baseURL + path, StatusCode: 404, Err: fmt.Errorf("unexpected status")}
	}
	return json.Unmarshal([]byte(body), target)
}
