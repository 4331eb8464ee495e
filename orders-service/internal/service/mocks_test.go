package service

import (
	"context"
	"sync"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/orders-service/internal/repository"
)

type MockRepository struct {
	mu      sync.Mutex
	orders  map[int64]*domain.Order
	carts   map[int64]*domain.Cart
	nextID  int64
	nextCID int64

	CreateErr       error
	StatusUpdates   int
	LastListFilter  repository.ListFilter
	StatusChangeErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		orders: make(map[int64]*domain.Order),
		carts:  make(map[int64]*domain.Cart),
	}
}

func (m *MockRepository) ListOrders(_ context.Context, f repository.ListFilter) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastListFilter = f
	var out []*domain.Order
	for id := int64(1); id <= m.nextID; id++ {
		o, ok := m.orders[id]
		if !ok || (f.UserID > 0 && o.Cart.UserID != f.UserID) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockRepository) GetOrderByID(_ context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order.ID = m.nextID
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MockRepository) UpdateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return repository.ErrOrderNotFound
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *MockRepository) UpdateOrderStatus(_ context.Context, id int64, from, to domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusUpdates++
	if m.StatusChangeErr != nil {
		return nil, m.StatusChangeErr
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if o.Status != from {
		return nil, repository.ErrStatusChanged
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (m *MockRepository) DeleteOrder(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *MockRepository) ListCarts(context.Context) ([]*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Cart
	for id := int64(1); id <= m.nextCID; id++ {
		if c, ok := m.carts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockRepository) GetCart(_ context.Context, id int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return c, nil
}

func (m *MockRepository) GetOrCreateCartForUser(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	m.nextCID++
	c := &domain.Cart{ID: m.nextCID, UserID: userID}
	m.carts[c.ID] = c
	return c, nil
}
