package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/domain"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/repository"
	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/pkg/logger"
)

func newTestService() (*PaymentService, *MockRepository, *fakeOrders) {
	repo := NewMockRepository()
	orders := &fakeOrders{failing: map[string]int{}}
	return NewPaymentService(repo, orders, "http://orders", 4, logger.Nop()), repo, orders
}

func boolPtr(b bool) *bool { return &b }

func TestSave_StartsNotStarted(t *testing.T) {
	svc, _, _ := newTestService()

	view, err := svc.Save(context.Background(), SaveInput{OrderID: 7, Amount: decimal.RequireFromString("99.99")})
	require.NoError(t, err)

	assert.Equal(t, int64(1), view.Payment.ID)
	assert.Equal(t, domain.PaymentStatusNotStarted, view.Payment.Status)
	assert.False(t, view.Payment.IsPayed)
	assert.Equal(t, domain.DefaultPaymentMethod, view.Payment.Method)
	require.NotNil(t, view.Order)
	assert.Equal(t, int64(7), view.Order.ID)
	assert.Empty(t, view.EnrichmentErrors)
}

func TestSave_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Save(ctx, SaveInput{OrderID: 0})
	assert.ErrorIs(t, err, ErrInvalidOrderID)

	_, err = svc.Save(ctx, SaveInput{OrderID: 1, Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestSave_NormalisesMethod(t *testing.T) {
	svc, _, _ := newTestService()

	view, err := svc.Save(context.Background(), SaveInput{OrderID: 1, Method: " paypal "})
	require.NoError(t, err)
	assert.Equal(t, "PAYPAL", view.Payment.Method)
}

func TestSave_RepositoryError(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.CreateErr = errors.New("disk full")

	_, err := svc.Save(context.Background(), SaveInput{OrderID: 1})
	assert.EqualError(t, err, "disk full")
}

func TestFindByID_OrderLookupFailureIsIsolated(t *testing.T) {
	svc, _, orders := newTestService()
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{OrderID: 3})
	require.NoError(t, err)

	orders.failing["/api/orders/3"] = 503
	view, err := svc.FindByID(ctx, saved.Payment.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Order)
	assert.Equal(t, []string{"order: remote fetch failed (status 503)"}, view.EnrichmentErrors)
	assert.Equal(t, int64(3), view.Payment.OrderID)
}

func TestFindByID_NotFound(t *testing.T) {
	svc, _, orders := newTestService()

	_, err := svc.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
	assert.Equal(t, 0, orders.calls)
}

func TestFindAll_PreservesOrderAndIsolatesFailures(t *testing.T) {
	svc, _, orders := newTestService()
	ctx := context.Background()

	for _, orderID := range []int64{11, 12, 13, 14, 15} {
		_, err := svc.Save(ctx, SaveInput{OrderID: orderID})
		require.NoError(t, err)
	}
	orders.failing["/api/orders/13"] = 500

	views, err := svc.FindAll(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, views, 5)
	for i, v := range views {
		assert.Equal(t, int64(i+1), v.Payment.ID)
		if v.Payment.OrderID == 13 {
			assert.Nil(t, v.Order)
			assert.Len(t, v.EnrichmentErrors, 1)
			continue
		}
		require.NotNil(t, v.Order)
		assert.Equal(t, v.Payment.OrderID, v.Order.ID)
	}
}

func TestFindAll_CancelledRequest(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Save(context.Background(), SaveInput{OrderID: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.FindAll(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpdateStatus_FullLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{OrderID: 1})
	require.NoError(t, err)
	id := saved.Payment.ID

	view, err := svc.UpdateStatus(ctx, id, "IN_PROGRESS", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusInProgress, view.Payment.Status)
	assert.False(t, view.Payment.IsPayed)

	view, err = svc.UpdateStatus(ctx, id, "COMPLETED", nil)
	require.NoError(t, err)
	assert.True(t, view.Payment.IsPayed, "isPayed is derived from COMPLETED")

	_, err = svc.UpdateStatus(ctx, id, "FAILED", nil)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestUpdateStatus_Validation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{OrderID: 1})
	require.NoError(t, err)
	id := saved.Payment.ID

	_, err = svc.UpdateStatus(ctx, id, "REFUNDED", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, id, "IN_PROGRESS", boolPtr(true))
	assert.ErrorIs(t, err, ErrInconsistentPayment)

	_, err = svc.UpdateStatus(ctx, id, "COMPLETED", boolPtr(false))
	assert.ErrorIs(t, err, ErrInconsistentPayment)

	_, err = svc.UpdateStatus(ctx, id, "COMPLETED", nil)
	assert.ErrorIs(t, err, ErrIllegalTransition, "NOT_STARTED cannot jump to COMPLETED")

	_, err = svc.UpdateStatus(ctx, 99, "FAILED", nil)
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)

	assert.Equal(t, 0, repo.StatusUpdates)
}

func TestUpdateStatus_SameStatusIsNoop(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{OrderID: 1})
	require.NoError(t, err)

	view, err := svc.UpdateStatus(ctx, saved.Payment.ID, "NOT_STARTED", boolPtr(false))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusNotStarted, view.Payment.Status)
	assert.Equal(t, 0, repo.StatusUpdates)
}

func TestDeleteByID(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{OrderID: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByID(ctx, saved.Payment.ID))
	assert.ErrorIs(t, svc.DeleteByID(ctx, saved.Payment.ID), repository.ErrPaymentNotFound)
}
