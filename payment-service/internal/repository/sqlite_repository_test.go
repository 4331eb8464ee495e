package repository_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/domain"
	db "github.com/SantiagoAngel007/ecommerce-microservice-backend-app/payment-service/internal/repository"
)

func setupTestDB(t *testing.T) *db.Repository {
	// Use in-memory database for tests
	repo, err := db.NewRepository(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test repository: %v", err)
	}

	if err := repo.RunMigrations("./migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { repo.Close() })
	return repo
}

func newPayment(orderID int64) *domain.Payment {
	return &domain.Payment{
		OrderID: orderID,
		Status:  domain.PaymentStatusNotStarted,
		Amount:  decimal.RequireFromString("99.99"),
		Method:  domain.DefaultPaymentMethod,
	}
}

func TestCreateAndGetPayment(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	p := newPayment(10)
	require.NoError(t, repo.CreatePayment(ctx, p))
	assert.Equal(t, int64(1), p.ID)

	got, err := repo.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.OrderID)
	assert.False(t, got.IsPayed)
	assert.Equal(t, domain.PaymentStatusNotStarted, got.Status)
	assert.Equal(t, "99.99", got.Amount.String())
	assert.Equal(t, "CREDIT_CARD", got.Method)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetPayment_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetPayment(context.Background(), 999)
	assert.ErrorIs(t, err, db.ErrPaymentNotFound)
}

func TestListPayments(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	for _, orderID := range []int64{1, 2, 1, 3} {
		require.NoError(t, repo.CreatePayment(ctx, newPayment(orderID)))
	}

	all, err := repo.ListPayments(ctx, db.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, p := range all {
		assert.Equal(t, int64(i+1), p.ID, "rows come back in id order")
	}

	byOrder, err := repo.ListPayments(ctx, db.ListFilter{OrderID: 1})
	require.NoError(t, err)
	assert.Len(t, byOrder, 2)

	page, err := repo.ListPayments(ctx, db.ListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].ID)
}

func TestListPayments_Empty(t *testing.T) {
	repo := setupTestDB(t)

	payments, err := repo.ListPayments(context.Background(), db.ListFilter{})
	require.NoError(t, err)
	assert.NotNil(t, payments)
	assert.Empty(t, payments)
}

func TestUpdatePaymentStatus(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	p := newPayment(5)
	require.NoError(t, repo.CreatePayment(ctx, p))

	updated, err := repo.UpdatePaymentStatus(ctx, p.ID, domain.PaymentStatusNotStarted, domain.PaymentStatusInProgress, false)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusInProgress, updated.Status)

	updated, err = repo.UpdatePaymentStatus(ctx, p.ID, domain.PaymentStatusInProgress, domain.PaymentStatusCompleted, true)
	require.NoError(t, err)
	assert.True(t, updated.IsPayed)
	assert.Equal(t, domain.PaymentStatusCompleted, updated.Status)

	_, err = repo.UpdatePaymentStatus(ctx, p.ID, domain.PaymentStatusInProgress, domain.PaymentStatusFailed, false)
	assert.ErrorIs(t, err, db.ErrStatusChanged)

	_, err = repo.UpdatePaymentStatus(ctx, 404, domain.PaymentStatusNotStarted, domain.PaymentStatusFailed, false)
	assert.ErrorIs(t, err, db.ErrPaymentNotFound)
}

func TestDeletePayment(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	p := newPayment(5)
	require.NoError(t, repo.CreatePayment(ctx, p))

	require.NoError(t, repo.DeletePayment(ctx, p.ID))
	_, err := repo.GetPayment(ctx, p.ID)
	assert.ErrorIs(t, err, db.ErrPaymentNotFound)

	assert.ErrorIs(t, repo.DeletePayment(ctx, p.ID), db.ErrPaymentNotFound)
}
