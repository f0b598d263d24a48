package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/db/dbtest"
	"github.com/Keoroanthony/go-storefront/internal/events"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/services"
	"github.com/Keoroanthony/go-storefront/internal/utils"
)

func TestPay(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	pub := &recordingPublisher{}
	orders := services.NewOrderService(conn, nil, nil)
	payments := services.NewPaymentService(conn, pub, nil)
	ctx := context.Background()

	t.Run("completes a payment and advances the order", func(t *testing.T) {
		order := newPlacedOrder(t, orders, fx)
		setStatus(t, conn, order.ID, models.StatusPendingPayment)

		payment, updated, err := payments.Pay(ctx, &fx.User, order.ID)
		require.NoError(t, err)

		assert.Equal(t, models.PaymentCompleted, payment.Status)
		assert.Equal(t, models.MethodCreditCard, payment.Method)
		assert.True(t, order.TotalAmount.Equal(payment.Amount))
		require.NotNil(t, payment.TransactionID)
		assert.Equal(t, services.SimulatedTransactionID(order.ID), *payment.TransactionID)
		assert.Equal(t, models.StatusProcessing, updated.Status)

		var stored models.Order
		require.NoError(t, conn.First(&stored, order.ID).Error)
		assert.Equal(t, models.StatusProcessing, stored.Status)
		assert.Contains(t, pub.types(), events.PaymentCompleted)
	})

	t.Run("paying twice leaves one payment", func(t *testing.T) {
		order := newPlacedOrder(t, orders, fx)
		setStatus(t, conn, order.ID, models.StatusPendingPayment)

		_, _, err := payments.Pay(ctx, &fx.User, order.ID)
		require.NoError(t, err)

		_, current, err := payments.Pay(ctx, &fx.User, order.ID)
		assert.ErrorIs(t, err, apperrors.ErrPaymentNotDue)
		require.NotNil(t, current)
		assert.Equal(t, models.StatusProcessing, current.Status)

		var n int64
		require.NoError(t, conn.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})

	t.Run("unique order constraint is the backstop", func(t *testing.T) {
		order := newPlacedOrder(t, orders, fx)
		setStatus(t, conn, order.ID, models.StatusPendingPayment)
		_, _, err := payments.Pay(ctx, &fx.User, order.ID)
		require.NoError(t, err)

		// Force the order back so only the constraint stands in the way.
		setStatus(t, conn, order.ID, models.StatusPendingPayment)
		_, _, err = payments.Pay(ctx, &fx.User, order.ID)
		assert.ErrorIs(t, err, apperrors.ErrPaymentNotDue)

		var n int64
		require.NoError(t, conn.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&n).Error)
		assert.Equal(t, int64(1), n)

		var stored models.Order
		require.NoError(t, conn.First(&stored, order.ID).Error)
		assert.Equal(t, models.StatusPendingPayment, stored.Status, "failed payment must not advance the order")
	})

	t.Run("orders not awaiting payment are left alone", func(t *testing.T) {
		order := newPlacedOrder(t, orders, fx)

		_, _, err := payments.Pay(ctx, &fx.User, order.ID)
		assert.ErrorIs(t, err, apperrors.ErrPaymentNotDue)

		var n int64
		require.NoError(t, conn.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("only the owner can pay", func(t *testing.T) {
		order := newPlacedOrder(t, orders, fx)
		setStatus(t, conn, order.ID, models.StatusPendingPayment)

		_, _, err := payments.Pay(ctx, &fx.Other, order.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotYourOrder)

		_, _, err = payments.Pay(ctx, &fx.User, 9999)
		assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
	})
}

func TestListAndGetPayments(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	orders := services.NewOrderService(conn, nil, nil)
	payments := services.NewPaymentService(conn, nil, nil)
	ctx := context.Background()

	order := newPlacedOrder(t, orders, fx)
	setStatus(t, conn, order.ID, models.StatusPendingPayment)
	payment, _, err := payments.Pay(ctx, &fx.User, order.ID)
	require.NoError(t, err)

	list, total, err := payments.ListPayments(ctx, &fx.User, utils.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	_, total, err = payments.ListPayments(ctx, &fx.Other, utils.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)

	got, err := payments.GetPayment(ctx, &fx.User, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)

	_, err = payments.GetPayment(ctx, &fx.Other, payment.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotYourPayment)

	_, err = payments.GetPayment(ctx, &fx.Admin, payment.ID)
	assert.NoError(t, err)

	_, err = payments.GetPayment(ctx, &fx.User, 777)
	assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)
}
