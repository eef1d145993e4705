package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayOrder(t *testing.T) {
	f := newOrderFixture(t)
	product := f.product(f.owner, "19.99", 10, 1)

	order, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = f.payments.PayOrder(f.ctx, f.buyer, order.ID)
	se := requireKind(t, err, KindBadRequest)
	assert.Equal(t, "order.not_payable", se.Key)

	_, err = f.orders.Accept(f.ctx, f.owner, order.ID)
	require.NoError(t, err)

	_, err = f.payments.PayOrder(f.ctx, f.owner, order.ID)
	requireKind(t, err, KindForbidden)
	_, err = f.payments.PayOrder(f.ctx, f.consumer(), order.ID)
	requireKind(t, err, KindForbidden)

	intent, err := f.payments.PayOrder(f.ctx, f.buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{5997}, f.gateway.amounts)
	assert.Equal(t, "59.97", intent.Amount)
	assert.Equal(t, "usd", intent.Currency)
	assert.Equal(t, order.ID, intent.OrderID)

	stored, err := f.store.Orders.GetByID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.PaymentID, stored.PaymentIntentID)
}

func TestPayOrderWithoutGateway(t *testing.T) {
	f := newOrderFixture(t)
	payments := NewPaymentService(f.store, f.cfg, nil)
	product := f.product(f.owner, "1.00", 10, 1)

	order, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.orders.Accept(f.ctx, f.owner, order.ID)
	require.NoError(t, err)

	_, err = payments.PayOrder(f.ctx, f.buyer, order.ID)
	se := requireKind(t, err, KindBadRequest)
	assert.Equal(t, "order.payments_disabled", se.Key)
}

func TestPayOrderGatewayFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.fail = true
	product := f.product(f.owner, "1.00", 10, 1)

	order, err := f.place(OrderItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.orders.Accept(f.ctx, f.owner, order.ID)
	require.NoError(t, err)

	_, err = f.payments.PayOrder(f.ctx, f.buyer, order.ID)
	require.Error(t, err)
	assert.Empty(t, KindOf(err))
}
