package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"storecraft/internal/domain"
	"storecraft/internal/services"
)

func placeOrder(t *testing.T, f *checkoutFixture) *domain.Order {
	t.Helper()
	order, err := f.checkout.Checkout(context.Background(), "st-demo",
		[]services.CheckoutLine{{ProductID: "p-mug", Quantity: 2}}, "", buyer)
	require.NoError(t, err)
	return order
}

func TestFinancialTransitions(t *testing.T) {
	f := newFixture(t)
	lc := services.NewLifecycleService(f.orders)
	ctx := context.Background()
	order := placeOrder(t, f)

	// pending cannot jump straight to refunded.
	err := lc.SetFinancialStatus(ctx, order.ID, domain.FinancialRefunded)
	var trans *domain.InvalidTransitionError
	require.ErrorAs(t, err, &trans)
	require.Equal(t, "financial_status", trans.Field)

	require.NoError(t, lc.SetFinancialStatus(ctx, order.ID, domain.FinancialPaid))
	require.NoError(t, lc.SetFinancialStatus(ctx, order.ID, domain.FinancialRefunded))

	// refunded is terminal.
	err = lc.SetFinancialStatus(ctx, order.ID, domain.FinancialPending)
	require.ErrorAs(t, err, &trans)
}

func TestFulfillmentTransitions(t *testing.T) {
	f := newFixture(t)
	lc := services.NewLifecycleService(f.orders)
	ctx := context.Background()
	order := placeOrder(t, f)

	require.NoError(t, lc.SetFulfillmentStatus(ctx, order.ID, domain.FulfillmentPartial))
	require.NoError(t, lc.SetFulfillmentStatus(ctx, order.ID, domain.FulfillmentFulfilled))

	// A shipped order cannot be cancelled.
	err := lc.Cancel(ctx, order.ID)
	var trans *domain.InvalidTransitionError
	require.ErrorAs(t, err, &trans)

	got, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.FulfillmentFulfilled, got.Fulfillment)
}

func TestCancelRestocksExactlyOnce(t *testing.T) {
	f := newFixture(t)
	lc := services.NewLifecycleService(f.orders)
	ctx := context.Background()
	order := placeOrder(t, f)

	require.Equal(t, 23, f.units(t, "p-mug"))
	require.NoError(t, lc.Cancel(ctx, order.ID))
	require.Equal(t, 25, f.units(t, "p-mug"))

	// A second cancel is rejected and must not restock again.
	err := lc.Cancel(ctx, order.ID)
	var trans *domain.InvalidTransitionError
	require.ErrorAs(t, err, &trans)
	require.Equal(t, 25, f.units(t, "p-mug"))

	// The returned units are sellable immediately.
	_, err = f.checkout.Checkout(ctx, "st-demo",
		[]services.CheckoutLine{{ProductID: "p-mug", Quantity: 25}}, "", buyer)
	require.NoError(t, err)
}

func TestCancelSkipsUntrackedItems(t *testing.T) {
	f := newFixture(t)
	lc := services.NewLifecycleService(f.orders)
	ctx := context.Background()

	order, err := f.checkout.Checkout(ctx, "st-demo",
		[]services.CheckoutLine{
			{ProductID: "p-card", Quantity: 1},
			{ProductID: "p-tee", Quantity: 3},
		}, "", buyer)
	require.NoError(t, err)
	require.Equal(t, 5, f.units(t, "p-tee"))

	require.NoError(t, lc.Cancel(ctx, order.ID))
	require.Equal(t, 8, f.units(t, "p-tee"))

	card, err := f.products.Get(ctx, "p-card")
	require.NoError(t, err)
	require.False(t, card.Stock.Tracked)
}
