package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storecraft/internal/domain"
	"storecraft/internal/services"
)

func TestCartAddSetClear(t *testing.T) {
	carts := services.NewCartService()

	carts.Add("sid", "st-demo", "p-mug", 2)
	carts.Add("sid", "st-demo", "p-mug", 1)
	carts.Add("sid", "st-demo", "p-tee", 1)

	cart := carts.Get("sid", "st-demo")
	require.Equal(t, 3, cart.Items["p-mug"])
	require.Equal(t, 1, cart.Items["p-tee"])

	// Setting zero removes the line; mutating the copy must not leak back.
	carts.Set("sid", "st-demo", "p-tee", 0)
	cart.Items["p-mug"] = 99
	require.Equal(t, 3, carts.Get("sid", "st-demo").Items["p-mug"])
	require.NotContains(t, carts.Get("sid", "st-demo").Items, "p-tee")

	carts.Clear("sid", "st-demo")
	require.Empty(t, carts.Get("sid", "st-demo").Items)
}

func TestCartsAreScopedBySessionAndStore(t *testing.T) {
	carts := services.NewCartService()

	carts.Add("alice", "st-demo", "p-mug", 1)
	carts.Add("alice", "st-other", "p-mug", 5)
	carts.Add("bob", "st-demo", "p-tee", 2)

	require.Equal(t, 1, carts.Get("alice", "st-demo").Items["p-mug"])
	require.Equal(t, 5, carts.Get("alice", "st-other").Items["p-mug"])
	require.Empty(t, carts.Get("bob", "st-demo").Items["p-mug"])
}

func TestComputeTotalsFlagsUnavailableLines(t *testing.T) {
	cart := domain.NewCart("st-demo")
	cart.Add("p-mug", 2)
	cart.Add("p-gone", 1)
	cart.Add("p-retired", 1)

	catalog := []domain.Product{
		{ID: "p-mug", Name: "Enamel Mug", Price: 14.50, Active: true},
		{ID: "p-retired", Name: "Retired", Price: 9, Active: false},
	}

	view := services.ComputeTotals(cart, catalog, nil)
	require.Len(t, view.Lines, 1)
	require.Equal(t, 29.00, view.Subtotal)
	require.ElementsMatch(t, []string{"p-gone", "p-retired"}, view.Unavailable)
}

func TestComputeTotalsCapsDiscount(t *testing.T) {
	cart := domain.NewCart("st-demo")
	cart.Add("p-mug", 1)

	catalog := []domain.Product{
		{ID: "p-mug", Name: "Enamel Mug", Price: 14.50, Active: true},
	}
	effect := &domain.DiscountEffect{Code: "BIGFIX", Type: domain.DiscountFixed, Amount: 100}

	view := services.ComputeTotals(cart, catalog, effect)
	require.Equal(t, 14.50, view.Discount)
	require.Equal(t, 0.0, view.Total)
}
