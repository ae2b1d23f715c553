package repos_test

import (
	"context"
	"errors"
	"testing"

	"storecraft/internal/domain"
	"storecraft/internal/repos"
)

func demoOrder(number string) *domain.Order {
	return &domain.Order{
		ID: "o-" + number, StoreID: "st-demo", Number: number,
		Email:    "buyer@example.com",
		Subtotal: 29.00, Discount: 2.90, Total: 26.10,
		Financial:   domain.FinancialPending,
		Fulfillment: domain.FulfillmentUnfulfilled,
		Items: []domain.LineItem{
			{ProductID: "p-mug", Title: "Enamel Mug", SKU: "MUG-01", Price: 14.50, Quantity: 2},
		},
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	db := memdb(t)
	r := repos.NewOrderRepo(db)
	ctx := context.Background()

	if err := r.Create(ctx, demoOrder("ORD-000001")); err != nil {
		t.Fatalf("create: %v", err)
	}

	o, err := r.Get(ctx, "o-ORD-000001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if o.Number != "ORD-000001" || o.Total != 26.10 || len(o.Items) != 1 {
		t.Fatalf("bad round trip: %+v", o)
	}
	if o.Items[0].Title != "Enamel Mug" || o.Items[0].Quantity != 2 {
		t.Fatalf("bad line item: %+v", o.Items[0])
	}
	if o.Financial != domain.FinancialPending || o.Fulfillment != domain.FulfillmentUnfulfilled {
		t.Fatalf("new orders start pending/unfulfilled: %+v", o)
	}
}

func TestOrderNumberUniquePerStore(t *testing.T) {
	db := memdb(t)
	r := repos.NewOrderRepo(db)
	stores := repos.NewStoreRepo(db)
	ctx := context.Background()

	if err := r.Create(ctx, demoOrder("ORD-000042")); err != nil {
		t.Fatal(err)
	}

	dup := demoOrder("ORD-000042")
	dup.ID = "o-dup"
	if err := r.Create(ctx, dup); !errors.Is(err, repos.ErrOrderNumberTaken) {
		t.Fatalf("want ErrOrderNumberTaken, got %v", err)
	}
	// The failed insert must leave no partial rows behind.
	if _, err := r.Get(ctx, "o-dup"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("partial order visible after collision: %v", err)
	}

	// Same number in another store is fine; uniqueness is store-scoped.
	other, err := stores.Create(ctx, "u-demo", "Second Shop", "second-shop", "")
	if err != nil {
		t.Fatal(err)
	}
	cross := demoOrder("ORD-000042")
	cross.ID = "o-cross"
	cross.StoreID = other.ID
	cross.Items = nil
	if err := r.Create(ctx, cross); err != nil {
		t.Fatalf("cross-store number should not collide: %v", err)
	}
}

func TestConditionalStatusUpdate(t *testing.T) {
	db := memdb(t)
	r := repos.NewOrderRepo(db)
	ctx := context.Background()

	if err := r.Create(ctx, demoOrder("ORD-000007")); err != nil {
		t.Fatal(err)
	}
	id := "o-ORD-000007"

	if err := r.SetFinancialStatus(ctx, id, domain.FinancialPending, domain.FinancialPaid); err != nil {
		t.Fatalf("pending->paid: %v", err)
	}
	// A second mover from the stale state loses cleanly.
	err := r.SetFinancialStatus(ctx, id, domain.FinancialPending, domain.FinancialFailed)
	var trans *domain.InvalidTransitionError
	if !errors.As(err, &trans) {
		t.Fatalf("want InvalidTransitionError, got %v", err)
	}

	o, _ := r.Get(ctx, id)
	if o.Financial != domain.FinancialPaid {
		t.Fatalf("lost update: %s", o.Financial)
	}
}

func TestRestockItemsReturnsTrackedUnits(t *testing.T) {
	db := memdb(t)
	orders := repos.NewOrderRepo(db)
	products := repos.NewProductRepo(db)
	ctx := context.Background()

	before := stockUnits(t, products, "p-mug")
	if err := products.Reserve(ctx, "p-mug", 2); err != nil {
		t.Fatal(err)
	}
	if err := orders.Create(ctx, demoOrder("ORD-000099")); err != nil {
		t.Fatal(err)
	}

	if err := orders.RestockItems(ctx, "o-ORD-000099"); err != nil {
		t.Fatal(err)
	}
	if got := stockUnits(t, products, "p-mug"); got != before {
		t.Fatalf("restock must restore stock: want %d, got %d", before, got)
	}
}

func TestHasOpenOrders(t *testing.T) {
	db := memdb(t)
	r := repos.NewOrderRepo(db)
	ctx := context.Background()

	open, err := r.HasOpenOrders(ctx, "st-demo")
	if err != nil {
		t.Fatal(err)
	}
	if open {
		t.Fatal("fresh store has no open orders")
	}

	if err := r.Create(ctx, demoOrder("ORD-000011")); err != nil {
		t.Fatal(err)
	}
	if open, _ = r.HasOpenOrders(ctx, "st-demo"); !open {
		t.Fatal("pending order must count as open")
	}

	// Cancelled pending orders stop blocking.
	if err := r.SetFulfillmentStatus(ctx, "o-ORD-000011", domain.FulfillmentUnfulfilled, domain.FulfillmentCancelled); err != nil {
		t.Fatal(err)
	}
	if open, _ = r.HasOpenOrders(ctx, "st-demo"); open {
		t.Fatal("cancelled order must not count as open")
	}
}
