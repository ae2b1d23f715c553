package repos_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storecraft/internal/domain"
	"storecraft/internal/repos"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// memdb opens a seeded in-memory database. The seed gives us the demo store
// st-demo with p-mug (25 tracked), p-tee (8 tracked) and p-card (untracked).
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func stockUnits(t *testing.T, r *repos.ProductRepo, id string) int {
	t.Helper()
	p, err := r.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	if !p.Stock.Tracked {
		t.Fatalf("%s is not tracked", id)
	}
	return p.Stock.Units
}

func TestReserveDecrementsOnlyWithEnoughStock(t *testing.T) {
	db := memdb(t)
	r := repos.NewProductRepo(db)
	ctx := context.Background()

	if err := r.Reserve(ctx, "p-mug", 5); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got := stockUnits(t, r, "p-mug"); got != 20 {
		t.Fatalf("want 20 units, got %d", got)
	}

	err := r.Reserve(ctx, "p-tee", 9)
	var stock *domain.InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stock.ProductID != "p-tee" || stock.Available != 8 || stock.Requested != 9 {
		t.Fatalf("bad error detail: %+v", stock)
	}
	if got := stockUnits(t, r, "p-tee"); got != 8 {
		t.Fatalf("failed reserve must not mutate stock, got %d", got)
	}
}

func TestReserveUntrackedAlwaysSucceeds(t *testing.T) {
	db := memdb(t)
	r := repos.NewProductRepo(db)
	ctx := context.Background()

	if err := r.Reserve(ctx, "p-card", 1000); err != nil {
		t.Fatalf("untracked reserve: %v", err)
	}
	p, err := r.Get(ctx, "p-card")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock.Tracked {
		t.Fatalf("p-card should stay untracked: %+v", p.Stock)
	}
}

func TestReserveClassifiesMissingAndInactive(t *testing.T) {
	db := memdb(t)
	r := repos.NewProductRepo(db)
	ctx := context.Background()

	if err := r.Reserve(ctx, "nope", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound, got %v", err)
	}

	p, err := r.Create(ctx, domain.Product{
		StoreID: "st-demo", Name: "Retired Poster", Slug: "retired-poster",
		Price: 9.99, Stock: domain.StockLevel{Tracked: true, Units: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Reserve(ctx, p.ID, 1); !errors.Is(err, domain.ErrProductInactive) {
		t.Fatalf("want ErrProductInactive, got %v", err)
	}
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	db := memdb(t)
	r := repos.NewProductRepo(db)
	ctx := context.Background()

	before := stockUnits(t, r, "p-mug")
	if err := r.Reserve(ctx, "p-mug", 4); err != nil {
		t.Fatal(err)
	}
	if err := r.Release(ctx, "p-mug", 4); err != nil {
		t.Fatal(err)
	}
	if got := stockUnits(t, r, "p-mug"); got != before {
		t.Fatalf("release must restore prior stock: want %d, got %d", before, got)
	}
}

func TestConcurrentReserveLastUnit(t *testing.T) {
	db := memdb(t)
	r := repos.NewProductRepo(db)
	ctx := context.Background()

	p, err := r.Create(ctx, domain.Product{
		StoreID: "st-demo", Name: "One Left", Slug: "one-left",
		Price: 5, Stock: domain.StockLevel{Tracked: true, Units: 1}, Active: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.Reserve(ctx, p.ID, 1)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var stock *domain.InsufficientStockError
		if !errors.As(err, &stock) {
			t.Fatalf("loser must see InsufficientStockError, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one reservation must win, got %d", wins)
	}
	if got := stockUnits(t, r, p.ID); got != 0 {
		t.Fatalf("stock must end at 0, got %d", got)
	}
}
