package repos_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storecraft/internal/domain"
	"storecraft/internal/repos"
)

func newLimitedCode(t *testing.T, r *repos.DiscountRepo, code string, limit int) domain.DiscountCode {
	t.Helper()
	d, err := r.Create(context.Background(), domain.DiscountCode{
		StoreID: "st-demo", Code: code, Type: domain.DiscountPercentage,
		Value: 10, Usage: domain.UsageLimit{Bounded: true, Max: limit}, Active: true,
	})
	if err != nil {
		t.Fatalf("create code: %v", err)
	}
	return d
}

func TestGetByCodeIsCaseInsensitive(t *testing.T) {
	db := memdb(t)
	r := repos.NewDiscountRepo(db)
	ctx := context.Background()

	d, err := r.GetByCode(ctx, "st-demo", "save10")
	if err != nil {
		t.Fatalf("lowercase lookup: %v", err)
	}
	if d.Code != "SAVE10" {
		t.Fatalf("want SAVE10, got %s", d.Code)
	}

	if _, err := r.GetByCode(ctx, "st-demo", "NOPE"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("want ErrCodeNotFound, got %v", err)
	}
}

func TestRedeemStopsAtUsageLimit(t *testing.T) {
	db := memdb(t)
	r := repos.NewDiscountRepo(db)
	ctx := context.Background()

	d := newLimitedCode(t, r, "LAST1", 1)
	if err := r.Redeem(ctx, d.ID); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if err := r.Redeem(ctx, d.ID); !errors.Is(err, domain.ErrDiscountUsageExhausted) {
		t.Fatalf("want ErrDiscountUsageExhausted, got %v", err)
	}

	got, err := r.Get(ctx, "st-demo", d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsedCount != 1 {
		t.Fatalf("used_count must not exceed limit: got %d", got.UsedCount)
	}
}

func TestUnredeemFloorsAtZero(t *testing.T) {
	db := memdb(t)
	r := repos.NewDiscountRepo(db)
	ctx := context.Background()

	d := newLimitedCode(t, r, "FLOOR", 5)
	if err := r.Unredeem(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	got, err := r.Get(ctx, "st-demo", d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsedCount != 0 {
		t.Fatalf("used_count must not go negative: got %d", got.UsedCount)
	}

	if err := r.Redeem(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if err := r.Unredeem(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = r.Get(ctx, "st-demo", d.ID)
	if got.UsedCount != 0 {
		t.Fatalf("redeem then unredeem must restore zero, got %d", got.UsedCount)
	}
}

func TestConcurrentRedeemLastUse(t *testing.T) {
	db := memdb(t)
	r := repos.NewDiscountRepo(db)
	ctx := context.Background()

	d := newLimitedCode(t, r, "RACE1", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.Redeem(ctx, d.ID)
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, domain.ErrDiscountUsageExhausted) {
			t.Fatalf("loser must see ErrDiscountUsageExhausted, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one redemption must win, got %d", wins)
	}

	got, err := r.Get(ctx, "st-demo", d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsedCount != 1 {
		t.Fatalf("used_count must equal limit, got %d", got.UsedCount)
	}
}
