package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"storecraft/internal/domain"
	"storecraft/internal/repos"
)

// CheckoutLine is one cart line handed to the orchestrator.
type CheckoutLine struct {
	ProductID string
	Quantity  int
}

const (
	maxNumberAttempts  = 5
	snapshotConcurrent = 4
)

// ErrOrderNumberSpace surfaces after every collision retry is spent. It is
// an internal fault, not a business rejection.
var ErrOrderNumberSpace = errors.New("could not allocate a unique order number")

// CheckoutService converts a validated cart plus an optional discount code
// into a persisted order, atomically reserving inventory and discount usage.
// Catalog and ledger are separate resources, so any failure after the first
// reservation runs a compensating release instead of relying on one
// cross-entity transaction.
type CheckoutService struct {
	Stores    *repos.StoreRepo
	Catalog   *CatalogService
	Discounts *DiscountService
	Orders    *repos.OrderRepo

	// ReleaseTimeout bounds compensation when the caller's context is already
	// cancelled; an orphaned reservation must never survive a dropped request.
	ReleaseTimeout time.Duration

	// Now is injectable for validity-window tests.
	Now func() time.Time
}

func NewCheckoutService(stores *repos.StoreRepo, catalog *CatalogService, discounts *DiscountService, orders *repos.OrderRepo) *CheckoutService {
	return &CheckoutService{
		Stores:         stores,
		Catalog:        catalog,
		Discounts:      discounts,
		Orders:         orders,
		ReleaseTimeout: 5 * time.Second,
		Now:            time.Now,
	}
}

// Checkout is the single mutation boundary into the commerce core.
// All-or-nothing: it returns either a fully persisted, fully reserved order
// or an error with every counter exactly as it was before the attempt.
func (s *CheckoutService) Checkout(ctx context.Context, storeID string, lines []CheckoutLine, code string, buyer domain.BuyerInfo) (*domain.Order, error) {
	lines = mergeLines(lines)
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	store, err := s.Stores.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !store.Active {
		return nil, domain.ErrStoreInactive
	}

	// Snapshot name/price/sku per line before touching any counter.
	snapshots, err := s.resolveSnapshots(ctx, store.ID, lines)
	if err != nil {
		return nil, err
	}

	subtotal := 0.0
	for i, line := range lines {
		subtotal = domain.RoundCents(subtotal + domain.RoundCents(snapshots[i].Price*float64(line.Quantity)))
	}

	var effect domain.DiscountEffect
	if code != "" {
		effect, err = s.Discounts.Validate(ctx, store.ID, code, subtotal, s.Now())
		if err != nil {
			return nil, err
		}
	}

	// Reserve every line; the first failure releases whatever this attempt
	// already took and fails the whole checkout.
	reservations := make([]*Reservation, 0, len(lines))
	releaseAll := func() {
		rctx, cancel := context.WithTimeout(context.Background(), s.ReleaseTimeout)
		defer cancel()
		for _, res := range reservations {
			_ = res.Release(rctx)
		}
	}
	for _, line := range lines {
		res, err := s.Catalog.Reserve(ctx, line.ProductID, line.Quantity)
		if err != nil {
			releaseAll()
			return nil, err
		}
		reservations = append(reservations, res)
	}

	// Redeem after reservations. If another shopper exhausted the code since
	// validation, the whole checkout fails; a discount the shopper saw is
	// never silently dropped.
	if code != "" {
		if err := s.Discounts.Redeem(ctx, store.ID, code); err != nil {
			releaseAll()
			return nil, err
		}
	}

	order := &domain.Order{
		ID:           uuid.NewString(),
		StoreID:      store.ID,
		Email:        buyer.Email,
		Phone:        buyer.Phone,
		Note:         buyer.Note,
		DiscountCode: code,
		Subtotal:     subtotal,
		Discount:     effect.Amount,
		Shipping:     0, // pre-computed inputs in this engine; zero for now
		Tax:          0,
		Financial:    domain.FinancialPending,
		Fulfillment:  domain.FulfillmentUnfulfilled,
	}
	order.Total = domain.RoundCents(order.Subtotal - order.Discount + order.Shipping + order.Tax)
	for i, line := range lines {
		order.Items = append(order.Items, domain.LineItem{
			ProductID: snapshots[i].ID,
			Title:     snapshots[i].Name,
			SKU:       snapshots[i].SKU,
			Price:     snapshots[i].Price,
			Quantity:  line.Quantity,
		})
	}

	if err := s.persistWithNumber(ctx, order); err != nil {
		if code != "" {
			rctx, cancel := context.WithTimeout(context.Background(), s.ReleaseTimeout)
			_ = s.Discounts.Unredeem(rctx, store.ID, code)
			cancel()
		}
		releaseAll()
		return nil, err
	}
	return order, nil
}

// resolveSnapshots prices each line against the live catalog, a few products
// at a time. Every product must exist, be active, and belong to the store.
func (s *CheckoutService) resolveSnapshots(ctx context.Context, storeID string, lines []CheckoutLine) ([]domain.Product, error) {
	snapshots := make([]domain.Product, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrent)
	for i, line := range lines {
		g.Go(func() error {
			p, err := s.Catalog.Products.Get(gctx, line.ProductID)
			if err != nil {
				return err
			}
			if p.StoreID != storeID {
				return domain.ErrProductNotFound
			}
			if !p.Active {
				return domain.ErrProductInactive
			}
			snapshots[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// persistWithNumber retries order-number collisions a bounded number of
// times; the unique (store_id, order_number) index is the arbiter.
func (s *CheckoutService) persistWithNumber(ctx context.Context, order *domain.Order) error {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		order.Number = newOrderNumber()
		err := s.Orders.Create(ctx, order)
		if errors.Is(err, repos.ErrOrderNumberTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("persist order: %w", err)
		}
		return nil
	}
	return ErrOrderNumberSpace
}

// newOrderNumber is random rather than monotonic so order volume is not
// guessable across tenants.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%06d", rand.IntN(1_000_000))
}

// mergeLines folds duplicate product lines together, drops non-positive
// quantities, and orders lines deterministically so concurrent checkouts
// reserve in a stable sequence.
func mergeLines(lines []CheckoutLine) []CheckoutLine {
	byID := map[string]int{}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		byID[l.ProductID] += l.Quantity
	}
	out := make([]CheckoutLine, 0, len(byID))
	for id, qty := range byID {
		out = append(out, CheckoutLine{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
