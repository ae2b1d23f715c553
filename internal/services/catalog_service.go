package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"storecraft/internal/domain"
	"storecraft/internal/repos"
)

// CatalogService is the storefront read path plus the stock reservation
// surface. Reservations are the only legal way shopper traffic decrements
// stock; owner edits go through the product repo directly.
type CatalogService struct {
	Stores   *repos.StoreRepo
	Products *repos.ProductRepo
}

func NewCatalogService(stores *repos.StoreRepo, products *repos.ProductRepo) *CatalogService {
	return &CatalogService{Stores: stores, Products: products}
}

// StorefrontView resolves an active store by slug with its active products.
func (s *CatalogService) StorefrontView(ctx context.Context, slug string) (domain.Store, []domain.Product, error) {
	store, err := s.Stores.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Store{}, nil, err
	}
	if !store.Active {
		return domain.Store{}, nil, domain.ErrStoreNotFound
	}
	products, err := s.Products.ListActiveByStore(ctx, store.ID)
	if err != nil {
		return domain.Store{}, nil, err
	}
	return store, products, nil
}

// Availability converts remaining units into a storefront badge.
func (s *CatalogService) Availability(ctx context.Context, productID string) (domain.Availability, error) {
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}
	if !p.Active {
		return domain.Availability{Status: "OUT_OF_STOCK"}, nil
	}
	if !p.Stock.Tracked {
		return domain.Availability{Status: "IN_STOCK"}, nil
	}
	status := "OUT_OF_STOCK"
	switch {
	case p.Stock.Units >= 5:
		status = "IN_STOCK"
	case p.Stock.Units > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: p.Stock.Units}, nil
}

// Reservation is a provisional, reversible stock decrement tied to a single
// checkout attempt. Release is idempotent: the units go back exactly once no
// matter how many failure paths call it.
type Reservation struct {
	ID        string
	ProductID string
	Qty       int

	products *repos.ProductRepo

	mu       sync.Mutex
	released bool
}

// Reserve atomically claims qty units of a product. Untracked products
// always succeed without mutating anything; their release is a no-op too.
func (s *CatalogService) Reserve(ctx context.Context, productID string, qty int) (*Reservation, error) {
	if err := s.Products.Reserve(ctx, productID, qty); err != nil {
		return nil, err
	}
	return &Reservation{
		ID:        uuid.NewString(),
		ProductID: productID,
		Qty:       qty,
		products:  s.Products,
	}, nil
}

func (r *Reservation) Release(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil
	}
	if err := r.products.Release(ctx, r.ProductID, r.Qty); err != nil {
		return err
	}
	r.released = true
	return nil
}
