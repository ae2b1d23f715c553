package services

import (
	"context"

	"storecraft/internal/domain"
	"storecraft/internal/repos"
)

// StoreService covers tenant management for owners.
type StoreService struct {
	Stores *repos.StoreRepo
	Orders *repos.OrderRepo
}

func NewStoreService(stores *repos.StoreRepo, orders *repos.OrderRepo) *StoreService {
	return &StoreService{Stores: stores, Orders: orders}
}

func (s *StoreService) Create(ctx context.Context, userID, name, slug, description string) (domain.Store, error) {
	return s.Stores.Create(ctx, userID, name, slug, description)
}

func (s *StoreService) Update(ctx context.Context, storeID, name, description string) error {
	return s.Stores.Update(ctx, storeID, name, description)
}

// Deactivate takes a store off the public storefront. Refused while open
// orders exist; the orders must settle or be cancelled first.
func (s *StoreService) Deactivate(ctx context.Context, storeID string) error {
	open, err := s.Orders.HasOpenOrders(ctx, storeID)
	if err != nil {
		return err
	}
	if open {
		return domain.ErrStoreHasOpenOrders
	}
	return s.Stores.SetActive(ctx, storeID, false)
}

func (s *StoreService) Activate(ctx context.Context, storeID string) error {
	return s.Stores.SetActive(ctx, storeID, true)
}
