package services

import (
	"context"
	"time"

	"storecraft/internal/domain"
	"storecraft/internal/repos"
)

// DiscountService is the discount ledger: pure validation plus the durable,
// race-safe redemption counter.
type DiscountService struct {
	Discounts *repos.DiscountRepo
}

func NewDiscountService(discounts *repos.DiscountRepo) *DiscountService {
	return &DiscountService{Discounts: discounts}
}

// Validate checks every redemption rule without mutating anything and
// returns the monetary effect against the given subtotal. The storefront
// preview endpoint calls this directly; so does checkout before reserving.
func (s *DiscountService) Validate(ctx context.Context, storeID, code string, subtotal float64, now time.Time) (domain.DiscountEffect, error) {
	d, err := s.Discounts.GetByCode(ctx, storeID, code)
	if err != nil {
		return domain.DiscountEffect{}, err
	}
	if err := d.Redeemable(subtotal, now); err != nil {
		return domain.DiscountEffect{}, err
	}
	return d.Effect(subtotal), nil
}

// Redeem durably consumes one use of the code. Between a successful Validate
// and this call another shopper may take the last use; the conditional
// increment makes that race lose cleanly here instead of overselling.
func (s *DiscountService) Redeem(ctx context.Context, storeID, code string) error {
	d, err := s.Discounts.GetByCode(ctx, storeID, code)
	if err != nil {
		return err
	}
	return s.Discounts.Redeem(ctx, d.ID)
}

// Unredeem hands a use back after a checkout that redeemed but failed to
// persist its order.
func (s *DiscountService) Unredeem(ctx context.Context, storeID, code string) error {
	d, err := s.Discounts.GetByCode(ctx, storeID, code)
	if err != nil {
		return err
	}
	return s.Discounts.Unredeem(ctx, d.ID)
}
