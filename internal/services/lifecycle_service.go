package services

import (
	"context"

	"storecraft/internal/domain"
	"storecraft/internal/repos"
)

// LifecycleService governs order status after creation. Orders are never
// mutated in substance; only their two statuses move, and only along the
// transitions the domain tables allow.
type LifecycleService struct {
	Orders *repos.OrderRepo
}

func NewLifecycleService(orders *repos.OrderRepo) *LifecycleService {
	return &LifecycleService{Orders: orders}
}

func (s *LifecycleService) SetFinancialStatus(ctx context.Context, orderID string, next domain.FinancialStatus) error {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.Financial.CanTransitionTo(next) {
		return &domain.InvalidTransitionError{
			Field: "financial_status", From: string(o.Financial), To: string(next),
		}
	}
	// Conditional on the state we just read; a concurrent transition makes
	// this a clean rejection rather than a lost update.
	return s.Orders.SetFinancialStatus(ctx, orderID, o.Financial, next)
}

func (s *LifecycleService) SetFulfillmentStatus(ctx context.Context, orderID string, next domain.FulfillmentStatus) error {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.Fulfillment.CanTransitionTo(next) {
		return &domain.InvalidTransitionError{
			Field: "fulfillment_status", From: string(o.Fulfillment), To: string(next),
		}
	}
	if err := s.Orders.SetFulfillmentStatus(ctx, orderID, o.Fulfillment, next); err != nil {
		return err
	}
	// Cancelling an unshipped order mirrors checkout's reservations: tracked
	// units go back to the catalog. The conditional transition above fired
	// exactly once, so the restock cannot double-apply.
	if next == domain.FulfillmentCancelled {
		return s.Orders.RestockItems(ctx, orderID)
	}
	return nil
}

// Cancel is the external-facing cancellation entry point.
func (s *LifecycleService) Cancel(ctx context.Context, orderID string) error {
	return s.SetFulfillmentStatus(ctx, orderID, domain.FulfillmentCancelled)
}
