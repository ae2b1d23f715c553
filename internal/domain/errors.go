package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStoreNotFound      = errors.New("store not found")
	ErrStoreInactive      = errors.New("store is not active")
	ErrStoreHasOpenOrders = errors.New("store has open orders")

	ErrProductNotFound = errors.New("product not found")
	ErrProductInactive = errors.New("product is not active")

	ErrCodeNotFound           = errors.New("discount code not found")
	ErrDiscountInactive       = errors.New("discount code is not active")
	ErrDiscountOutOfWindow    = errors.New("discount code is outside its validity window")
	ErrDiscountBelowMinimum   = errors.New("order subtotal is below the discount minimum")
	ErrDiscountUsageExhausted = errors.New("discount code usage limit reached")

	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
)

// InsufficientStockError names the product that could not be reserved.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (have %d, need %d)", e.ProductID, e.Available, e.Requested)
}

// InvalidTransitionError reports a rejected order status change.
type InvalidTransitionError struct {
	Field string // "financial_status" | "fulfillment_status"
	From  string
	To    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition %s -> %s", e.Field, e.From, e.To)
}

// IsBusiness reports whether err is a business-rule rejection, as opposed to
// a data-layer or internal fault. Handlers use it to pick "fix your input"
// over "try again".
func IsBusiness(err error) bool {
	for _, target := range []error{
		ErrStoreNotFound, ErrStoreInactive, ErrStoreHasOpenOrders,
		ErrProductNotFound, ErrProductInactive,
		ErrCodeNotFound, ErrDiscountInactive, ErrDiscountOutOfWindow,
		ErrDiscountBelowMinimum, ErrDiscountUsageExhausted,
		ErrOrderNotFound, ErrEmptyCart,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		return true
	}
	var trans *InvalidTransitionError
	return errors.As(err, &trans)
}
