package domain

import (
	"math"
	"time"
)

// DiscountEffect is the monetary result of applying a code to a subtotal.
type DiscountEffect struct {
	Code   string       `json:"code"`
	Type   DiscountType `json:"type"`
	Amount float64      `json:"amount"`
}

// Redeemable checks every rule except the atomic counter increment.
// It never mutates; the durable used_count bump happens in the ledger.
func (d DiscountCode) Redeemable(subtotal float64, now time.Time) error {
	if !d.Active {
		return ErrDiscountInactive
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return ErrDiscountOutOfWindow
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return ErrDiscountOutOfWindow
	}
	if subtotal < d.MinimumAmount {
		return ErrDiscountBelowMinimum
	}
	if d.Usage.Bounded && d.UsedCount >= d.Usage.Max {
		return ErrDiscountUsageExhausted
	}
	return nil
}

// Effect computes the discount amount for a subtotal. Percentage values
// multiply, fixed amounts subtract. The amount is capped at the subtotal so
// a discount can never drive a total negative.
func (d DiscountCode) Effect(subtotal float64) DiscountEffect {
	var amount float64
	switch d.Type {
	case DiscountPercentage:
		amount = RoundCents(subtotal * d.Value / 100)
	default:
		amount = d.Value
	}
	if amount > subtotal {
		amount = subtotal
	}
	return DiscountEffect{Code: d.Code, Type: d.Type, Amount: amount}
}

// RoundCents rounds a money amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
