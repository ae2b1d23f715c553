package domain

type FinancialStatus string

const (
	FinancialPending  FinancialStatus = "pending"
	FinancialPaid     FinancialStatus = "paid"
	FinancialRefunded FinancialStatus = "refunded"
	FinancialFailed   FinancialStatus = "failed"
)

type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentPartial     FulfillmentStatus = "partially_fulfilled"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentCancelled   FulfillmentStatus = "cancelled"
)

var financialNext = map[FinancialStatus][]FinancialStatus{
	FinancialPending: {FinancialPaid, FinancialFailed},
	FinancialPaid:    {FinancialRefunded},
}

var fulfillmentNext = map[FulfillmentStatus][]FulfillmentStatus{
	FulfillmentUnfulfilled: {FulfillmentPartial, FulfillmentFulfilled, FulfillmentCancelled},
	FulfillmentPartial:     {FulfillmentFulfilled, FulfillmentCancelled},
}

func (s FinancialStatus) CanTransitionTo(next FinancialStatus) bool {
	for _, n := range financialNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s FulfillmentStatus) CanTransitionTo(next FulfillmentStatus) bool {
	for _, n := range fulfillmentNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Open reports whether the order still blocks store deactivation: payment
// undecided or fulfillment pending.
func (o Order) Open() bool {
	if o.Financial == FinancialPending && o.Fulfillment != FulfillmentCancelled {
		return true
	}
	return o.Financial == FinancialPaid &&
		(o.Fulfillment == FulfillmentUnfulfilled || o.Fulfillment == FulfillmentPartial)
}
