package domain

// Cart is an ephemeral, per-session product->quantity map. It is never
// persisted; checkout consumes it and either way it is discarded.
type Cart struct {
	StoreID string
	Items   map[string]int
}

func NewCart(storeID string) *Cart {
	return &Cart{StoreID: storeID, Items: map[string]int{}}
}

// Add increments the quantity for a product. Quantities below one are
// clamped; the cart is advisory and stock is only checked at checkout.
func (c *Cart) Add(productID string, qty int) {
	if qty < 1 {
		qty = 1
	}
	c.Items[productID] += qty
}

// Set replaces the quantity for a product; zero or less removes the line.
func (c *Cart) Set(productID string, qty int) {
	if qty <= 0 {
		delete(c.Items, productID)
		return
	}
	c.Items[productID] = qty
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }

func (c *Cart) Clone() *Cart {
	out := NewCart(c.StoreID)
	for id, qty := range c.Items {
		out.Items[id] = qty
	}
	return out
}
