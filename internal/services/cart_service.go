package services

import (
	"sync"

	"storecraft/internal/domain"
)

// CartService keeps per-session carts in memory. Carts are advisory view
// state: nothing here touches stock or discount counters, and a cart is
// thrown away once a checkout attempt (success or failure) consumes it.
type CartService struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart // keyed by session|store
}

func NewCartService() *CartService {
	return &CartService{carts: map[string]*domain.Cart{}}
}

func cartKey(sessionID, storeID string) string { return sessionID + "|" + storeID }

func (s *CartService) Add(sessionID, storeID, productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey(sessionID, storeID)
	c, ok := s.carts[key]
	if !ok {
		c = domain.NewCart(storeID)
		s.carts[key] = c
	}
	c.Add(productID, qty)
}

func (s *CartService) Set(sessionID, storeID, productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cartKey(sessionID, storeID)
	c, ok := s.carts[key]
	if !ok {
		if qty <= 0 {
			return
		}
		c = domain.NewCart(storeID)
		s.carts[key] = c
	}
	c.Set(productID, qty)
}

// Get returns a copy; callers never share the live map with the mutators.
func (s *CartService) Get(sessionID, storeID string) *domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.carts[cartKey(sessionID, storeID)]; ok {
		return c.Clone()
	}
	return domain.NewCart(storeID)
}

func (s *CartService) Clear(sessionID, storeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartKey(sessionID, storeID))
}

type CartLine struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type CartView struct {
	Lines       []CartLine `json:"lines"`
	Unavailable []string   `json:"unavailable,omitempty"`
	Subtotal    float64    `json:"subtotal"`
	Discount    float64    `json:"discount"`
	Total       float64    `json:"total"`
}

// ComputeTotals prices a cart against a catalog snapshot. Products that no
// longer resolve (deleted or deactivated) are reported in Unavailable rather
// than silently priced at zero. Reproducible from cart + catalog alone.
func ComputeTotals(cart *domain.Cart, catalog []domain.Product, effect *domain.DiscountEffect) CartView {
	byID := make(map[string]domain.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	view := CartView{}
	for productID, qty := range cart.Items {
		p, ok := byID[productID]
		if !ok || !p.Active {
			view.Unavailable = append(view.Unavailable, productID)
			continue
		}
		lineTotal := domain.RoundCents(p.Price * float64(qty))
		view.Lines = append(view.Lines, CartLine{
			ProductID: p.ID, Title: p.Name, Price: p.Price,
			Quantity: qty, LineTotal: lineTotal,
		})
		view.Subtotal = domain.RoundCents(view.Subtotal + lineTotal)
	}

	if effect != nil {
		view.Discount = effect.Amount
		if view.Discount > view.Subtotal {
			view.Discount = view.Subtotal
		}
	}
	view.Total = domain.RoundCents(view.Subtotal - view.Discount)
	return view
}
