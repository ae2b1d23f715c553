package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"storecraft/internal/domain"
	applog "storecraft/internal/log"
	"storecraft/internal/services"
	"storecraft/internal/validate"
)

// CheckoutHandler is the single externally callable mutation boundary into
// the commerce core.
type CheckoutHandler struct {
	Catalog  *services.CatalogService
	Cart     *services.CartService
	Checkout *services.CheckoutService
	Timeout  time.Duration
}

func (h *CheckoutHandler) Place(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
	}
	store, err := h.Catalog.Stores.GetBySlug(c.Context(), slug)
	if err != nil {
		return fail(c, "checkout.store", err)
	}

	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}
	buyer := domain.BuyerInfo{
		Email: email,
		Phone: c.FormValue("phone"),
		Note:  c.FormValue("note"),
	}
	code := ""
	if raw := c.FormValue("code"); raw != "" {
		code, ok = validate.Code(raw)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid discount code"})
		}
	}

	sid := ensureSID(c)
	cart := h.Cart.Get(sid, store.ID)
	lines := make([]services.CheckoutLine, 0, len(cart.Items))
	for productID, qty := range cart.Items {
		lines = append(lines, services.CheckoutLine{ProductID: productID, Quantity: qty})
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Context(), timeout)
	defer cancel()

	order, err := h.Checkout.Checkout(ctx, store.ID, lines, code, buyer)

	// The cart is spent either way; a failed attempt starts over from the
	// storefront with fresh stock truth.
	h.Cart.Clear(sid, store.ID)

	if err != nil {
		return fail(c, "checkout.place", err)
	}

	applog.Audit(c, "checkout.placed", map[string]any{
		"store_id": store.ID,
		"order_id": order.ID,
		"number":   order.Number,
		"total":    order.Total,
		"discount": order.Discount,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_id": order.ID,
		"number":   order.Number,
		"subtotal": order.Subtotal,
		"discount": order.Discount,
		"total":    order.Total,
	})
}
