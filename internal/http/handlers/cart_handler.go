package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "storecraft/internal/log"
	"storecraft/internal/services"
	"storecraft/internal/validate"
)

type CartHandler struct {
	Catalog   *services.CatalogService
	Cart      *services.CartService
	Discounts *services.DiscountService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
	}
	store, products, err := h.Catalog.StorefrontView(c.Context(), slug)
	if err != nil {
		return fail(c, "cart.view", err)
	}

	cart := h.Cart.Get(ensureSID(c), store.ID)
	view := services.ComputeTotals(cart, products, nil)

	// Optional code preview alongside the totals.
	if code, ok := validate.Code(c.Query("code")); ok {
		if effect, err := h.Discounts.Validate(c.Context(), store.ID, code, view.Subtotal, time.Now()); err == nil {
			view = services.ComputeTotals(cart, products, &effect)
		}
	}
	return c.JSON(view)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
	}
	store, _, err := h.Catalog.StorefrontView(c.Context(), slug)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product_id"})
	}
	qty := validate.Qty(c.FormValue("qty"))

	// The cart is advisory; stock is only checked at checkout. The product
	// just has to exist in this store.
	p, err := h.Catalog.Products.Get(c.Context(), productID)
	if err != nil || p.StoreID != store.ID || !p.Active {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}

	// Copy before storing: fiber form values alias fasthttp's reusable
	// request buffer and must not outlive the request.
	h.Cart.Add(ensureSID(c), store.ID, strings.Clone(productID), qty)
	applog.Info(c, "cart.add", map[string]any{"product_id": productID, "qty": qty})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
	}
	store, err := h.Catalog.Stores.GetBySlug(c.Context(), slug)
	if err != nil {
		return fail(c, "cart.update", err)
	}
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing product_id"})
	}
	qty := 0
	if raw := c.FormValue("qty"); raw != "" && raw != "0" {
		qty = validate.Qty(raw)
	}
	h.Cart.Set(ensureSID(c), store.ID, strings.Clone(productID), qty)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
	}
	store, err := h.Catalog.Stores.GetBySlug(c.Context(), slug)
	if err != nil {
		return fail(c, "cart.clear", err)
	}
	h.Cart.Clear(ensureSID(c), store.ID)
	return c.SendStatus(fiber.StatusNoContent)
}
