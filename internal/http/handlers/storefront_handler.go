package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"storecraft/internal/domain"
	applog "storecraft/internal/log"
	"storecraft/internal/repos"
	"storecraft/internal/services"
	"storecraft/internal/validate"
)

// StorefrontHandler serves the public, side-effect-free read path: the store
// page, product list, availability badges, and discount previews.
type StorefrontHandler struct {
	Catalog   *services.CatalogService
	Discounts *services.DiscountService
	Cart      *services.CartService
	Orders    *repos.OrderRepo
}

func (h *StorefrontHandler) Show(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Store not found"})
	}
	store, products, err := h.Catalog.StorefrontView(c.Context(), slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Store not found or not available"})
	}
	return render(c, "storefront", fiber.Map{"Store": store, "Products": products})
}

func (h *StorefrontHandler) Products(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
	}
	_, products, err := h.Catalog.StorefrontView(c.Context(), slug)
	if err != nil {
		return fail(c, "storefront.products", err)
	}
	return c.JSON(productViews(products))
}

func (h *StorefrontHandler) Availability(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	avail, err := h.Catalog.Availability(c.Context(), productID)
	if err != nil {
		return fail(c, "storefront.availability", err)
	}
	return c.JSON(avail)
}

// DiscountPreview computes the effect a code would have on the session's
// current cart. Pure read; nothing is redeemed.
func (h *StorefrontHandler) DiscountPreview(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "store not found"})
	}
	code, ok := validate.Code(c.Query("code"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid code"})
	}

	store, products, err := h.Catalog.StorefrontView(c.Context(), slug)
	if err != nil {
		return fail(c, "storefront.preview", err)
	}
	cart := h.Cart.Get(ensureSID(c), store.ID)
	view := services.ComputeTotals(cart, products, nil)

	effect, err := h.Discounts.Validate(c.Context(), store.ID, code, view.Subtotal, time.Now())
	if err != nil {
		return fail(c, "storefront.preview", err)
	}
	return c.JSON(effect)
}

// Order shows a confirmation page for a placed order. The id is an
// unguessable uuid handed back by checkout.
func (h *StorefrontHandler) Order(c *fiber.Ctx) error {
	o, err := h.Orders.Get(c.Context(), c.Params("id"))
	if err != nil {
		applog.Security(c, "storefront.order.miss", map[string]any{"order_id": c.Params("id")})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	return render(c, "order", fiber.Map{"Order": o})
}

type productView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	Featured bool    `json:"featured"`
	InStock  bool    `json:"in_stock"`
	Qty      *int    `json:"qty,omitempty"`
}

func productViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		v := productView{
			ID: p.ID, Name: p.Name, Slug: p.Slug, Price: p.Price,
			Featured: p.Featured, InStock: true,
		}
		if p.Stock.Tracked {
			units := p.Stock.Units
			v.Qty = &units
			v.InStock = units > 0
		}
		out = append(out, v)
	}
	return out
}
