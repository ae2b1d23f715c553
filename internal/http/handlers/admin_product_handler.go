package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storecraft/internal/domain"
	applog "storecraft/internal/log"
	"storecraft/internal/repos"
	"storecraft/internal/validate"
)

type ProductAdminHandler struct {
	Products *repos.ProductRepo
}

type productForm struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	SKU         string   `json:"sku"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Track       bool     `json:"track_quantity"`
	Active      bool     `json:"is_active"`
	Featured    bool     `json:"is_featured"`
}

func (f *productForm) toDomain(storeID, id string) (domain.Product, error) {
	name, ok := validate.Name(f.Name)
	if !ok {
		return domain.Product{}, fiber.NewError(fiber.StatusBadRequest, "invalid name")
	}
	slug, ok := validate.Slug(f.Slug)
	if !ok {
		return domain.Product{}, fiber.NewError(fiber.StatusBadRequest, "invalid slug")
	}
	if f.Price == nil || *f.Price < 0 {
		return domain.Product{}, fiber.NewError(fiber.StatusBadRequest, "price must be a non-negative number")
	}
	p := domain.Product{
		ID: id, StoreID: storeID, Name: name, Slug: slug,
		Description: f.Description, SKU: f.SKU, Price: *f.Price,
		Active: f.Active, Featured: f.Featured,
	}
	if f.Track {
		units := 0
		if f.Quantity != nil {
			units = *f.Quantity
		}
		if units < 0 {
			return domain.Product{}, fiber.NewError(fiber.StatusBadRequest, "quantity must be zero or more")
		}
		p.Stock = domain.StockLevel{Tracked: true, Units: units}
	}
	return p, nil
}

func (h *ProductAdminHandler) List(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	products, err := h.Products.ListByStore(c.Context(), store.ID)
	if err != nil {
		return fail(c, "admin.products.list", err)
	}
	return c.JSON(products)
}

func (h *ProductAdminHandler) Create(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	var form productForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := form.toDomain(store.ID, "")
	if err != nil {
		return err
	}
	created, err := h.Products.Create(c.Context(), p)
	if err != nil {
		return fail(c, "admin.products.create", err)
	}
	applog.Audit(c, "admin.product.created", map[string]any{"product_id": created.ID})
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *ProductAdminHandler) Update(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	var form productForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	p, err := form.toDomain(store.ID, id)
	if err != nil {
		return err
	}
	if err := h.Products.Update(c.Context(), p); err != nil {
		return fail(c, "admin.products.update", err)
	}
	applog.Audit(c, "admin.product.updated", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ProductAdminHandler) Delete(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if err := h.Products.Delete(c.Context(), store.ID, id); err != nil {
		return fail(c, "admin.products.delete", err)
	}
	applog.Audit(c, "admin.product.deleted", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
