package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storecraft/internal/domain"
	applog "storecraft/internal/log"
	"storecraft/internal/repos"
	"storecraft/internal/services"
	"storecraft/internal/validate"
)

type StoreAdminHandler struct {
	Stores *services.StoreService
}

func (h *StoreAdminHandler) List(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*repos.User)
	stores, err := h.Stores.Stores.ListByUser(c.Context(), u.ID)
	if err != nil {
		return fail(c, "admin.stores.list", err)
	}
	return c.JSON(stores)
}

func (h *StoreAdminHandler) Create(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*repos.User)
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid name"})
	}
	slug, ok := validate.Slug(c.FormValue("slug"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "slug must be lowercase letters, digits and dashes"})
	}

	store, err := h.Stores.Create(c.Context(), u.ID, name, slug, c.FormValue("description"))
	if errors.Is(err, repos.ErrSlugTaken) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "slug already in use"})
	}
	if err != nil {
		return fail(c, "admin.stores.create", err)
	}
	applog.Audit(c, "admin.store.created", map[string]any{"store_id": store.ID, "slug": store.Slug})
	return c.Status(fiber.StatusCreated).JSON(store)
}

func (h *StoreAdminHandler) Update(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid name"})
	}
	if err := h.Stores.Update(c.Context(), store.ID, name, c.FormValue("description")); err != nil {
		return fail(c, "admin.stores.update", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *StoreAdminHandler) Activate(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	if err := h.Stores.Activate(c.Context(), store.ID); err != nil {
		return fail(c, "admin.stores.activate", err)
	}
	applog.Audit(c, "admin.store.activated", map[string]any{"store_id": store.ID})
	return c.SendStatus(fiber.StatusNoContent)
}

// Deactivate is refused while open orders exist; settle or cancel them first.
func (h *StoreAdminHandler) Deactivate(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	if err := h.Stores.Deactivate(c.Context(), store.ID); err != nil {
		return fail(c, "admin.stores.deactivate", err)
	}
	applog.Audit(c, "admin.store.deactivated", map[string]any{"store_id": store.ID})
	return c.SendStatus(fiber.StatusNoContent)
}
