package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"storecraft/internal/domain"
	applog "storecraft/internal/log"
	"storecraft/internal/repos"
	"storecraft/internal/validate"
)

type DiscountAdminHandler struct {
	Discounts *repos.DiscountRepo
}

type discountForm struct {
	Code          string   `json:"code"`
	Type          string   `json:"type"`
	Value         *float64 `json:"value"`
	MinimumAmount float64  `json:"minimum_amount"`
	UsageLimit    *int     `json:"usage_limit"`
	StartsAt      string   `json:"starts_at"`
	EndsAt        string   `json:"ends_at"`
	Active        bool     `json:"is_active"`
}

func (f *discountForm) toDomain(storeID, id string) (domain.DiscountCode, error) {
	code, ok := validate.Code(f.Code)
	if !ok {
		return domain.DiscountCode{}, fiber.NewError(fiber.StatusBadRequest, "invalid code")
	}
	typ := domain.DiscountType(f.Type)
	if typ != domain.DiscountPercentage && typ != domain.DiscountFixed {
		return domain.DiscountCode{}, fiber.NewError(fiber.StatusBadRequest, "type must be percentage or fixed_amount")
	}
	if f.Value == nil || *f.Value < 0 {
		return domain.DiscountCode{}, fiber.NewError(fiber.StatusBadRequest, "value must be a non-negative number")
	}
	if typ == domain.DiscountPercentage && *f.Value > 100 {
		return domain.DiscountCode{}, fiber.NewError(fiber.StatusBadRequest, "percentage value cannot exceed 100")
	}
	d := domain.DiscountCode{
		ID: id, StoreID: storeID, Code: code, Type: typ,
		Value: *f.Value, MinimumAmount: f.MinimumAmount, Active: f.Active,
	}
	if f.UsageLimit != nil {
		if *f.UsageLimit < 1 {
			return domain.DiscountCode{}, fiber.NewError(fiber.StatusBadRequest, "usage_limit must be at least 1")
		}
		d.Usage = domain.UsageLimit{Bounded: true, Max: *f.UsageLimit}
	}
	var err error
	if d.StartsAt, err = parseWindowField(f.StartsAt); err != nil {
		return domain.DiscountCode{}, fiber.NewError(fiber.StatusBadRequest, "starts_at must be RFC3339")
	}
	if d.EndsAt, err = parseWindowField(f.EndsAt); err != nil {
		return domain.DiscountCode{}, fiber.NewError(fiber.StatusBadRequest, "ends_at must be RFC3339")
	}
	if d.StartsAt != nil && d.EndsAt != nil && d.EndsAt.Before(*d.StartsAt) {
		return domain.DiscountCode{}, fiber.NewError(fiber.StatusBadRequest, "ends_at is before starts_at")
	}
	return d, nil
}

func parseWindowField(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *DiscountAdminHandler) List(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	discounts, err := h.Discounts.ListByStore(c.Context(), store.ID)
	if err != nil {
		return fail(c, "admin.discounts.list", err)
	}
	return c.JSON(discounts)
}

func (h *DiscountAdminHandler) Create(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	var form discountForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	d, err := form.toDomain(store.ID, "")
	if err != nil {
		return err
	}
	created, err := h.Discounts.Create(c.Context(), d)
	if errors.Is(err, repos.ErrCodeTaken) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "code already exists for this store"})
	}
	if err != nil {
		return fail(c, "admin.discounts.create", err)
	}
	applog.Audit(c, "admin.discount.created", map[string]any{"discount_id": created.ID, "code": created.Code})
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *DiscountAdminHandler) Update(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "discount not found"})
	}
	var form discountForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	d, err := form.toDomain(store.ID, id)
	if err != nil {
		return err
	}
	if err := h.Discounts.Update(c.Context(), d); err != nil {
		return fail(c, "admin.discounts.update", err)
	}
	applog.Audit(c, "admin.discount.updated", map[string]any{"discount_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DiscountAdminHandler) Delete(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "discount not found"})
	}
	if err := h.Discounts.Delete(c.Context(), store.ID, id); err != nil {
		return fail(c, "admin.discounts.delete", err)
	}
	applog.Audit(c, "admin.discount.deleted", map[string]any{"discount_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
