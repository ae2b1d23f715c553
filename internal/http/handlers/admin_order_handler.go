package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"storecraft/internal/domain"
	applog "storecraft/internal/log"
	"storecraft/internal/repos"
	"storecraft/internal/services"
)

type OrderAdminHandler struct {
	Orders    *repos.OrderRepo
	Lifecycle *services.LifecycleService
}

func (h *OrderAdminHandler) List(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	orders, err := h.Orders.ListByStore(c.Context(), store.ID, limit)
	if err != nil {
		return fail(c, "admin.orders.list", err)
	}
	return c.JSON(orders)
}

func (h *OrderAdminHandler) Get(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	o, err := h.Orders.Get(c.Context(), c.Params("id"))
	if err != nil || o.StoreID != store.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	return c.JSON(o)
}

// SetFinancial handles externally triggered payment outcomes (paid,
// refunded, failed). Invalid transitions come back as errors without
// touching state.
func (h *OrderAdminHandler) SetFinancial(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	orderID := c.Params("id")
	if o, err := h.Orders.Get(c.Context(), orderID); err != nil || o.StoreID != store.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	next := domain.FinancialStatus(c.FormValue("status"))
	switch next {
	case domain.FinancialPaid, domain.FinancialRefunded, domain.FinancialFailed:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown financial status"})
	}

	if err := h.Lifecycle.SetFinancialStatus(c.Context(), orderID, next); err != nil {
		return fail(c, "admin.orders.financial", err)
	}
	applog.Audit(c, "admin.order.financial", map[string]any{"order_id": orderID, "status": string(next)})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *OrderAdminHandler) SetFulfillment(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	orderID := c.Params("id")
	if o, err := h.Orders.Get(c.Context(), orderID); err != nil || o.StoreID != store.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	next := domain.FulfillmentStatus(c.FormValue("status"))
	switch next {
	case domain.FulfillmentPartial, domain.FulfillmentFulfilled:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown fulfillment status"})
	}

	if err := h.Lifecycle.SetFulfillmentStatus(c.Context(), orderID, next); err != nil {
		return fail(c, "admin.orders.fulfillment", err)
	}
	applog.Audit(c, "admin.order.fulfillment", map[string]any{"order_id": orderID, "status": string(next)})
	return c.SendStatus(fiber.StatusNoContent)
}

// Cancel rejects fulfilled orders and releases reserved stock otherwise.
func (h *OrderAdminHandler) Cancel(c *fiber.Ctx) error {
	store, _ := c.Locals("store").(domain.Store)
	orderID := c.Params("id")
	if o, err := h.Orders.Get(c.Context(), orderID); err != nil || o.StoreID != store.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	if err := h.Lifecycle.Cancel(c.Context(), orderID); err != nil {
		return fail(c, "admin.orders.cancel", err)
	}
	applog.Audit(c, "admin.order.cancelled", map[string]any{"order_id": orderID})
	return c.SendStatus(fiber.StatusNoContent)
}
