package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storecraft/internal/domain"
	applog "storecraft/internal/log"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	return c.Render(tmpl, data)
}

// ensureSID hands every shopper a session cookie; the in-memory cart hangs
// off it.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // set true behind TLS
		})
	}
	return sid
}

// fail maps an engine error onto a JSON response: business rejections get a
// 4xx with the message so the shopper can fix their input, everything else
// is a logged 500 with no internals leaked.
func fail(c *fiber.Ctx, action string, err error) error {
	if domain.IsBusiness(err) {
		status := fiber.StatusBadRequest
		var stock *domain.InsufficientStockError
		switch {
		case errors.As(err, &stock), errors.Is(err, domain.ErrDiscountUsageExhausted):
			status = fiber.StatusConflict
		case errors.Is(err, domain.ErrStoreNotFound),
			errors.Is(err, domain.ErrProductNotFound),
			errors.Is(err, domain.ErrCodeNotFound),
			errors.Is(err, domain.ErrOrderNotFound):
			status = fiber.StatusNotFound
		}
		applog.Security(c, action, map[string]any{"error": err.Error()})
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong, please try again"})
}
