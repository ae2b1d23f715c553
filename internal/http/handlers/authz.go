package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storecraft/internal/domain"
	applog "storecraft/internal/log"
	"storecraft/internal/repos"
	"storecraft/internal/services"
)

// RequireOwner resolves the session to an owner account. The engine below
// this point trusts the (user, store) pair and never re-authenticates.
func RequireOwner(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		u, err := auth.CurrentUser(c.Context(), sid)
		if err != nil || u == nil {
			applog.Security(c, "access.denied.owner", map[string]any{"sid": sid})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireStore scopes a store-parameterized admin route to its owner and
// stashes the resolved store in locals.
func RequireStore(stores *repos.StoreRepo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, _ := c.Locals("user").(*repos.User)
		if u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		store, err := stores.Get(c.Context(), c.Params("storeID"))
		if err != nil || store.UserID != u.ID {
			applog.Security(c, "access.denied.store", map[string]any{"store_id": c.Params("storeID")})
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": domain.ErrStoreNotFound.Error()})
		}
		c.Locals("store", store)
		c.Locals("store_id", store.ID)
		return c.Next()
	}
}
