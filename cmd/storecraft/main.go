package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"storecraft/internal/config"
	"storecraft/internal/http/handlers"
	applog "storecraft/internal/log"
	"storecraft/internal/repos"
	"storecraft/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok && fe.Code < fiber.StatusInternalServerError {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "something went wrong, please try again",
			})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	deps := handlers.NewDeps(db, cfg, authSvc)

	// ---------- Public storefront ----------
	app.Get("/s/:slug", deps.StorefrontHandler.Show)
	app.Get("/s/:slug/order/:id", deps.StorefrontHandler.Order)

	sf := app.Group("/api/v1/stores/:slug")
	sf.Get("/products", deps.StorefrontHandler.Products)
	sf.Get("/availability", limiter.New(limiter.Config{
		Max:        30,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
	}), deps.StorefrontHandler.Availability)
	sf.Get("/discount-preview", deps.StorefrontHandler.DiscountPreview)

	// Cart & checkout
	app.Get("/s/:slug/cart", deps.CartHandler.View)
	app.Post("/s/:slug/cart", deps.CartHandler.Add)
	app.Post("/s/:slug/cart/update", deps.CartHandler.Update)
	app.Post("/s/:slug/cart/clear", deps.CartHandler.Clear)
	app.Post("/s/:slug/checkout", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	}), deps.CheckoutHandler.Place)

	// ---------- Owner auth ----------
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// ---------- Admin API ----------
	admin := app.Group("/admin/api", handlers.RequireOwner(authSvc))
	admin.Get("/stores", deps.StoreAdmin.List)
	admin.Post("/stores", deps.StoreAdmin.Create)

	store := admin.Group("/stores/:storeID", handlers.RequireStore(deps.Stores))
	store.Put("/", deps.StoreAdmin.Update)
	store.Post("/activate", deps.StoreAdmin.Activate)
	store.Post("/deactivate", deps.StoreAdmin.Deactivate)

	store.Get("/products", deps.ProductAdmin.List)
	store.Post("/products", deps.ProductAdmin.Create)
	store.Put("/products/:id", deps.ProductAdmin.Update)
	store.Delete("/products/:id", deps.ProductAdmin.Delete)

	store.Get("/discounts", deps.DiscountAdmin.List)
	store.Post("/discounts", deps.DiscountAdmin.Create)
	store.Put("/discounts/:id", deps.DiscountAdmin.Update)
	store.Delete("/discounts/:id", deps.DiscountAdmin.Delete)

	store.Get("/orders", deps.OrderAdmin.List)
	store.Get("/orders/:id", deps.OrderAdmin.Get)
	store.Post("/orders/:id/financial", deps.OrderAdmin.SetFinancial)
	store.Post("/orders/:id/fulfillment", deps.OrderAdmin.SetFulfillment)
	store.Post("/orders/:id/cancel", deps.OrderAdmin.Cancel)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
