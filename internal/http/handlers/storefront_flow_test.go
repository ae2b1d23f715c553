package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"storecraft/internal/config"
	"storecraft/internal/http/handlers"
	"storecraft/internal/repos"
	"storecraft/internal/services"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// newApp wires the JSON surface against a seeded in-memory database, the
// same routes the server registers minus the rate limiters and HTML pages.
func newApp(t *testing.T) (*fiber.App, *repos.UserRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repos.NewUserRepo(db)
	auth := &services.AuthService{Users: users}
	cfg := config.Config{CheckoutTimeout: 5 * time.Second, ReleaseTimeout: 5 * time.Second}
	deps := handlers.NewDeps(db, cfg, auth)

	app := fiber.New()
	sf := app.Group("/api/v1/stores/:slug")
	sf.Get("/products", deps.StorefrontHandler.Products)
	sf.Get("/availability", deps.StorefrontHandler.Availability)
	sf.Get("/discount-preview", deps.StorefrontHandler.DiscountPreview)

	app.Get("/s/:slug/cart", deps.CartHandler.View)
	app.Post("/s/:slug/cart", deps.CartHandler.Add)
	app.Post("/s/:slug/cart/update", deps.CartHandler.Update)
	app.Post("/s/:slug/cart/clear", deps.CartHandler.Clear)
	app.Post("/s/:slug/checkout", deps.CheckoutHandler.Place)

	admin := app.Group("/admin/api", handlers.RequireOwner(auth))
	store := admin.Group("/stores/:storeID", handlers.RequireStore(deps.Stores))
	store.Get("/orders", deps.OrderAdmin.List)
	store.Post("/orders/:id/cancel", deps.OrderAdmin.Cancel)

	return app, users
}

// session carries the shopper's sid cookie across requests.
type session struct {
	t   *testing.T
	app *fiber.App
	sid string
}

func (s *session) do(method, path string, form url.Values) *http.Response {
	s.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: s.sid})
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == "sid" {
			s.sid = ck.Value
		}
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestShopperFlow(t *testing.T) {
	app, _ := newApp(t)
	s := &session{t: t, app: app}

	resp := s.do("POST", "/s/demo-goods/cart", url.Values{
		"product_id": {"p-mug"}, "qty": {"2"},
	})
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.NotEmpty(t, s.sid)

	var view services.CartView
	decode(t, s.do("GET", "/s/demo-goods/cart?code=SAVE10", nil), &view)
	require.Len(t, view.Lines, 1)
	require.Equal(t, 29.00, view.Subtotal)
	require.Equal(t, 2.90, view.Discount)
	require.Equal(t, 26.10, view.Total)

	resp = s.do("POST", "/s/demo-goods/checkout", url.Values{
		"email": {"shopper@example.com"}, "code": {"SAVE10"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var placed struct {
		OrderID  string  `json:"order_id"`
		Number   string  `json:"number"`
		Subtotal float64 `json:"subtotal"`
		Discount float64 `json:"discount"`
		Total    float64 `json:"total"`
	}
	decode(t, resp, &placed)
	require.Regexp(t, `^ORD-\d{6}$`, placed.Number)
	require.Equal(t, 26.10, placed.Total)

	// The cart is spent by the attempt.
	decode(t, s.do("GET", "/s/demo-goods/cart", nil), &view)
	require.Empty(t, view.Lines)

	// And the availability badge reflects the reserved units.
	var avail struct {
		Status string `json:"status"`
		Qty    int    `json:"qty"`
	}
	decode(t, s.do("GET", "/api/v1/stores/demo-goods/availability?productId=p-mug", nil), &avail)
	require.Equal(t, "IN_STOCK", avail.Status)
	require.Equal(t, 23, avail.Qty)
}

func TestCheckoutRejectionsOverHTTP(t *testing.T) {
	app, _ := newApp(t)
	s := &session{t: t, app: app}

	// Empty cart.
	resp := s.do("POST", "/s/demo-goods/checkout", url.Values{
		"email": {"shopper@example.com"},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Oversell maps to 409 and the cart is discarded.
	resp = s.do("POST", "/s/demo-goods/cart", url.Values{
		"product_id": {"p-tee"}, "qty": {"9"},
	})
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = s.do("POST", "/s/demo-goods/checkout", url.Values{
		"email": {"shopper@example.com"},
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var view services.CartView
	decode(t, s.do("GET", "/s/demo-goods/cart", nil), &view)
	require.Empty(t, view.Lines)

	// Unknown store.
	resp = s.do("GET", "/s/no-such-store/cart", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesRequireOwnership(t *testing.T) {
	app, users := newApp(t)
	s := &session{t: t, app: app}

	// Anonymous.
	resp := s.do("GET", "/admin/api/stores/st-demo/orders", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Bind a session for the seeded owner and retry.
	s.sid = "sess-owner"
	require.NoError(t, users.BindSession(context.Background(), "sess-owner", "u-demo"))
	resp = s.do("GET", "/admin/api/stores/st-demo/orders", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// A store the user does not own reads as not found.
	resp = s.do("GET", "/admin/api/stores/st-nope/orders", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
