package handlers

import (
	"github.com/jmoiron/sqlx"

	"storecraft/internal/config"
	"storecraft/internal/repos"
	"storecraft/internal/services"
)

type Deps struct {
	StorefrontHandler *StorefrontHandler
	CartHandler       *CartHandler
	CheckoutHandler   *CheckoutHandler
	StoreAdmin        *StoreAdminHandler
	ProductAdmin      *ProductAdminHandler
	DiscountAdmin     *DiscountAdminHandler
	OrderAdmin        *OrderAdminHandler

	Stores *repos.StoreRepo
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	storeRepo := repos.NewStoreRepo(db)
	productRepo := repos.NewProductRepo(db)
	discountRepo := repos.NewDiscountRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(storeRepo, productRepo)
	discountSvc := services.NewDiscountService(discountRepo)
	cartSvc := services.NewCartService()
	checkoutSvc := services.NewCheckoutService(storeRepo, catalogSvc, discountSvc, orderRepo)
	checkoutSvc.ReleaseTimeout = cfg.ReleaseTimeout
	lifecycleSvc := services.NewLifecycleService(orderRepo)
	storeSvc := services.NewStoreService(storeRepo, orderRepo)

	return &Deps{
		StorefrontHandler: &StorefrontHandler{Catalog: catalogSvc, Discounts: discountSvc, Cart: cartSvc, Orders: orderRepo},
		CartHandler:       &CartHandler{Catalog: catalogSvc, Cart: cartSvc, Discounts: discountSvc},
		CheckoutHandler:   &CheckoutHandler{Catalog: catalogSvc, Cart: cartSvc, Checkout: checkoutSvc, Timeout: cfg.CheckoutTimeout},
		StoreAdmin:        &StoreAdminHandler{Stores: storeSvc},
		ProductAdmin:      &ProductAdminHandler{Products: productRepo},
		DiscountAdmin:     &DiscountAdminHandler{Discounts: discountRepo},
		OrderAdmin:        &OrderAdminHandler{Orders: orderRepo, Lifecycle: lifecycleSvc},
		Stores:            storeRepo,
	}
}
