package handlers

import (
	"log/slog"
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Catalog   *services.CatalogService
	Coupons   *services.CouponService
	Upcoming  *services.UpcomingService
	Settings  *services.SettingsService
	Recharge  *services.RechargeService
	Sessions  *services.Sessions
	Assistant *services.Assistant
	Delivery  services.Delivery
	AdminPIN  string
	Logger    *slog.Logger
}

// NewRouter builds the storefront HTTP router.
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	catalogHandler := NewCatalogHandler(deps.Catalog)
	couponHandler := NewCouponHandler(deps.Coupons)
	sessionHandler := NewSessionHandler(deps.Sessions)
	assistantHandler := NewAssistantHandler(deps.Assistant)
	adminHandler := NewAdminHandler(deps.Upcoming, deps.Settings, deps.Recharge)
	shareHandler := NewShareHandler(deps.Catalog, deps.Delivery)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	// settings stay readable during maintenance so clients can show it
	api.GET("/settings", adminHandler.GetSettings)

	// Public store endpoints
	store := api.Group("", Maintenance(deps.Settings))
	{
		store.GET("/catalog", catalogHandler.ListItems)
		store.GET("/catalog/genres", catalogHandler.ListGenres)
		store.GET("/catalog/:id", catalogHandler.GetItem)
		store.GET("/catalog/:id/similar", catalogHandler.SimilarItems)
		store.GET("/catalog/:id/enquiry", shareHandler.Enquiry)
		store.GET("/upcoming", adminHandler.ListUpcoming)
		store.GET("/coupons/available", couponHandler.GetAvailableCoupons)

		store.GET("/session", sessionHandler.Summary)
		store.GET("/totals", sessionHandler.Totals)

		store.GET("/cart", sessionHandler.GetCart)
		store.POST("/cart", sessionHandler.AddToCart)
		store.DELETE("/cart", sessionHandler.ClearCart)
		store.POST("/cart/bundle", sessionHandler.AddBundle)
		store.PATCH("/cart/:line", sessionHandler.UpdateQuantity)
		store.DELETE("/cart/:line", sessionHandler.RemoveLine)

		store.GET("/wishlist", sessionHandler.GetWishlist)
		store.POST("/wishlist/:id", sessionHandler.ToggleWishlist)

		store.POST("/coupon", sessionHandler.ApplyCoupon)
		store.DELETE("/coupon", sessionHandler.ClearCoupon)

		store.GET("/wallet", sessionHandler.GetWallet)
		store.PUT("/wallet/use", sessionHandler.SetUseWallet)
		store.POST("/wallet/redeem", sessionHandler.Redeem)

		store.POST("/rewards/spin", sessionHandler.Spin)
		store.GET("/rewards/spin", sessionHandler.SpinResult)
		store.GET("/rewards/loot", sessionHandler.LootStatus)
		store.POST("/rewards/loot", sessionHandler.ClaimLoot)

		store.GET("/checkout", sessionHandler.CheckoutStatus)
		store.POST("/checkout/contact", sessionHandler.SubmitContact)
		store.POST("/checkout/payment", sessionHandler.ChoosePayment)
		store.POST("/checkout/confirm", sessionHandler.Confirm)
		store.POST("/checkout/cancel", sessionHandler.Cancel)
		store.POST("/checkout/reset", sessionHandler.Reset)
		store.POST("/checkout/buy-now", sessionHandler.BuyNow)
		store.GET("/orders/last", sessionHandler.LastOrder)

		store.POST("/sell/listing", shareHandler.Listing)
		store.POST("/sell/instant", shareHandler.InstantSell)

		store.GET("/assistant/chat", assistantHandler.History)
		store.POST("/assistant/chat", assistantHandler.Chat)
		store.DELETE("/assistant/chat", assistantHandler.Forget)
		store.POST("/assistant/recommend", assistantHandler.Recommend)
	}

	// Admin endpoints
	admin := api.Group("/admin", AdminAuth(deps.AdminPIN))
	{
		admin.POST("/catalog", catalogHandler.CreateItem)
		admin.PATCH("/catalog/:id", catalogHandler.PatchItem)
		admin.DELETE("/catalog/:id", catalogHandler.DeleteItem)
		admin.POST("/catalog/import", assistantHandler.Import)

		admin.GET("/coupons", couponHandler.ListCoupons)
		admin.POST("/coupons", couponHandler.CreateCoupon)
		admin.PUT("/coupons/:id", couponHandler.UpdateCoupon)
		admin.DELETE("/coupons/:id", couponHandler.DeleteCoupon)

		admin.POST("/upcoming", adminHandler.CreateUpcoming)
		admin.PUT("/upcoming/:id", adminHandler.UpdateUpcoming)
		admin.DELETE("/upcoming/:id", adminHandler.DeleteUpcoming)

		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.UpdateSettings)

		admin.GET("/recharge-codes", adminHandler.ListRechargeCodes)
		admin.POST("/recharge-codes", adminHandler.CreateRechargeCode)
	}

	return r
}
