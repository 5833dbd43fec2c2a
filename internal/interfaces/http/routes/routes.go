// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/notify"
	"gorm.io/gorm"
)

// SetupRoutes wires every API group under the given router group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) {
	notifier := notify.NewDispatcher(cfg, log)
	gateway := payment.NewRazorpayGateway(cfg)
	checkoutService := checkout.NewService(db, redisClient, cfg, log, gateway, notifier)

	SetupAuthRoutes(rg, db, cfg)
	SetupProductRoutes(rg, db, cfg)
	SetupCartRoutes(rg, db, cfg)
	SetupCheckoutRoutes(rg, checkoutService, cfg)
	SetupOrderRoutes(rg, db, cfg, notifier)
	SetupReturnRoutes(rg, db, cfg, notifier)
	SetupLoyaltyRoutes(rg, db, cfg)
	SetupAdminRoutes(rg, db, cfg, notifier)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		// Public auth endpoints
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		// Protected auth endpoints
		protected := auth.Group("")
		protected.Use(middleware.RequireAuth(cfg))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.POST("/change-password", authHandler.ChangePassword)
		}
	}
}

// SetupProductRoutes sets up the public product catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
	}
}

// SetupCartRoutes sets up shopping cart routes
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, cfg)

	cart := rg.Group("/cart")
	cart.Use(middleware.RequireAuth(cfg))
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:product_id", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:product_id", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)
	}
}

// SetupCheckoutRoutes sets up quote and order placement routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, svc *checkout.Service, cfg *config.Config) {
	checkoutHandler := handlers.NewCheckoutHandler(svc, cfg)

	co := rg.Group("/checkout")
	co.Use(middleware.RequireAuth(cfg))
	{
		co.POST("/quote", checkoutHandler.Quote)
		co.POST("/place-order", checkoutHandler.PlaceOrder)
		co.POST("/coupon", checkoutHandler.ApplyCoupon)
		co.DELETE("/coupon", checkoutHandler.RemoveCoupon)
	}
}

// SetupOrderRoutes sets up the current user's order routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, notifier *notify.Dispatcher) {
	orderHandler := handlers.NewOrderHandler(db, cfg, notifier)
	invoiceHandler := handlers.NewInvoiceHandler(db, cfg)

	orders := rg.Group("/orders")
	orders.Use(middleware.RequireAuth(cfg))
	{
		orders.GET("", orderHandler.GetMyOrders)
		orders.GET("/:id", orderHandler.GetMyOrder)
		orders.POST("/:id/cancel", orderHandler.CancelMyOrder)
		orders.GET("/:id/invoice", invoiceHandler.GetInvoice)
	}
}

// SetupReturnRoutes sets up the current user's return request routes
func SetupReturnRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, notifier *notify.Dispatcher) {
	returnHandler := handlers.NewReturnHandler(db, cfg, notifier)

	returns := rg.Group("/returns")
	returns.Use(middleware.RequireAuth(cfg))
	{
		returns.POST("", returnHandler.CreateReturn)
		returns.GET("", returnHandler.GetMyReturns)
		returns.GET("/:id", returnHandler.GetMyReturn)
	}
}

// SetupLoyaltyRoutes sets up loyalty account routes
func SetupLoyaltyRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	loyaltyHandler := handlers.NewLoyaltyHandler(db, cfg)

	loyalty := rg.Group("/loyalty")
	loyalty.Use(middleware.RequireAuth(cfg))
	{
		loyalty.GET("/account", loyaltyHandler.GetAccount)
		loyalty.GET("/ledger", loyaltyHandler.GetLedger)
	}
}

// SetupAdminRoutes sets up administrative routes
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, notifier *notify.Dispatcher) {
	productHandler := handlers.NewProductHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, cfg, notifier)
	returnHandler := handlers.NewReturnHandler(db, cfg, notifier)
	couponHandler := handlers.NewCouponHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.RequireAuth(cfg))
	admin.Use(middleware.RequireOperator())
	{
		products := admin.Group("/products")
		{
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
			products.POST("/:id/restock", productHandler.RestockProduct)
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", orderHandler.GetOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/status", orderHandler.UpdateOrderStatus)
			orders.POST("/:id/cancel", orderHandler.CancelOrder)
		}

		returns := admin.Group("/returns")
		{
			returns.GET("", returnHandler.GetReturns)
			returns.PUT("/:id/status", returnHandler.UpdateReturnStatus)
		}

		coupons := admin.Group("/coupons")
		{
			coupons.POST("", couponHandler.CreateCoupon)
			coupons.GET("", couponHandler.GetCoupons)
			coupons.PUT("/:id/active", couponHandler.SetCouponActive)
			coupons.DELETE("/:id", couponHandler.DeleteCoupon)
		}
	}
}
