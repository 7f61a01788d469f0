package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"spotless/internal/handler"
	"spotless/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	CartHandler     *handler.CartHandler
	CheckoutHandler *handler.CheckoutHandler
	OrderHandler    *handler.OrderHandler
	DriverHandler   *handler.DriverHandler
	WalletHandler   *handler.WalletHandler
	PaymentHandler  *handler.PaymentHandler
	ReviewHandler   *handler.ReviewHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Customer-scoped cart and wallet routes.
		customers := v1.Group("/customers")
		{
			customers.GET("/:customerId/cart", deps.CartHandler.GetCart)
			customers.POST("/:customerId/cart/items", deps.CartHandler.AddItem)
			customers.DELETE("/:customerId/cart/items/:serviceId", deps.CartHandler.RemoveItem)
			customers.DELETE("/:customerId/cart", deps.CartHandler.ClearCart)
			customers.GET("/:customerId/wallet", deps.WalletHandler.GetBalance)
			customers.POST("/:customerId/wallet/topup", deps.WalletHandler.TopUp)
		}

		// Checkout and pricing routes.
		v1.POST("/checkout", deps.CheckoutHandler.Checkout)
		v1.POST("/checkout/buy-now", deps.CheckoutHandler.BuyNow)
		v1.POST("/estimates", deps.CheckoutHandler.Estimate)

		// Order routes.
		orders := v1.Group("/orders")
		{
			orders.GET("/:id", deps.OrderHandler.GetOrder)
			orders.POST("/:id/milestone", deps.OrderHandler.ReportMilestone)
			orders.POST("/:id/cancel", deps.OrderHandler.CancelOrder)
			orders.POST("/:id/confirm-delivery", deps.OrderHandler.ConfirmDelivery)
			orders.GET("/:id/payment", deps.PaymentHandler.GetOrderPayment)
			orders.POST("/:id/review", deps.ReviewHandler.SubmitReview)
			orders.GET("/:id/review", deps.ReviewHandler.GetReview)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.POST("/:id/status", deps.DriverHandler.SetStatus)
			drivers.POST("/:id/accept", deps.DriverHandler.AcceptOffer)
			drivers.POST("/:id/decline", deps.DriverHandler.DeclineOffer)
		}

		// Payment gateway callback.
		v1.POST("/payments/callback", deps.PaymentHandler.HandleCallback)
	}

	return router
}
