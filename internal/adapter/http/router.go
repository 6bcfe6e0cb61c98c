package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aq2208/storefront-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/storefront-checkout/internal/logging"
	"github.com/aq2208/storefront-checkout/internal/security"
)

type Handlers struct {
	Token    *TokenHandler
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
}

func NewRouter(h Handlers, authz *middleware.Authz, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(log))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/token", h.Token.IssueToken)
		v1.GET("/products", h.Catalog.ListProducts)
		v1.GET("/products/:id", h.Catalog.GetProduct)
		v1.GET("/promos", h.Catalog.ListPromos)
	}

	cart := v1.Group("/cart", authz.Require(security.PermCartWrite))
	{
		cart.GET("", h.Cart.Get)
		cart.DELETE("", h.Cart.Clear)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items/:productId", h.Cart.SetQuantity)
		cart.POST("/items/:productId/increment", h.Cart.Increment)
		cart.POST("/items/:productId/decrement", h.Cart.Decrement)
		cart.DELETE("/items/:productId", h.Cart.RemoveItem)
		cart.GET("/summary", h.Cart.Summary)
		cart.GET("/promo", h.Cart.CurrentPromo)
		cart.POST("/promo", h.Cart.ApplyPromo)
		cart.DELETE("/promo", h.Cart.RemovePromo)
	}

	co := v1.Group("/checkout", authz.Require(security.PermCheckoutWrite))
	{
		co.POST("", h.Checkout.Start)
		co.GET("", h.Checkout.Get)
		co.PUT("/address", h.Checkout.SubmitAddress)
		co.PUT("/payment", h.Checkout.SubmitPayment)
		co.POST("/back", h.Checkout.Back)
		co.POST("/place", h.Checkout.Place)
	}

	orders := v1.Group("/orders", authz.Require(security.PermOrdersRead))
	{
		orders.GET("", h.Orders.List)
		orders.GET("/:id", h.Orders.GetOrderByID)
		orders.GET("/:id/status", h.Orders.Status)
	}

	return r
}
