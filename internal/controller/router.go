// router.go
package controller

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voice-order-service/internal/metrics"
	"voice-order-service/internal/middleware"
)

type RouterConfig struct {
	Orders   *OrderController
	Tools    *ToolController
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	AdminKey string
}

// NewRouter arma el engine con todas las rutas bajo /api y /metrics.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Observe(cfg.Metrics, cfg.Logger))

	r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	api := r.Group("/api")
	api.Use(middleware.Session())

	ctl := cfg.Orders
	api.GET("/catalog", ctl.GetCatalog)
	api.GET("/cart", ctl.GetCart)
	api.POST("/cart/add", ctl.AddItem)
	api.POST("/cart/ingredients", ctl.AddIngredients)
	api.POST("/cart/remove", ctl.RemoveItem)
	api.POST("/cart/update", ctl.UpdateQuantity)
	api.POST("/cart/place", ctl.PlaceOrder)
	api.GET("/orders", ctl.ListOrders)
	api.GET("/order/:orderId", ctl.GetOrder)

	// Rutas admin
	api.POST("/order/:orderId/progress", middleware.AdminOnly(cfg.AdminKey), ctl.ProgressOrder)

	if cfg.Tools != nil {
		api.GET("/tools", cfg.Tools.ListTools)
		api.POST("/tools/:name", cfg.Tools.InvokeTool)
		api.GET("/drink", cfg.Tools.GetDrink)
	}
	return r
}
