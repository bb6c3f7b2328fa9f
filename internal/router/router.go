package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gausamvardhan/storefront-backend/config"
	"github.com/gausamvardhan/storefront-backend/internal/app/controller"
	"github.com/gausamvardhan/storefront-backend/internal/app/model"
	"github.com/gausamvardhan/storefront-backend/internal/middleware"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func() error

type Router struct {
	authController    *controller.AuthController
	productController *controller.ProductController
	cartController    *controller.CartController
	orderController   *controller.OrderController
	uploadController  *controller.UploadController
	authMiddleware    *middleware.AuthMiddleware
	config            *config.Config
	healthChecks      map[string]HealthCheck
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		productController: productController,
		cartController:    cartController,
		orderController:   orderController,
		uploadController:  uploadController,
		authMiddleware:    authMiddleware,
		config:            cfg,
		healthChecks:      make(map[string]HealthCheck),
	}
}

// AddHealthCheck registers a dependency probed by /health.
func (r *Router) AddHealthCheck(name string, check HealthCheck) {
	r.healthChecks[name] = check
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)

	authenticated := r.authMiddleware.Authenticate()
	adminOnly := r.authMiddleware.RequireRole(model.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", authenticated, r.authController.Logout)
			auth.GET("/me", authenticated, r.authController.GetMe)
			auth.PUT("/me", authenticated, r.authController.UpdateMe)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
			products.GET("/:id/price", r.productController.GetPrice)
		}

		cart := v1.Group("/cart")
		{
			// visitors reach these and get a sign-in prompt
			cart.POST("/items", r.authMiddleware.OptionalAuthenticate(), r.cartController.AddToCart)
			cart.POST("/buy-now", r.authMiddleware.OptionalAuthenticate(), r.cartController.BuyNow)

			cart.GET("", authenticated, r.cartController.GetCart)
			cart.DELETE("", authenticated, r.cartController.ClearCart)
			cart.PATCH("/items", authenticated, r.cartController.UpdateQuantity)
			cart.DELETE("/items", authenticated, r.cartController.RemoveItem)
			cart.GET("/ws", authenticated, r.cartController.Connect)
		}

		orders := v1.Group("/orders", authenticated)
		{
			orders.POST("", r.orderController.CreateOrder)
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrderByID)
			orders.GET("/:id/invoice", r.orderController.DownloadInvoice)
		}

		admin := v1.Group("/admin", authenticated, adminOnly)
		{
			admin.POST("/products", r.productController.CreateProduct)
			admin.PUT("/products/:id", r.productController.UpdateProduct)
			admin.DELETE("/products/:id", r.productController.DeleteProduct)
			admin.PUT("/orders/:id/status", r.orderController.UpdateOrderStatus)
			admin.POST("/uploads/presigned-url", r.uploadController.GeneratePresignedURL)
		}
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}
	for name, check := range r.healthChecks {
		if err := check(); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
