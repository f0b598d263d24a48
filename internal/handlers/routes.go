package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/auth"
	"github.com/Keoroanthony/go-storefront/internal/models"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterAPI mounts the JSON API on the given group (normally /api/v1).
func RegisterAPI(api *gin.RouterGroup) {
	// ── public endpoints ──
	api.POST("/auth/register", Register)
	api.POST("/auth/login", Login)
	api.POST("/auth/logout", Logout)

	api.GET("/categories", ListCategories)
	api.GET("/categories/:slug", GetCategory)
	api.GET("/categories/:slug/average-price", GetAveragePrice)
	api.GET("/products", ListProducts)
	api.GET("/products/:id", GetProduct)
	api.GET("/reviews", ListReviews)
	api.GET("/reviews/:id", GetReview)

	// ── protected endpoints ──
	protected := api.Group("")
	protected.Use(auth.RequireAuth())
	{
		protected.GET("/auth/me", Me)
		protected.PUT("/auth/me", UpdateMe)

		protected.POST("/categories", CreateCategory)
		protected.PUT("/categories/:slug", UpdateCategory)
		protected.DELETE("/categories/:slug", DeleteCategory)

		protected.POST("/products", CreateProduct)
		protected.PUT("/products/:id", UpdateProduct)
		protected.DELETE("/products/:id", DeleteProduct)

		protected.POST("/reviews", CreateReview)
		protected.PUT("/reviews/:id", UpdateReview)
		protected.DELETE("/reviews/:id", DeleteReview)

		protected.GET("/orders", ListOrders)
		protected.POST("/orders", CreateOrder)
		protected.GET("/orders/:id", GetOrder)
		protected.DELETE("/orders/:id", DeleteOrder)
		protected.POST("/orders/:id/cancel", CancelOrder)
		protected.POST("/orders/:id/checkout", CheckoutOrder)
		protected.POST("/orders/:id/pay", PayOrder)
		protected.PATCH("/orders/:id/status", auth.RequireRole(models.RoleAdmin), UpdateOrderStatus)

		protected.GET("/payments", ListPayments)
		protected.GET("/payments/:id", GetPayment)

		protected.GET("/addresses", ListAddresses)
		protected.POST("/addresses", CreateAddress)
		protected.GET("/addresses/:id", GetAddress)
		protected.PUT("/addresses/:id", UpdateAddress)
		protected.DELETE("/addresses/:id", DeleteAddress)
		protected.POST("/addresses/:id/default", SetDefaultAddress)
	}
}
