package pages

import (
	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/auth"
)

// Register mounts the HTML site and installs its renderer on r.
func Register(r *gin.Engine) error {
	renderer, err := NewRenderer()
	if err != nil {
		return err
	}
	r.HTMLRender = renderer

	site := r.Group("/")
	site.Use(auth.OptionalUser())
	{
		site.GET("/", Home)
		site.GET("/register/", RegisterPage)
		site.POST("/register/", RegisterSubmit)
		site.GET("/login/", LoginPage)
		site.POST("/login/", Login)
		site.GET("/logout/", Logout)
		site.POST("/logout/", Logout)

		site.GET("/categories/", CategoryList)
		site.GET("/categories/:slug/", CategoryDetail)
		site.GET("/products/", ProductList)
		site.GET("/products/:id/", ProductDetail)
		site.GET("/reviews/", ReviewList)
		site.GET("/reviews/:id/", ReviewDetail)
	}

	members := r.Group("/")
	members.Use(auth.RequireLogin())
	{
		members.GET("/profile/", Profile)
		members.POST("/profile/", UpdateProfile)
		members.GET("/profile/addresses/", AddressList)
		members.GET("/profile/addresses/add/", AddressNew)
		members.POST("/profile/addresses/add/", AddressCreate)
		members.GET("/profile/addresses/:id/edit/", AddressEdit)
		members.POST("/profile/addresses/:id/edit/", AddressUpdate)
		members.GET("/profile/addresses/:id/delete/", AddressConfirmDelete)
		members.POST("/profile/addresses/:id/delete/", AddressDelete)

		members.GET("/categories/new/", CategoryNew)
		members.POST("/categories/new/", CategoryCreate)
		members.GET("/categories/:slug/edit/", CategoryEdit)
		members.POST("/categories/:slug/edit/", CategoryUpdate)
		members.GET("/categories/:slug/delete/", CategoryConfirmDelete)
		members.POST("/categories/:slug/delete/", CategoryDelete)

		members.GET("/products/new/", ProductNew)
		members.POST("/products/new/", ProductCreate)
		members.GET("/products/:id/edit/", ProductEdit)
		members.POST("/products/:id/edit/", ProductUpdate)
		members.GET("/products/:id/delete/", ProductConfirmDelete)
		members.POST("/products/:id/delete/", ProductDelete)

		members.GET("/orders/", OrderList)
		members.GET("/orders/new/", OrderNew)
		members.POST("/orders/new/", OrderCreate)
		members.GET("/orders/:id/", OrderDetail)
		members.GET("/orders/:id/cancel/", OrderConfirmCancel)
		members.POST("/orders/:id/cancel/", OrderCancel)
		members.POST("/orders/:id/checkout/", OrderCheckout)
		members.GET("/orders/:id/delete/", OrderConfirmDelete)
		members.POST("/orders/:id/delete/", OrderDelete)

		members.POST("/payments/create/:order_id/", PaymentCreate)

		members.GET("/reviews/new/", ReviewNew)
		members.POST("/reviews/new/", ReviewCreate)
	}
	return nil
}
