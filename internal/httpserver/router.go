package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler    *AuthHandler
	CartHandler    *CartHandler
	ProductHandler *ProductHandler
	ProfileHandler *ProfileHandler
	SearchHandler  *SearchHandler
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := &AuthMW{Secret: d.JWTSecret}

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)
	v1.GET("/search", d.SearchHandler.Search)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:code", d.ProductHandler.GetProduct)

	admin := v1.Group("/admin", authMW.RequireAdmin)
	admin.POST("/products", d.ProductHandler.UpsertProduct)
	admin.PATCH("/products/:code/stock", d.ProductHandler.PatchStock)
	admin.DELETE("/products/:code", d.ProductHandler.DeleteProduct)
	admin.GET("/carts", d.CartHandler.ListCarts)

	// cart routes serve guests too; identity is resolved per request
	cart := v1.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/items/batch", d.CartHandler.AddBatch)
	cart.PATCH("/items", d.CartHandler.SetQuantity)
	cart.DELETE("/items", d.CartHandler.RemoveItem)
	cart.POST("/order", d.CartHandler.Checkout)

	v1.GET("/orders", d.CartHandler.ListOrders)

	profile := v1.Group("/profile", authMW.RequireAuth)
	profile.GET("", d.ProfileHandler.GetProfile)
	profile.PATCH("", d.ProfileHandler.UpdateProfile)
	profile.POST("/addresses", d.ProfileHandler.AddAddress)
	profile.DELETE("/addresses/:id", d.ProfileHandler.RemoveAddress)
}
