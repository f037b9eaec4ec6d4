package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkazancev/product_catalog/internal/handlers"
	authmw "github.com/dkazancev/product_catalog/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	ImageHandler   *handlers.ImageHandler
	SearchHandler  *handlers.SearchHandler
	Auth           *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.GET("/images/:filename", d.ImageHandler.Serve)

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	products := v1.Group("/products", d.Auth.RequireAuth)
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/favorites", d.ProductHandler.GetFavorites)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("/:id/favorite", d.ProductHandler.AddFavorite)
	products.DELETE("/:id/favorite", d.ProductHandler.RemoveFavorite)

	admin := v1.Group("/products", d.Auth.RequireAdmin)
	admin.POST("", d.ProductHandler.CreateProduct)
	admin.PATCH("/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/:id", d.ProductHandler.DeleteProduct)
	admin.POST("/:id/image", d.ImageHandler.Upload)
}
