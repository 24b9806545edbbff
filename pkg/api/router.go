package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewRouter builds the echo instance with the /api routes registered.
func NewRouter(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.POST("/chat", h.Chat)
	g.POST("/upload", h.Upload)

	return e
}
