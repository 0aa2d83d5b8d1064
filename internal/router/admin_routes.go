package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/handler"
	"github.com/iliyamo/michels-travel/internal/middleware"
	"github.com/iliyamo/michels-travel/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		limit,
	)
	g.GET("/bookings", h.ListBookings)
	g.POST("/price-alerts/sweep", h.SweepAlerts)
	g.GET("/navigation", h.RecentNavigation)
}
