package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/handler"
	"github.com/iliyamo/michels-travel/internal/middleware"
	"github.com/iliyamo/michels-travel/internal/model"
)

// RegisterBookings registers the booking endpoints. Guests may create and
// follow a booking (proving ownership with ?email=), so only the list
// requires a signed-in user.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/bookings", middleware.OptionalAuth(jwtSecret), limit)
	g.POST("", h.Create)
	g.GET("", h.ListMine, middleware.JWTAuth(jwtSecret))
	g.GET("/:ref", h.Get)
	g.POST("/:ref/checkout", h.Checkout)
	g.GET("/:ref/payment-status", h.PaymentStatus)
	g.POST("/:ref/cancel", h.Cancel)
}

// RegisterCustomer registers the account endpoints. Everything except
// page-view reporting requires a valid JWT.
func RegisterCustomer(e *echo.Echo, a *handler.AlertHandler, acc *handler.AccountHandler, n *handler.NavigationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	e.POST("/v1/navigation", n.PageView, middleware.OptionalAuth(jwtSecret), limit)

	authed := func(prefix string) *echo.Group {
		return e.Group(
			prefix,
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
			limit,
		)
	}

	alerts := authed("/v1/price-alerts")
	alerts.GET("", a.List)
	alerts.POST("", a.Create)
	alerts.GET("/:id", a.Get)
	alerts.PATCH("/:id", a.Update)
	alerts.DELETE("/:id", a.Delete)

	travelers := authed("/v1/travelers")
	travelers.GET("", acc.ListTravelers)
	travelers.POST("", acc.CreateTraveler)
	travelers.GET("/:id", acc.GetTraveler)
	travelers.PUT("/:id", acc.UpdateTraveler)
	travelers.DELETE("/:id", acc.DeleteTraveler)

	loyalty := authed("/v1/loyalty-programs")
	loyalty.GET("", acc.ListLoyalty)
	loyalty.POST("", acc.CreateLoyalty)
	loyalty.DELETE("/:id", acc.DeleteLoyalty)
}
