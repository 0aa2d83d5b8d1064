package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/michels-travel/internal/config"
	"github.com/iliyamo/michels-travel/internal/handler"
	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/middleware"
)

// Deps is everything the router needs. Redis and Tracker may be nil; rate
// limiting, response caching and navigation tracking are then off.
type Deps struct {
	Config    config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	DB        handler.Pinger
	Log       *logger.Logger
	Tracker   middleware.Tracker

	Auth       *handler.AuthHandler
	OAuth      *handler.OAuthHandler
	Flights    *handler.FlightHandler
	Bookings   *handler.BookingHandler
	Alerts     *handler.AlertHandler
	Account    *handler.AccountHandler
	Navigation *handler.NavigationHandler
	Admin      *handler.AdminHandler
}

// New builds the Echo instance with the global middleware chain and every route.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Config.CORSOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, middleware.SessionHeader,
		},
	}))
	if d.Config.BodyLimit != "" {
		e.Use(echomw.BodyLimit(d.Config.BodyLimit))
	}
	if d.Tracker != nil {
		e.Use(middleware.Navigation(d.Tracker))
	}

	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	secret := d.Config.JWTSecret

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.OAuth, secret, limit)
	RegisterPublic(e, d.Flights, limit, cache)
	RegisterBookings(e, d.Bookings, secret, limit)
	RegisterCustomer(e, d.Alerts, d.Account, d.Navigation, secret, limit)
	RegisterAdmin(e, d.Admin, secret, limit)
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// are not rate limited. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the authentication routes. Register, login and
// refresh live under /v1/auth; the profile requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o *handler.OAuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// a bearer token is optional: without a refresh token in the body it
	// revokes every session of the caller
	g.POST("/logout", a.Logout, middleware.OptionalAuth(jwtSecret))

	if o != nil {
		g.GET("/oauth/login", o.Login)
		g.GET("/oauth/callback", o.Callback)
	}

	me := e.Group("/v1/me", middleware.JWTAuth(jwtSecret), limit)
	me.GET("", a.Me)
	me.PATCH("", a.UpdateMe)
}

// RegisterPublic registers the unauthenticated flight endpoints. Search and
// the airport list go through the response cache.
func RegisterPublic(e *echo.Echo, f *handler.FlightHandler, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", limit)
	g.GET("/flights/search", f.SearchFlights, cache)
	g.GET("/flights/offers/:id", f.Offer)
	g.GET("/airports", f.Airports, cache)
}
