// Package bootstrap builds the shared object graph used by the API server
// and the background worker.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/michels-travel/internal/cache"
	"github.com/iliyamo/michels-travel/internal/config"
	"github.com/iliyamo/michels-travel/internal/database"
	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/handler"
	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/middleware"
	"github.com/iliyamo/michels-travel/internal/oauth"
	"github.com/iliyamo/michels-travel/internal/payment"
	"github.com/iliyamo/michels-travel/internal/queue"
	"github.com/iliyamo/michels-travel/internal/repository"
	"github.com/iliyamo/michels-travel/internal/router"
	"github.com/iliyamo/michels-travel/internal/service"
)

// App holds the connections and services of one process.
type App struct {
	Config    config.Config
	Log       *logger.Logger
	DB        *sql.DB
	Redis     *redis.Client // nil when Redis is unreachable
	Publisher queue.Publisher

	Search     *flights.Service
	Auth       *service.AuthService
	Bookings   *service.BookingService
	Alerts     *service.AlertService
	Account    *service.AccountService
	Navigation *service.NavigationService
}

// New opens MySQL and Redis, picks the flight provider and event broker and
// builds every service.
func New(cfg config.Config, log *logger.Logger) (*App, error) {
	provider, err := NewProvider(cfg.Flights)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; search cache, rate limit and response cache disabled")
	}
	pub := queue.NewPublisher(cfg.Events)

	searchOpts := []flights.ServiceOption{flights.WithLogger(log)}
	if rdb != nil {
		searchOpts = append(searchOpts, flights.WithCache(cache.NewRedisCache(rdb, "flights"), cfg.Flights.SearchCacheTTL))
	}
	search := flights.NewService(provider, searchOpts...)
	log.Info("flight search ready", "provider", search.ProviderName(), "cached", rdb != nil)

	users := repository.NewUserRepo(db)
	bookingOpts := []service.BookingOption{service.WithPublisher(pub), service.WithBookingLogger(log)}
	if cfg.Square.AccessToken != "" {
		bookingOpts = append(bookingOpts, service.WithPayments(payment.NewSquareClient(cfg.Square, nil), cfg.Square.RedirectURL))
	} else {
		log.Warn("SQUARE_ACCESS_TOKEN not set; checkout and refunds disabled")
	}

	app := &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Redis:     rdb,
		Publisher: pub,
		Search:    search,
		Auth: service.NewAuthService(users, repository.NewTokenRepo(db), service.AuthConfig{
			Secret:         cfg.JWTSecret,
			AccessTTLMin:   cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays,
			BcryptCost:     cfg.BcryptCost,
		}, pub, log),
		Bookings:   service.NewBookingService(repository.NewBookingRepo(db), search, cfg.Square.HoldTTL, bookingOpts...),
		Alerts:     service.NewAlertService(repository.NewPriceAlertRepo(db), users, search, cfg.Flights.Currency, pub, log),
		Account:    service.NewAccountService(repository.NewTravelerRepo(db), repository.NewLoyaltyRepo(db)),
		Navigation: service.NewNavigationService(repository.NewNavigationRepo(db), log),
	}
	log.Info("services ready", "flights_provider", provider.Name(), "events_broker", cfg.Events.Broker)
	return app, nil
}

// NewProvider returns the flight provider selected by FLIGHTS_PROVIDER.
func NewProvider(cfg config.FlightsConfig) (flights.Provider, error) {
	switch cfg.Provider {
	case "", "mock":
		return flights.NewMockProvider(cfg.Currency), nil
	case "duffel":
		if cfg.DuffelToken == "" {
			return nil, errors.New("FLIGHTS_PROVIDER=duffel requires DUFFEL_ACCESS_TOKEN")
		}
		return flights.NewDuffelProvider(cfg.DuffelBaseURL, cfg.DuffelToken, cfg.DuffelVersion, cfg.Timeout, nil), nil
	default:
		return nil, fmt.Errorf("unknown FLIGHTS_PROVIDER %q", cfg.Provider)
	}
}

// Router builds the HTTP handlers and routes.
func (a *App) Router() *echo.Echo {
	cfg := a.Config
	oauthHandler := &handler.OAuthHandler{
		Auth:            a.Auth,
		Secret:          cfg.JWTSecret,
		SuccessRedirect: cfg.OAuth.SuccessRedirect,
		Log:             a.Log,
	}
	if cfg.OAuth.Enabled() {
		oauthHandler.Portal = oauth.NewPortal(cfg.OAuth, nil)
	}
	var tracker middleware.Tracker
	if cfg.NavTrackingEnabled {
		tracker = a.Navigation
	}

	return router.New(router.Deps{
		Config:    cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     a.Redis,
		DB:        a.DB,
		Log:       a.Log,
		Tracker:   tracker,

		Auth:       handler.NewAuthHandler(a.Auth, a.Log),
		OAuth:      oauthHandler,
		Flights:    handler.NewFlightHandler(a.Search, a.Log),
		Bookings:   handler.NewBookingHandler(a.Bookings, a.Log),
		Alerts:     handler.NewAlertHandler(a.Alerts, a.Log),
		Account:    handler.NewAccountHandler(a.Account, a.Log),
		Navigation: &handler.NavigationHandler{Navigation: a.Navigation, Log: a.Log},
		Admin: &handler.AdminHandler{
			Bookings:   a.Bookings,
			Alerts:     a.Alerts,
			Navigation: a.Navigation,
			Log:        a.Log,
		},
	})
}

// Serve runs e on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// Close releases the broker, Redis and database connections.
func (a *App) Close() {
	if err := a.Publisher.Close(); err != nil {
		a.Log.Warn("close publisher", "error", err)
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	_ = a.DB.Close()
}
