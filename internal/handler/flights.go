package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/logger"
)

const searchTimeout = 20 * time.Second

// FlightHandler serves flight search, single offers and the airport list.
type FlightHandler struct {
	Search flights.SearchUseCase
	Log    *logger.Logger
}

func NewFlightHandler(s flights.SearchUseCase, log *logger.Logger) *FlightHandler {
	return &FlightHandler{Search: s, Log: log}
}

// SearchFlights handles GET /v1/flights/search.
func (h *FlightHandler) SearchFlights(c echo.Context) error {
	q, opts, bad := parseSearch(c)
	if len(bad) > 0 {
		return invalid(c, bad)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), searchTimeout)
	defer cancel()

	res, err := h.Search.Search(ctx, q, opts)
	if err != nil {
		return h.searchFailed(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Offer handles GET /v1/flights/offers/:id with the current price.
func (h *FlightHandler) Offer(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return badRequest(c, "offer id required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), searchTimeout)
	defer cancel()

	o, err := h.Search.Offer(ctx, id)
	if err != nil {
		return h.searchFailed(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// Airports handles GET /v1/airports?q=&limit=.
func (h *FlightHandler) Airports(c echo.Context) error {
	limit := 10
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return badRequest(c, "limit must be a number")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return c.JSON(http.StatusOK, echo.Map{"airports": flights.SearchAirports(c.QueryParam("q"), limit)})
}

func (h *FlightHandler) searchFailed(c echo.Context, err error) error {
	if flights.IsValidation(err) || errors.Is(err, flights.ErrOfferNotFound) || errors.Is(err, flights.ErrOfferExpired) {
		return fail(c, h.Log, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fail(c, h.Log, err)
	}
	h.Log.Error("flight provider failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusBadGateway, echo.Map{"error": "flight search unavailable"})
}

// parseSearch reads the query string. Type errors are reported per field;
// range checks on the query itself happen in the search service.
func parseSearch(c echo.Context) (flights.Query, flights.Options, map[string]string) {
	bad := map[string]string{}
	q := flights.Query{
		Origin:      c.QueryParam("origin"),
		Destination: c.QueryParam("destination"),
		CabinClass:  c.QueryParam("cabin_class"),
	}
	date := func(name string) *time.Time {
		v := strings.TrimSpace(c.QueryParam(name))
		if v == "" {
			return nil
		}
		d, err := flights.ParseDate(v)
		if err != nil {
			bad[name] = "must be a date (YYYY-MM-DD)"
			return nil
		}
		return &d
	}
	num := func(name string) *int {
		v := strings.TrimSpace(c.QueryParam(name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			bad[name] = "must be a whole number"
			return nil
		}
		return &n
	}
	orZero := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}

	if d := date("departure_date"); d != nil {
		q.DepartureDate = *d
	}
	q.ReturnDate = date("return_date")
	q.Adults = orZero(num("adults"))
	q.Children = orZero(num("children"))
	q.Infants = orZero(num("infants"))

	var opts flights.Options
	if p := num("max_price_cents"); p != nil {
		cents := int64(*p)
		opts.Filter.MaxPriceCents = &cents
	}
	opts.Filter.MaxStops = num("max_stops")
	opts.Filter.MaxDurationMinutes = num("max_duration_minutes")
	opts.Filter.DepartAfterHour = num("depart_after_hour")
	opts.Filter.DepartBeforeHour = num("depart_before_hour")
	for _, h := range []struct {
		name string
		v    *int
	}{{"depart_after_hour", opts.Filter.DepartAfterHour}, {"depart_before_hour", opts.Filter.DepartBeforeHour}} {
		if h.v != nil && (*h.v < 0 || *h.v > 23) {
			bad[h.name] = "must be between 0 and 23"
		}
	}
	if air := strings.TrimSpace(c.QueryParam("airlines")); air != "" {
		for _, code := range strings.Split(air, ",") {
			if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
				opts.Filter.Airlines = append(opts.Filter.Airlines, code)
			}
		}
	}
	opts.SortBy = strings.ToLower(strings.TrimSpace(c.QueryParam("sort")))
	if !flights.ValidSort(opts.SortBy) {
		bad["sort"] = "must be price, duration, departure or arrival"
	}
	opts.Limit = orZero(num("limit"))
	opts.Offset = orZero(num("offset"))
	return q, opts, bad
}
