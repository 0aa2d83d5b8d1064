package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/service"
)

// statusFor maps domain errors onto HTTP statuses and client messages.
var statusFor = []struct {
	err    error
	status int
	msg    string
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{service.ErrInvalidRefresh, http.StatusUnauthorized, "invalid refresh"},
	{service.ErrAccountDisabled, http.StatusForbidden, "account disabled"},
	{service.ErrNotFound, http.StatusNotFound, "not found"},
	{flights.ErrOfferNotFound, http.StatusNotFound, "offer not found"},
	{service.ErrEmailTaken, http.StatusConflict, "email already exists"},
	{service.ErrEmailUnverified, http.StatusConflict, "email already exists; sign in with your password"},
	{service.ErrAlreadyExists, http.StatusConflict, "already exists"},
	{service.ErrAlertLimit, http.StatusConflict, service.ErrAlertLimit.Error()},
	{service.ErrInvalidTransition, http.StatusConflict, service.ErrInvalidTransition.Error()},
	{flights.ErrOfferExpired, http.StatusGone, "offer expired"},
	{service.ErrHoldExpired, http.StatusGone, service.ErrHoldExpired.Error()},
	{service.ErrPaymentsUnavailable, http.StatusServiceUnavailable, service.ErrPaymentsUnavailable.Error()},
}

// fail writes the JSON error for err. Unexpected errors are logged and
// reported without detail.
func fail(c echo.Context, log *logger.Logger, err error) error {
	if fields, ok := service.FieldErrors(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}
	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, echo.Map{"error": m.msg})
		}
	}
	var up *service.UpstreamError
	if errors.As(err, &up) {
		log.Error("upstream failure", "service", up.Service, "path", c.Path(), "error", up.Err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": up.Service + " unavailable"})
	}
	if errors.Is(err, context.DeadlineExceeded) {
		log.Error("request timed out", "path", c.Path(), "error", err)
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
	}
	log.Error("request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func invalid(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
}
