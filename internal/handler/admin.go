package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/middleware"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/service"
)

// NavigationHandler accepts page views from the web client.
type NavigationHandler struct {
	Navigation service.NavigationUseCase
	Log        *logger.Logger
}

type pageViewReq struct {
	Path     string `json:"path" validate:"required,max=255"`
	Referrer string `json:"referrer" validate:"max=512"`
}

// PageView handles POST /v1/navigation.
func (h *NavigationHandler) PageView(c echo.Context) error {
	var req pageViewReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	r := c.Request()
	e := model.NavigationEvent{
		SessionID: r.Header.Get(middleware.SessionHeader),
		Path:      req.Path,
		Referrer:  req.Referrer,
		UserAgent: r.UserAgent(),
		IP:        c.RealIP(),
	}
	if uid, ok := middleware.UserID(c); ok {
		e.UserID = &uid
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Navigation.PageView(ctx, e); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// AdminHandler serves the back-office endpoints; routes are guarded by the
// ADMIN role.
type AdminHandler struct {
	Bookings   service.BookingUseCase
	Alerts     service.AlertUseCase
	Navigation service.NavigationUseCase
	Log        *logger.Logger
}

// ListBookings handles GET /v1/admin/bookings?status=&limit=&offset=.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	limit, offset, err := paging(c, 50, 200)
	if err != nil {
		return badRequest(c, "limit and offset must be numbers")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Bookings.ListAll(ctx, c.QueryParam("status"), limit, offset)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": nonNil(list), "limit": limit, "offset": offset})
}

// SweepAlerts runs one price-alert sweep synchronously.
func (h *AdminHandler) SweepAlerts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	res, err := h.Alerts.Sweep(ctx)
	if err != nil {
		return fail(c, h.Log, err)
	}
	h.Log.Info("price alert sweep", "checked", res.Checked, "triggered", res.Triggered,
		"deactivated", res.Deactivated, "failed", res.Failed)
	return c.JSON(http.StatusOK, res)
}

// RecentNavigation handles GET /v1/admin/navigation, newest first.
func (h *AdminHandler) RecentNavigation(c echo.Context) error {
	limit, offset, err := paging(c, 100, 500)
	if err != nil {
		return badRequest(c, "limit and offset must be numbers")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Navigation.Recent(ctx, limit, offset)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": nonNil(list), "limit": limit, "offset": offset})
}
