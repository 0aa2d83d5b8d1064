package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/middleware"
	"github.com/iliyamo/michels-travel/internal/service"
)

type AlertHandler struct {
	Alerts service.AlertUseCase
	Log    *logger.Logger
}

func NewAlertHandler(a service.AlertUseCase, log *logger.Logger) *AlertHandler {
	return &AlertHandler{Alerts: a, Log: log}
}

type createAlertReq struct {
	Origin           string `json:"origin" validate:"required"`
	Destination      string `json:"destination" validate:"required"`
	DepartureDate    string `json:"departure_date" validate:"required"`
	ReturnDate       string `json:"return_date"`
	CabinClass       string `json:"cabin_class"`
	Adults           int    `json:"adults"`
	TargetPriceCents int64  `json:"target_price_cents" validate:"gt=0"`
	Currency         string `json:"currency"`
}

type updateAlertReq struct {
	TargetPriceCents *int64 `json:"target_price_cents"`
	IsActive         *bool  `json:"is_active"`
}

func (h *AlertHandler) List(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Alerts.List(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"price_alerts": nonNil(list)})
}

func (h *AlertHandler) Create(c echo.Context) error {
	var req createAlertReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Alerts.Create(ctx, uid, service.AlertInput(req))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AlertHandler) Get(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Alerts.Get(ctx, uid, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AlertHandler) Update(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updateAlertReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.TargetPriceCents == nil && req.IsActive == nil {
		return badRequest(c, "nothing to update")
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	a, err := h.Alerts.Update(ctx, uid, id, service.AlertUpdate(req))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AlertHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Alerts.Delete(ctx, uid, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
