package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/middleware"
	"github.com/iliyamo/michels-travel/internal/service"
)

// AccountHandler serves saved travelers and frequent-flyer programs.
type AccountHandler struct {
	Account service.AccountUseCase
	Log     *logger.Logger
}

func NewAccountHandler(a service.AccountUseCase, log *logger.Logger) *AccountHandler {
	return &AccountHandler{Account: a, Log: log}
}

type travelerReq struct {
	Title             string `json:"title"`
	GivenName         string `json:"given_name" validate:"required"`
	FamilyName        string `json:"family_name" validate:"required"`
	BornOn            string `json:"born_on" validate:"required"`
	Gender            string `json:"gender"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	PassportNumber    string `json:"passport_number"`
	PassportCountry   string `json:"passport_country"`
	PassportExpiresOn string `json:"passport_expires_on"`
}

type loyaltyReq struct {
	AirlineCode  string `json:"airline_code" validate:"required"`
	ProgramName  string `json:"program_name"`
	MemberNumber string `json:"member_number" validate:"required"`
}

func (h *AccountHandler) ListTravelers(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Account.ListTravelers(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"travelers": nonNil(list)})
}

func (h *AccountHandler) GetTraveler(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Account.GetTraveler(ctx, uid, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *AccountHandler) CreateTraveler(c echo.Context) error {
	var req travelerReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Account.CreateTraveler(ctx, uid, service.TravelerInput(req))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *AccountHandler) UpdateTraveler(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req travelerReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Account.UpdateTraveler(ctx, uid, id, service.TravelerInput(req))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *AccountHandler) DeleteTraveler(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Account.DeleteTraveler(ctx, uid, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) ListLoyalty(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Account.ListLoyalty(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"loyalty_programs": nonNil(list)})
}

func (h *AccountHandler) CreateLoyalty(c echo.Context) error {
	var req loyaltyReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Account.CreateLoyalty(ctx, uid, service.LoyaltyInput(req))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AccountHandler) DeleteLoyalty(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Account.DeleteLoyalty(ctx, uid, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
