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

// paymentTimeout covers a round trip to Square plus the database writes.
const paymentTimeout = 15 * time.Second

type BookingHandler struct {
	Bookings service.BookingUseCase
	Log      *logger.Logger
}

func NewBookingHandler(b service.BookingUseCase, log *logger.Logger) *BookingHandler {
	return &BookingHandler{Bookings: b, Log: log}
}

type passengerReq struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	GivenName      string `json:"given_name" validate:"required"`
	FamilyName     string `json:"family_name" validate:"required"`
	BornOn         string `json:"born_on" validate:"required"`
	Gender         string `json:"gender"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	LoyaltyAirline string `json:"loyalty_airline"`
	LoyaltyNumber  string `json:"loyalty_number"`
}

type createBookingReq struct {
	OfferID      string         `json:"offer_id" validate:"required"`
	ContactEmail string         `json:"contact_email" validate:"required,email"`
	ContactPhone string         `json:"contact_phone" validate:"max=32"`
	Passengers   []passengerReq `json:"passengers" validate:"required,min=1,max=9,dive"`
}

// viewer describes the caller. Guests prove ownership with ?email=.
func viewer(c echo.Context) service.Viewer {
	uid, _ := middleware.UserID(c)
	return service.Viewer{UserID: uid, Role: middleware.Role(c), Email: c.QueryParam("email")}
}

// Create handles POST /v1/bookings for signed-in users and guests.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	in := service.CreateBookingInput{
		OfferID:      req.OfferID,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}
	if uid, ok := middleware.UserID(c); ok {
		in.UserID = &uid
	}
	for _, p := range req.Passengers {
		in.Passengers = append(in.Passengers, service.PassengerInput(p))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), searchTimeout)
	defer cancel()

	b, err := h.Bookings.Create(ctx, in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// ListMine handles GET /v1/bookings, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	limit, offset, err := paging(c, 20, 100)
	if err != nil {
		return badRequest(c, "limit and offset must be numbers")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Bookings.ListMine(ctx, uid, limit, offset)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": nonNil(list), "limit": limit, "offset": offset})
}

func (h *BookingHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	b, err := h.Bookings.Get(ctx, c.Param("ref"), viewer(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Checkout handles POST /v1/bookings/:ref/checkout.
func (h *BookingHandler) Checkout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), paymentTimeout)
	defer cancel()

	b, err := h.Bookings.Checkout(ctx, c.Param("ref"), viewer(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reference":   b.Reference,
		"status":      b.Status,
		"payment_url": b.PaymentURL,
		"expires_at":  b.ExpiresAt,
	})
}

// PaymentStatus handles GET /v1/bookings/:ref/payment-status.
func (h *BookingHandler) PaymentStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), paymentTimeout)
	defer cancel()

	b, err := h.Bookings.PaymentStatus(ctx, c.Param("ref"), viewer(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reference":  b.Reference,
		"status":     b.Status,
		"paid":       b.Status == model.BookingConfirmed,
		"payment_id": b.PaymentID,
	})
}

// Cancel handles POST /v1/bookings/:ref/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), paymentTimeout)
	defer cancel()

	b, err := h.Bookings.Cancel(ctx, c.Param("ref"), viewer(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
