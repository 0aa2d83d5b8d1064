package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/middleware"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/oauth"
	"github.com/iliyamo/michels-travel/internal/service"
	"github.com/iliyamo/michels-travel/internal/utils"
)

// newContext builds an echo context for a direct handler call. A non-empty
// body is sent as JSON.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func signIn(c echo.Context, id uint64, role string) {
	c.Set(middleware.ContextUserID, id)
	c.Set(middleware.ContextRole, role)
}

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Register(ctx context.Context, in service.RegisterInput) (service.Session, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (service.Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAuth) Refresh(ctx context.Context, raw string) (service.Session, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAuth) RefreshAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(utils.AccessToken), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, userID uint64, refresh string) error {
	return m.Called(ctx, userID, refresh).Error(0)
}

func (m *mockAuth) Me(ctx context.Context, userID uint64) (model.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockAuth) UpdateProfile(ctx context.Context, userID uint64, fullName string) (model.User, error) {
	args := m.Called(ctx, userID, fullName)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockAuth) OAuthLogin(ctx context.Context, id oauth.Identity) (service.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(service.Session), args.Error(1)
}

type mockBookings struct{ mock.Mock }

func (m *mockBookings) Create(ctx context.Context, in service.CreateBookingInput) (model.Booking, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) Get(ctx context.Context, ref string, v service.Viewer) (model.Booking, error) {
	args := m.Called(ctx, ref, v)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) ListMine(ctx context.Context, userID uint64, limit, offset int) ([]model.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	list, _ := args.Get(0).([]model.Booking)
	return list, args.Error(1)
}

func (m *mockBookings) ListAll(ctx context.Context, status string, limit, offset int) ([]model.Booking, error) {
	args := m.Called(ctx, status, limit, offset)
	list, _ := args.Get(0).([]model.Booking)
	return list, args.Error(1)
}

func (m *mockBookings) Checkout(ctx context.Context, ref string, v service.Viewer) (model.Booking, error) {
	args := m.Called(ctx, ref, v)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) PaymentStatus(ctx context.Context, ref string, v service.Viewer) (model.Booking, error) {
	args := m.Called(ctx, ref, v)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) Cancel(ctx context.Context, ref string, v service.Viewer) (model.Booking, error) {
	args := m.Called(ctx, ref, v)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) ExpireStale(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockBookings) PollPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockSearch struct{ mock.Mock }

func (m *mockSearch) Search(ctx context.Context, q flights.Query, opts flights.Options) (flights.Result, error) {
	args := m.Called(ctx, q, opts)
	return args.Get(0).(flights.Result), args.Error(1)
}

func (m *mockSearch) Offer(ctx context.Context, id string) (model.Offer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Offer), args.Error(1)
}

func (m *mockSearch) Cheapest(ctx context.Context, q flights.Query) (model.Offer, bool, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(model.Offer), args.Bool(1), args.Error(2)
}

type mockAlerts struct{ mock.Mock }

func (m *mockAlerts) Create(ctx context.Context, userID uint64, in service.AlertInput) (model.PriceAlert, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(model.PriceAlert), args.Error(1)
}

func (m *mockAlerts) List(ctx context.Context, userID uint64) ([]model.PriceAlert, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.PriceAlert)
	return list, args.Error(1)
}

func (m *mockAlerts) Get(ctx context.Context, userID, id uint64) (model.PriceAlert, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.PriceAlert), args.Error(1)
}

func (m *mockAlerts) Update(ctx context.Context, userID, id uint64, in service.AlertUpdate) (model.PriceAlert, error) {
	args := m.Called(ctx, userID, id, in)
	return args.Get(0).(model.PriceAlert), args.Error(1)
}

func (m *mockAlerts) Delete(ctx context.Context, userID, id uint64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockAlerts) Sweep(ctx context.Context) (service.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.SweepResult), args.Error(1)
}

type mockAccount struct{ mock.Mock }

func (m *mockAccount) ListTravelers(ctx context.Context, userID uint64) ([]model.Traveler, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Traveler)
	return list, args.Error(1)
}

func (m *mockAccount) GetTraveler(ctx context.Context, userID, id uint64) (model.Traveler, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Traveler), args.Error(1)
}

func (m *mockAccount) CreateTraveler(ctx context.Context, userID uint64, in service.TravelerInput) (model.Traveler, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(model.Traveler), args.Error(1)
}

func (m *mockAccount) UpdateTraveler(ctx context.Context, userID, id uint64, in service.TravelerInput) (model.Traveler, error) {
	args := m.Called(ctx, userID, id, in)
	return args.Get(0).(model.Traveler), args.Error(1)
}

func (m *mockAccount) DeleteTraveler(ctx context.Context, userID, id uint64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockAccount) ListLoyalty(ctx context.Context, userID uint64) ([]model.LoyaltyProgram, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.LoyaltyProgram)
	return list, args.Error(1)
}

func (m *mockAccount) CreateLoyalty(ctx context.Context, userID uint64, in service.LoyaltyInput) (model.LoyaltyProgram, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(model.LoyaltyProgram), args.Error(1)
}

func (m *mockAccount) DeleteLoyalty(ctx context.Context, userID, id uint64) error {
	return m.Called(ctx, userID, id).Error(0)
}

type mockNavigation struct{ mock.Mock }

func (m *mockNavigation) Track(ctx context.Context, e model.NavigationEvent) {
	m.Called(ctx, e)
}

func (m *mockNavigation) PageView(ctx context.Context, e model.NavigationEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockNavigation) Recent(ctx context.Context, limit, offset int) ([]model.NavigationEvent, error) {
	args := m.Called(ctx, limit, offset)
	list, _ := args.Get(0).([]model.NavigationEvent)
	return list, args.Error(1)
}

type mockPortal struct{ mock.Mock }

func (m *mockPortal) AuthCodeURL(state string) string {
	return "https://portal.example/authorize?state=" + state
}

func (m *mockPortal) Exchange(ctx context.Context, code string) (oauth.Identity, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(oauth.Identity), args.Error(1)
}
