package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/payment"
)

// now is the fixed clock used across the service tests.
var now = time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, email, password, fullName, role string, cost int) (uint64, error) {
	args := m.Called(ctx, email, password, fullName, role, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUsers) CreateOAuth(ctx context.Context, email, fullName, provider, subject string) (uint64, error) {
	args := m.Called(ctx, email, fullName, provider, subject)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByOAuth(ctx context.Context, provider, subject string) (model.User, error) {
	args := m.Called(ctx, provider, subject)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) LinkOAuth(ctx context.Context, id uint64, provider, subject string) error {
	return m.Called(ctx, id, provider, subject).Error(0)
}

func (m *mockUsers) UpdateFullName(ctx context.Context, id uint64, fullName string) error {
	return m.Called(ctx, id, fullName).Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}

func (m *mockTokens) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockTokens) Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	return m.Called(ctx, userID, oldHash, newHash, exp).Error(0)
}

func (m *mockTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev model.Event) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

// eventType matches a published event by type.
func eventType(typ string) any {
	return mock.MatchedBy(func(ev model.Event) bool { return ev.Type == typ })
}

type mockBookings struct{ mock.Mock }

func (m *mockBookings) Create(ctx context.Context, b *model.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookings) GetByReference(ctx context.Context, ref string) (model.Booking, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(model.Booking), args.Error(1)
}

func (m *mockBookings) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	out, _ := args.Get(0).([]model.Booking)
	return out, args.Error(1)
}

func (m *mockBookings) ListAll(ctx context.Context, status model.BookingStatus, limit, offset int) ([]model.Booking, error) {
	args := m.Called(ctx, status, limit, offset)
	out, _ := args.Get(0).([]model.Booking)
	return out, args.Error(1)
}

func (m *mockBookings) ListAwaitingPayment(ctx context.Context, at time.Time, limit int) ([]model.Booking, error) {
	args := m.Called(ctx, at, limit)
	out, _ := args.Get(0).([]model.Booking)
	return out, args.Error(1)
}

func (m *mockBookings) ListLapsedAwaitingPayment(ctx context.Context, at time.Time, limit int) ([]model.Booking, error) {
	args := m.Called(ctx, at, limit)
	out, _ := args.Get(0).([]model.Booking)
	return out, args.Error(1)
}

func (m *mockBookings) Transition(ctx context.Context, id uint64, to model.BookingStatus, from ...model.BookingStatus) error {
	return m.Called(ctx, id, to, from).Error(0)
}

func (m *mockBookings) SetPaymentLink(ctx context.Context, id uint64, linkID, url, orderID string) error {
	return m.Called(ctx, id, linkID, url, orderID).Error(0)
}

func (m *mockBookings) MarkConfirmed(ctx context.Context, id uint64, paymentID string) error {
	return m.Called(ctx, id, paymentID).Error(0)
}

func (m *mockBookings) MarkRefunded(ctx context.Context, id uint64, refundID string) error {
	return m.Called(ctx, id, refundID).Error(0)
}

func (m *mockBookings) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]model.Booking, error) {
	args := m.Called(ctx, deadline)
	out, _ := args.Get(0).([]model.Booking)
	return out, args.Error(1)
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

type mockGateway struct{ mock.Mock }

func (m *mockGateway) CreatePaymentLink(ctx context.Context, req payment.LinkRequest) (payment.PaymentLink, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.PaymentLink), args.Error(1)
}

func (m *mockGateway) GetOrder(ctx context.Context, orderID string) (payment.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(payment.Order), args.Error(1)
}

func (m *mockGateway) RefundPayment(ctx context.Context, req payment.RefundRequest) (payment.Refund, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Refund), args.Error(1)
}

type mockAlerts struct{ mock.Mock }

func (m *mockAlerts) Create(ctx context.Context, a *model.PriceAlert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAlerts) CountActiveByUser(ctx context.Context, userID uint64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockAlerts) ListByUser(ctx context.Context, userID uint64) ([]model.PriceAlert, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]model.PriceAlert)
	return out, args.Error(1)
}

func (m *mockAlerts) ListActive(ctx context.Context, limit int) ([]model.PriceAlert, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]model.PriceAlert)
	return out, args.Error(1)
}

func (m *mockAlerts) GetForUser(ctx context.Context, id, userID uint64) (model.PriceAlert, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(model.PriceAlert), args.Error(1)
}

func (m *mockAlerts) Update(ctx context.Context, a model.PriceAlert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAlerts) Delete(ctx context.Context, id, userID uint64) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockAlerts) RecordCheck(ctx context.Context, id uint64, priceCents int64, checkedAt time.Time, triggered bool) error {
	return m.Called(ctx, id, priceCents, checkedAt, triggered).Error(0)
}

func (m *mockAlerts) Deactivate(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockTravelers struct{ mock.Mock }

func (m *mockTravelers) Create(ctx context.Context, t *model.Traveler) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTravelers) ListByUser(ctx context.Context, userID uint64) ([]model.Traveler, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]model.Traveler)
	return out, args.Error(1)
}

func (m *mockTravelers) GetForUser(ctx context.Context, id, userID uint64) (model.Traveler, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(model.Traveler), args.Error(1)
}

func (m *mockTravelers) Update(ctx context.Context, t model.Traveler) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTravelers) Delete(ctx context.Context, id, userID uint64) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockLoyalty struct{ mock.Mock }

func (m *mockLoyalty) Create(ctx context.Context, p *model.LoyaltyProgram) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockLoyalty) ListByUser(ctx context.Context, userID uint64) ([]model.LoyaltyProgram, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]model.LoyaltyProgram)
	return out, args.Error(1)
}

func (m *mockLoyalty) Delete(ctx context.Context, id, userID uint64) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockNavigation struct{ mock.Mock }

func (m *mockNavigation) Insert(ctx context.Context, e model.NavigationEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockNavigation) ListRecent(ctx context.Context, limit, offset int) ([]model.NavigationEvent, error) {
	args := m.Called(ctx, limit, offset)
	out, _ := args.Get(0).([]model.NavigationEvent)
	return out, args.Error(1)
}
