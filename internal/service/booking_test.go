package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/payment"
	"github.com/iliyamo/michels-travel/internal/repository"
)

const holdTTL = 30 * time.Minute

type bookingDeps struct {
	store  *mockBookings
	search *mockSearch
	pay    *mockGateway
	pub    *mockPublisher
}

func newBookings(refs ...string) (*BookingService, bookingDeps) {
	d := bookingDeps{new(mockBookings), new(mockSearch), new(mockGateway), new(mockPublisher)}
	d.pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	i := 0
	gen := func() (string, error) {
		if i >= len(refs) {
			return "", errors.New("out of references")
		}
		i++
		return refs[i-1], nil
	}
	svc := NewBookingService(d.store, d.search, holdTTL,
		WithPayments(d.pay, "https://michels.travel/checkout/done"),
		WithPublisher(d.pub),
		WithBookingClock(clock),
		withReferences(gen),
	)
	return svc, d
}

func sampleOffer() model.Offer {
	dep := time.Date(2026, 11, 1, 9, 30, 0, 0, time.UTC)
	return model.Offer{
		ID:               "off_1",
		Provider:         "mock",
		TotalAmountCents: 45900,
		Currency:         "EUR",
		CabinClass:       model.CabinEconomy,
		ExpiresAt:        now.Add(2 * time.Hour),
		Slices: []model.Slice{{
			Origin: "CDG", Destination: "JFK", DepartureAt: dep, ArrivalAt: dep.Add(8 * time.Hour),
			Segments: []model.Segment{{CarrierCode: "AF", CarrierName: "Air France", FlightNumber: "AF006"}},
		}},
	}
}

func adult(name string) PassengerInput {
	return PassengerInput{GivenName: name, FamilyName: "Martin", BornOn: "1990-05-01", Title: "Ms"}
}

func bookingInput() CreateBookingInput {
	uid := uint64(7)
	return CreateBookingInput{
		UserID:       &uid,
		OfferID:      "off_1",
		ContactEmail: "Claire@Example.com",
		Passengers:   []PassengerInput{adult("Claire")},
	}
}

func pendingBooking() model.Booking {
	uid := uint64(7)
	return model.Booking{
		ID: 1, Reference: "K7Q2MX", UserID: &uid, Origin: "CDG", Destination: "JFK",
		TotalAmountCents: 45900, Currency: "EUR", Status: model.BookingPendingPayment,
		ContactEmail: "claire@example.com", ExpiresAt: now.Add(10 * time.Minute),
	}
}

var owner = Viewer{UserID: 7, Role: model.RoleCustomer}

func TestBooking_Create(t *testing.T) {
	svc, d := newBookings("K7Q2MX")
	d.search.On("Offer", mock.Anything, "off_1").Return(sampleOffer(), nil)
	d.store.On("Create", mock.Anything, mock.AnythingOfType("*model.Booking")).Return(nil)

	b, err := svc.Create(context.Background(), bookingInput())

	require.NoError(t, err)
	assert.Equal(t, "K7Q2MX", b.Reference)
	assert.Equal(t, model.BookingPendingPayment, b.Status)
	assert.Equal(t, "claire@example.com", b.ContactEmail)
	assert.Equal(t, int64(45900), b.TotalAmountCents)
	assert.Equal(t, "AF006", b.FlightNumber)
	assert.Equal(t, now.Add(holdTTL), b.ExpiresAt)
	require.Len(t, b.Passengers, 1)
	assert.Equal(t, model.PassengerAdult, b.Passengers[0].Type)
	assert.Equal(t, "ms", b.Passengers[0].Title)
	d.pub.AssertCalled(t, "Publish", mock.Anything, eventType(model.EventBookingCreated))
}

func TestBooking_CreateRetriesReferenceCollision(t *testing.T) {
	svc, d := newBookings("AAAAAA", "BBBBBB")
	d.search.On("Offer", mock.Anything, "off_1").Return(sampleOffer(), nil)
	d.store.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate).Once()
	d.store.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	b, err := svc.Create(context.Background(), bookingInput())

	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", b.Reference)
	d.store.AssertNumberOfCalls(t, "Create", 2)
}

func TestBooking_CreateGivesUpOnReferences(t *testing.T) {
	svc, d := newBookings("AAAAAA", "BBBBBB", "CCCCCC", "DDDDDD", "EEEEEE", "FFFFFF")
	d.search.On("Offer", mock.Anything, "off_1").Return(sampleOffer(), nil)
	d.store.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := svc.Create(context.Background(), bookingInput())

	assert.ErrorIs(t, err, ErrReferenceExhausted)
	d.store.AssertNumberOfCalls(t, "Create", referenceAttempts)
}

func TestBooking_CreateOfferErrors(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		svc, d := newBookings("K7Q2MX")
		d.search.On("Offer", mock.Anything, "off_1").Return(model.Offer{}, flights.ErrOfferExpired)

		_, err := svc.Create(context.Background(), bookingInput())
		assert.ErrorIs(t, err, ErrOfferExpired)
	})

	t.Run("provider down", func(t *testing.T) {
		svc, d := newBookings("K7Q2MX")
		d.search.On("Offer", mock.Anything, "off_1").Return(model.Offer{}, errors.New("timeout"))

		_, err := svc.Create(context.Background(), bookingInput())
		var up *UpstreamError
		require.ErrorAs(t, err, &up)
		assert.Equal(t, "flights", up.Service)
	})

	t.Run("no price", func(t *testing.T) {
		svc, d := newBookings("K7Q2MX")
		free := sampleOffer()
		free.TotalAmountCents = 0
		d.search.On("Offer", mock.Anything, "off_1").Return(free, nil)

		_, err := svc.Create(context.Background(), bookingInput())
		var up *UpstreamError
		require.ErrorAs(t, err, &up)
		d.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestBooking_CreateRejectsEditedMockOffer(t *testing.T) {
	d := bookingDeps{new(mockBookings), new(mockSearch), new(mockGateway), new(mockPublisher)}
	search := flights.NewService(flights.NewMockProvider("EUR"), flights.WithClock(clock))
	svc := NewBookingService(d.store, search, holdTTL, WithBookingClock(clock))
	in := bookingInput()
	in.OfferID = "mock.0.CDG_JFK_2026-11-01_-_-3_0_0_economy"

	_, err := svc.Create(context.Background(), in)

	assert.ErrorIs(t, err, ErrOfferNotFound)
	d.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBooking_CreateValidatesBeforeSearching(t *testing.T) {
	svc, d := newBookings("K7Q2MX")
	in := bookingInput()
	in.ContactEmail = "nope"
	in.OfferID = " "

	_, err := svc.Create(context.Background(), in)

	f, ok := FieldErrors(err)
	require.True(t, ok)
	assert.Contains(t, f, "contact_email")
	assert.Contains(t, f, "offer_id")
	d.search.AssertNotCalled(t, "Offer", mock.Anything, mock.Anything)
}

func TestValidatePassengers(t *testing.T) {
	child := PassengerInput{Type: "child", GivenName: "Léa", FamilyName: "Martin", BornOn: "2018-03-02"}
	infant := PassengerInput{Type: "infant", GivenName: "Tom", FamilyName: "Martin", BornOn: "2026-01-10"}

	cases := []struct {
		name  string
		in    []PassengerInput
		field string
	}{
		{"none", nil, "passengers"},
		{"too many", make([]PassengerInput, 10), "passengers"},
		{"no adult", []PassengerInput{child}, "passengers"},
		{"infant without adult", []PassengerInput{adult("A"), infant, infant}, "passengers"},
		{"bad type", []PassengerInput{{Type: "pet", GivenName: "Rex", FamilyName: "Dog", BornOn: "2020-01-01"}}, "passengers[0].type"},
		{"bad title", []PassengerInput{{Title: "sir", GivenName: "A", FamilyName: "B", BornOn: "1990-01-01"}}, "passengers[0].title"},
		{"digits in name", []PassengerInput{{GivenName: "R2D2", FamilyName: "B", BornOn: "1990-01-01"}}, "passengers[0].given_name"},
		{"bad gender", []PassengerInput{{GivenName: "A", FamilyName: "B", BornOn: "1990-01-01", Gender: "Q"}}, "passengers[0].gender"},
		{"bad date", []PassengerInput{{GivenName: "A", FamilyName: "B", BornOn: "01/02/1990"}}, "passengers[0].born_on"},
		{"future birth", []PassengerInput{{GivenName: "A", FamilyName: "B", BornOn: "2027-01-01"}}, "passengers[0].born_on"},
		{"adult too young", []PassengerInput{{GivenName: "A", FamilyName: "B", BornOn: "2015-01-01"}}, "passengers[0].born_on"},
		{"child too old", []PassengerInput{adult("A"), {Type: "child", GivenName: "C", FamilyName: "B", BornOn: "2010-01-01"}}, "passengers[1].born_on"},
		{"infant too old", []PassengerInput{adult("A"), {Type: "infant", GivenName: "C", FamilyName: "B", BornOn: "2023-01-01"}}, "passengers[1].born_on"},
		{"loyalty without airline", []PassengerInput{{GivenName: "A", FamilyName: "B", BornOn: "1990-01-01", LoyaltyNumber: "123"}}, "passengers[0].loyalty_airline"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bad := fields{}
			validatePassengers(tc.in, now, bad)
			assert.Contains(t, bad, tc.field)
		})
	}

	t.Run("family", func(t *testing.T) {
		bad := fields{}
		out := validatePassengers([]PassengerInput{adult("Claire"), child, infant}, now, bad)
		assert.Empty(t, bad)
		require.Len(t, out, 3)
		assert.Equal(t, model.PassengerChild, out[1].Type)
	})

	t.Run("twelfth birthday today", func(t *testing.T) {
		bad := fields{}
		validatePassengers([]PassengerInput{{GivenName: "A", FamilyName: "B", BornOn: "2014-10-17"}}, now, bad)
		assert.Empty(t, bad)
	})
}

func TestBooking_GetVisibility(t *testing.T) {
	guest := pendingBooking()
	guest.UserID = nil

	cases := []struct {
		name    string
		booking model.Booking
		viewer  Viewer
		ok      bool
	}{
		{"owner", pendingBooking(), owner, true},
		{"other user", pendingBooking(), Viewer{UserID: 8, Role: model.RoleCustomer}, false},
		{"admin", pendingBooking(), Viewer{UserID: 1, Role: model.RoleAdmin}, true},
		{"guest by email", guest, Viewer{Email: "CLAIRE@example.com"}, true},
		{"guest wrong email", guest, Viewer{Email: "x@example.com"}, false},
		{"anonymous", guest, Viewer{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, d := newBookings()
			d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(tc.booking, nil)

			_, err := svc.Get(context.Background(), "k7q2mx", tc.viewer)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrNotFound)
			}
		})
	}
}

func TestBooking_GetRejectsMalformedReference(t *testing.T) {
	svc, d := newBookings()

	_, err := svc.Get(context.Background(), "K7Q-2M", owner)

	assert.ErrorIs(t, err, ErrNotFound)
	d.store.AssertNotCalled(t, "GetByReference", mock.Anything, mock.Anything)
}

func TestBooking_ListAllStatus(t *testing.T) {
	svc, d := newBookings()
	d.store.On("ListAll", mock.Anything, model.BookingConfirmed, 20, 0).Return([]model.Booking{{Reference: "AAAAAA"}}, nil)

	out, err := svc.ListAll(context.Background(), "confirmed", 20, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	_, err = svc.ListAll(context.Background(), "paid", 20, 0)
	_, ok := FieldErrors(err)
	assert.True(t, ok)
}

func TestBooking_Checkout(t *testing.T) {
	svc, d := newBookings()
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(pendingBooking(), nil)
	d.pay.On("CreatePaymentLink", mock.Anything, mock.MatchedBy(func(r payment.LinkRequest) bool {
		return r.AmountCents == 45900 && r.Currency == "EUR" &&
			r.RedirectURL == "https://michels.travel/checkout/done?reference=K7Q2MX" &&
			r.IdempotencyKey == idempotencyKey("checkout", "K7Q2MX")
	})).Return(payment.PaymentLink{ID: "pl_1", URL: "https://square.link/u/abc", OrderID: "ord_1"}, nil)
	d.store.On("SetPaymentLink", mock.Anything, uint64(1), "pl_1", "https://square.link/u/abc", "ord_1").Return(nil)

	b, err := svc.Checkout(context.Background(), "K7Q2MX", owner)

	require.NoError(t, err)
	assert.Equal(t, "https://square.link/u/abc", b.PaymentURL)
	assert.Equal(t, "ord_1", b.PaymentOrderID)
	d.pay.AssertExpectations(t)
}

func TestBooking_CheckoutReusesLink(t *testing.T) {
	svc, d := newBookings()
	b := pendingBooking()
	b.PaymentURL = "https://square.link/u/abc"
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(b, nil)

	got, err := svc.Checkout(context.Background(), "K7Q2MX", owner)

	require.NoError(t, err)
	assert.Equal(t, b.PaymentURL, got.PaymentURL)
	d.pay.AssertNotCalled(t, "CreatePaymentLink", mock.Anything, mock.Anything)
}

func TestBooking_CheckoutRejects(t *testing.T) {
	expired := pendingBooking()
	expired.ExpiresAt = now
	confirmed := pendingBooking()
	confirmed.Status = model.BookingConfirmed

	for name, tc := range map[string]struct {
		b    model.Booking
		want error
	}{
		"hold expired": {expired, ErrHoldExpired},
		"not pending":  {confirmed, ErrInvalidTransition},
	} {
		t.Run(name, func(t *testing.T) {
			svc, d := newBookings()
			d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(tc.b, nil)

			_, err := svc.Checkout(context.Background(), "K7Q2MX", owner)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("payments disabled", func(t *testing.T) {
		store := new(mockBookings)
		store.On("GetByReference", mock.Anything, "K7Q2MX").Return(pendingBooking(), nil)
		svc := NewBookingService(store, new(mockSearch), holdTTL, WithBookingClock(clock))

		_, err := svc.Checkout(context.Background(), "K7Q2MX", owner)
		assert.ErrorIs(t, err, ErrPaymentsUnavailable)
	})
}

func TestBooking_PaymentStatusConfirms(t *testing.T) {
	svc, d := newBookings()
	b := pendingBooking()
	b.PaymentOrderID = "ord_1"
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(b, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_1").Return(payment.Order{ID: "ord_1", State: payment.OrderCompleted, PaymentIDs: []string{"pay_1"}}, nil)
	d.store.On("MarkConfirmed", mock.Anything, uint64(1), "pay_1").Return(nil)

	got, err := svc.PaymentStatus(context.Background(), "K7Q2MX", owner)

	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	assert.Equal(t, "pay_1", got.PaymentID)
	d.pub.AssertCalled(t, "Publish", mock.Anything, eventType(model.EventBookingConfirmed))
}

func TestBooking_PaymentStatusOpenOrder(t *testing.T) {
	svc, d := newBookings()
	b := pendingBooking()
	b.PaymentOrderID = "ord_1"
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(b, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_1").Return(payment.Order{ID: "ord_1", State: payment.OrderOpen}, nil)

	got, err := svc.PaymentStatus(context.Background(), "K7Q2MX", owner)

	require.NoError(t, err)
	assert.Equal(t, model.BookingPendingPayment, got.Status)
	d.store.AssertNotCalled(t, "MarkConfirmed", mock.Anything, mock.Anything, mock.Anything)
}

func TestBooking_CancelPending(t *testing.T) {
	svc, d := newBookings()
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(pendingBooking(), nil)
	d.store.On("Transition", mock.Anything, uint64(1), model.BookingCancelled,
		[]model.BookingStatus{model.BookingPendingPayment}).Return(nil)

	b, err := svc.Cancel(context.Background(), "K7Q2MX", owner)

	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, b.Status)
	d.pub.AssertCalled(t, "Publish", mock.Anything, eventType(model.EventBookingCancelled))
}

func TestBooking_CancelPaidRefunds(t *testing.T) {
	svc, d := newBookings()
	b := pendingBooking()
	b.Status = model.BookingConfirmed
	b.PaymentID = "pay_1"
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(b, nil)
	d.pay.On("RefundPayment", mock.Anything, mock.MatchedBy(func(r payment.RefundRequest) bool {
		return r.PaymentID == "pay_1" && r.AmountCents == 45900 && r.IdempotencyKey == idempotencyKey("refund", "K7Q2MX")
	})).Return(payment.Refund{ID: "rf_1", Status: "PENDING"}, nil)
	d.store.On("MarkRefunded", mock.Anything, uint64(1), "rf_1").Return(nil)

	got, err := svc.Cancel(context.Background(), "K7Q2MX", owner)

	require.NoError(t, err)
	assert.Equal(t, model.BookingRefunded, got.Status)
	assert.Equal(t, "rf_1", got.RefundID)
	d.pub.AssertCalled(t, "Publish", mock.Anything, eventType(model.EventBookingRefunded))
}

func TestBooking_CancelReconcilesPaidOrderFirst(t *testing.T) {
	svc, d := newBookings()
	b := pendingBooking()
	b.PaymentOrderID = "ord_1"
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(b, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_1").Return(payment.Order{State: payment.OrderCompleted, PaymentIDs: []string{"pay_1"}}, nil)
	d.store.On("MarkConfirmed", mock.Anything, uint64(1), "pay_1").Return(nil)
	d.pay.On("RefundPayment", mock.Anything, mock.Anything).Return(payment.Refund{ID: "rf_1"}, nil)
	d.store.On("MarkRefunded", mock.Anything, uint64(1), "rf_1").Return(nil)

	got, err := svc.Cancel(context.Background(), "K7Q2MX", owner)

	require.NoError(t, err)
	assert.Equal(t, model.BookingRefunded, got.Status)
}

func TestBooking_CancelTerminal(t *testing.T) {
	svc, d := newBookings()
	b := pendingBooking()
	b.Status = model.BookingExpired
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(b, nil)

	_, err := svc.Cancel(context.Background(), "K7Q2MX", owner)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBooking_CancelLostRace(t *testing.T) {
	svc, d := newBookings()
	d.store.On("GetByReference", mock.Anything, "K7Q2MX").Return(pendingBooking(), nil)
	d.store.On("Transition", mock.Anything, uint64(1), model.BookingCancelled, mock.Anything).Return(repository.ErrConflict)

	_, err := svc.Cancel(context.Background(), "K7Q2MX", owner)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBooking_ExpireStale(t *testing.T) {
	svc, d := newBookings()
	d.store.On("ExpirePendingBefore", mock.Anything, now).Return([]model.Booking{pendingBooking(), pendingBooking()}, nil)
	d.store.On("ListLapsedAwaitingPayment", mock.Anything, now, pollBatch).Return(nil, nil)

	n, err := svc.ExpireStale(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	d.pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestBooking_ExpireStaleReconcilesLinkedHolds(t *testing.T) {
	svc, d := newBookings()
	paid, open, broken := pendingBooking(), pendingBooking(), pendingBooking()
	paid.ID, paid.PaymentOrderID = 1, "ord_paid"
	open.ID, open.PaymentOrderID = 2, "ord_open"
	broken.ID, broken.PaymentOrderID = 3, "ord_broken"
	for _, b := range []*model.Booking{&paid, &open, &broken} {
		b.ExpiresAt = now.Add(-time.Second)
	}
	d.store.On("ExpirePendingBefore", mock.Anything, now).Return(nil, nil)
	d.store.On("ListLapsedAwaitingPayment", mock.Anything, now, pollBatch).Return([]model.Booking{paid, open, broken}, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_paid").Return(payment.Order{State: payment.OrderCompleted, PaymentIDs: []string{"pay_1"}}, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_open").Return(payment.Order{State: payment.OrderOpen}, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_broken").Return(payment.Order{}, errors.New("square: 500"))
	d.store.On("MarkConfirmed", mock.Anything, uint64(1), "pay_1").Return(nil)
	d.store.On("Transition", mock.Anything, uint64(2), model.BookingExpired, []model.BookingStatus{model.BookingPendingPayment}).Return(nil)

	n, err := svc.ExpireStale(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	d.store.AssertNotCalled(t, "Transition", mock.Anything, uint64(1), mock.Anything, mock.Anything)
	d.store.AssertNotCalled(t, "Transition", mock.Anything, uint64(3), mock.Anything, mock.Anything)
	d.pub.AssertCalled(t, "Publish", mock.Anything, eventType(model.EventBookingConfirmed))
	d.pub.AssertCalled(t, "Publish", mock.Anything, eventType(model.EventBookingExpired))
}

func TestBooking_PollPending(t *testing.T) {
	svc, d := newBookings()
	paid, open, broken := pendingBooking(), pendingBooking(), pendingBooking()
	paid.ID, paid.PaymentOrderID = 1, "ord_paid"
	open.ID, open.PaymentOrderID = 2, "ord_open"
	broken.ID, broken.PaymentOrderID = 3, "ord_broken"
	d.store.On("ListAwaitingPayment", mock.Anything, now, pollBatch).Return([]model.Booking{paid, open, broken}, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_paid").Return(payment.Order{State: payment.OrderCompleted, PaymentIDs: []string{"pay_1"}}, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_open").Return(payment.Order{State: payment.OrderOpen}, nil)
	d.pay.On("GetOrder", mock.Anything, "ord_broken").Return(payment.Order{}, errors.New("square: 500"))
	d.store.On("MarkConfirmed", mock.Anything, uint64(1), "pay_1").Return(nil)

	n, err := svc.PollPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIdempotencyKeyIsStable(t *testing.T) {
	assert.Equal(t, idempotencyKey("refund", "K7Q2MX"), idempotencyKey("refund", "K7Q2MX"))
	assert.NotEqual(t, idempotencyKey("refund", "K7Q2MX"), idempotencyKey("checkout", "K7Q2MX"))
}
