package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/payment"
	"github.com/iliyamo/michels-travel/internal/queue"
	"github.com/iliyamo/michels-travel/internal/repository"
	"github.com/iliyamo/michels-travel/internal/utils"
)

const (
	referenceAttempts = 5
	pollBatch         = 100
	maxPhoneLen       = 32
)

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByReference(ctx context.Context, ref string) (model.Booking, error)
	ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Booking, error)
	ListAll(ctx context.Context, status model.BookingStatus, limit, offset int) ([]model.Booking, error)
	ListAwaitingPayment(ctx context.Context, now time.Time, limit int) ([]model.Booking, error)
	ListLapsedAwaitingPayment(ctx context.Context, now time.Time, limit int) ([]model.Booking, error)
	Transition(ctx context.Context, id uint64, to model.BookingStatus, from ...model.BookingStatus) error
	SetPaymentLink(ctx context.Context, id uint64, linkID, url, orderID string) error
	MarkConfirmed(ctx context.Context, id uint64, paymentID string) error
	MarkRefunded(ctx context.Context, id uint64, refundID string) error
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]model.Booking, error)
}

type BookingUseCase interface {
	Create(ctx context.Context, in CreateBookingInput) (model.Booking, error)
	Get(ctx context.Context, ref string, v Viewer) (model.Booking, error)
	ListMine(ctx context.Context, userID uint64, limit, offset int) ([]model.Booking, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]model.Booking, error)
	Checkout(ctx context.Context, ref string, v Viewer) (model.Booking, error)
	PaymentStatus(ctx context.Context, ref string, v Viewer) (model.Booking, error)
	Cancel(ctx context.Context, ref string, v Viewer) (model.Booking, error)
	ExpireStale(ctx context.Context) (int, error)
	PollPending(ctx context.Context) (int, error)
}

// Viewer identifies who is looking at a booking. Guests are identified by
// the contact e-mail they booked with.
type Viewer struct {
	UserID uint64
	Role   string
	Email  string
}

func (v Viewer) canSee(b model.Booking) bool {
	switch {
	case v.Role == model.RoleAdmin:
		return true
	case v.UserID != 0 && b.OwnedBy(v.UserID):
		return true
	case v.Email != "" && strings.EqualFold(strings.TrimSpace(v.Email), b.ContactEmail):
		return true
	}
	return false
}

type CreateBookingInput struct {
	UserID       *uint64
	OfferID      string
	ContactEmail string
	ContactPhone string
	Passengers   []PassengerInput
}

type BookingService struct {
	store       BookingStore
	search      flights.SearchUseCase
	payments    payment.Gateway
	holdTTL     time.Duration
	redirectURL string
	events      events
	log         *logger.Logger
	now         func() time.Time
	newRef      func() (string, error)
}

type BookingOption func(*BookingService)

// WithPayments enables Square checkout. Without it checkout and refunds
// report ErrPaymentsUnavailable.
func WithPayments(g payment.Gateway, redirectURL string) BookingOption {
	return func(s *BookingService) {
		s.payments = g
		s.redirectURL = redirectURL
	}
}

func WithPublisher(p queue.Publisher) BookingOption {
	return func(s *BookingService) { s.events.pub = p }
}

func WithBookingLogger(l *logger.Logger) BookingOption {
	return func(s *BookingService) {
		s.log = l
		s.events.log = l
	}
}

func WithBookingClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func withReferences(gen func() (string, error)) BookingOption {
	return func(s *BookingService) { s.newRef = gen }
}

func NewBookingService(store BookingStore, search flights.SearchUseCase, holdTTL time.Duration, opts ...BookingOption) *BookingService {
	log := logger.Discard()
	s := &BookingService{
		store:   store,
		search:  search,
		holdTTL: holdTTL,
		events:  events{log: log},
		log:     log,
		now:     time.Now,
		newRef:  utils.NewBookingReference,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the passengers, re-prices the offer with the provider and
// stores a PENDING_PAYMENT booking under a fresh reference.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (model.Booking, error) {
	now := s.now().UTC()
	bad := fields{}
	in.OfferID = strings.TrimSpace(in.OfferID)
	in.ContactEmail = strings.ToLower(strings.TrimSpace(in.ContactEmail))
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	if in.OfferID == "" {
		bad.add("offer_id", "is required")
	}
	if !validEmail(in.ContactEmail) {
		bad.add("contact_email", "must be a valid email address")
	}
	if len(in.ContactPhone) > maxPhoneLen {
		bad.add("contact_phone", "must be at most 32 characters")
	}
	passengers := validatePassengers(in.Passengers, now, bad)
	if err := bad.err(); err != nil {
		return model.Booking{}, err
	}

	offer, err := s.search.Offer(ctx, in.OfferID)
	if err != nil {
		if errors.Is(err, flights.ErrOfferNotFound) || errors.Is(err, flights.ErrOfferExpired) {
			return model.Booking{}, err
		}
		return model.Booking{}, upstream("flights", err)
	}
	if offer.TotalAmountCents <= 0 || offer.Currency == "" {
		s.log.Warn("offer without a usable price", "offer_id", offer.ID, "amount_cents", offer.TotalAmountCents)
		return model.Booking{}, upstream("flights", fmt.Errorf("offer %s has no usable price", offer.ID))
	}

	b := bookingFromOffer(offer)
	b.UserID = in.UserID
	b.ContactEmail = in.ContactEmail
	b.ContactPhone = in.ContactPhone
	b.Status = model.BookingPendingPayment
	b.ExpiresAt = now.Add(s.holdTTL)
	b.CreatedAt, b.UpdatedAt = now, now
	b.Passengers = passengers

	if err := s.insertWithReference(ctx, &b); err != nil {
		return model.Booking{}, err
	}
	s.log.Info("booking created", "reference", b.Reference, "offer_id", b.OfferID, "amount_cents", b.TotalAmountCents)
	s.events.publish(ctx, bookingEvent(model.EventBookingCreated, b))
	return b, nil
}

func (s *BookingService) insertWithReference(ctx context.Context, b *model.Booking) error {
	for i := 0; i < referenceAttempts; i++ {
		ref, err := s.newRef()
		if err != nil {
			return err
		}
		b.Reference = ref
		err = s.store.Create(ctx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		s.log.Warn("booking reference collision", "reference", ref, "attempt", i+1)
	}
	return ErrReferenceExhausted
}

func bookingFromOffer(o model.Offer) model.Booking {
	out := o.Outbound()
	c := o.Carrier()
	b := model.Booking{
		OfferID:          o.ID,
		Provider:         o.Provider,
		Origin:           out.Origin,
		Destination:      out.Destination,
		DepartureAt:      out.DepartureAt,
		ArrivalAt:        out.ArrivalAt,
		AirlineCode:      c.CarrierCode,
		AirlineName:      c.CarrierName,
		FlightNumber:     c.FlightNumber,
		CabinClass:       o.CabinClass,
		TotalAmountCents: o.TotalAmountCents,
		Currency:         o.Currency,
	}
	if len(o.Slices) > 1 {
		ret := o.Slices[1].DepartureAt
		b.ReturnDepartureAt = &ret
	}
	return b
}

func (s *BookingService) Get(ctx context.Context, ref string, v Viewer) (model.Booking, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if !utils.ValidReference(ref) {
		return model.Booking{}, ErrNotFound
	}
	b, err := s.store.GetByReference(ctx, ref)
	if err != nil {
		return model.Booking{}, err
	}
	if !v.canSee(b) {
		return model.Booking{}, ErrNotFound
	}
	return b, nil
}

func (s *BookingService) ListMine(ctx context.Context, userID uint64, limit, offset int) ([]model.Booking, error) {
	return s.store.ListByUser(ctx, userID, limit, offset)
}

func (s *BookingService) ListAll(ctx context.Context, status string, limit, offset int) ([]model.Booking, error) {
	st := model.BookingStatus(strings.ToUpper(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown booking status"}}
	}
	return s.store.ListAll(ctx, st, limit, offset)
}

// Checkout returns the booking with a Square payment link, creating the link
// on first use.
func (s *BookingService) Checkout(ctx context.Context, ref string, v Viewer) (model.Booking, error) {
	b, err := s.Get(ctx, ref, v)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status != model.BookingPendingPayment {
		return model.Booking{}, ErrInvalidTransition
	}
	if !s.now().Before(b.ExpiresAt) {
		return model.Booking{}, ErrHoldExpired
	}
	if b.PaymentURL != "" {
		return b, nil
	}
	if s.payments == nil {
		return model.Booking{}, ErrPaymentsUnavailable
	}

	link, err := s.payments.CreatePaymentLink(ctx, payment.LinkRequest{
		Name:           "Flight " + b.Origin + "-" + b.Destination + " " + b.Reference,
		AmountCents:    b.TotalAmountCents,
		Currency:       b.Currency,
		RedirectURL:    s.returnURL(b.Reference),
		BuyerEmail:     b.ContactEmail,
		Note:           "Booking " + b.Reference,
		IdempotencyKey: idempotencyKey("checkout", b.Reference),
	})
	if err != nil {
		return model.Booking{}, upstream("square", err)
	}
	if err := s.store.SetPaymentLink(ctx, b.ID, link.ID, link.URL, link.OrderID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Booking{}, ErrInvalidTransition
		}
		return model.Booking{}, err
	}
	b.PaymentLinkID, b.PaymentURL, b.PaymentOrderID = link.ID, link.URL, link.OrderID
	return b, nil
}

func (s *BookingService) returnURL(ref string) string {
	if s.redirectURL == "" {
		return ""
	}
	u, err := url.Parse(s.redirectURL)
	if err != nil {
		return s.redirectURL
	}
	q := u.Query()
	q.Set("reference", ref)
	u.RawQuery = q.Encode()
	return u.String()
}

// PaymentStatus refreshes a pending booking from its Square order.
func (s *BookingService) PaymentStatus(ctx context.Context, ref string, v Viewer) (model.Booking, error) {
	b, err := s.Get(ctx, ref, v)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status != model.BookingPendingPayment || b.PaymentOrderID == "" || s.payments == nil {
		return b, nil
	}
	return s.reconcile(ctx, b)
}

// reconcile confirms b when its Square order has been paid.
func (s *BookingService) reconcile(ctx context.Context, b model.Booking) (model.Booking, error) {
	order, err := s.payments.GetOrder(ctx, b.PaymentOrderID)
	if err != nil {
		return model.Booking{}, upstream("square", err)
	}
	if !order.Completed() {
		return b, nil
	}
	if err := s.store.MarkConfirmed(ctx, b.ID, order.PaymentID()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// someone else moved it first; report the stored state
			return s.store.GetByReference(ctx, b.Reference)
		}
		return model.Booking{}, err
	}
	b.Status = model.BookingConfirmed
	b.PaymentID = order.PaymentID()
	s.log.Info("booking confirmed", "reference", b.Reference, "payment_id", b.PaymentID)
	s.events.publish(ctx, bookingEvent(model.EventBookingConfirmed, b))
	return b, nil
}

// Cancel ends a booking. Pending bookings are cancelled outright, paid ones
// are refunded through Square first.
func (s *BookingService) Cancel(ctx context.Context, ref string, v Viewer) (model.Booking, error) {
	b, err := s.Get(ctx, ref, v)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status == model.BookingPendingPayment && b.PaymentOrderID != "" && s.payments != nil {
		if b, err = s.reconcile(ctx, b); err != nil {
			return model.Booking{}, err
		}
	}

	switch b.Status {
	case model.BookingPendingPayment:
		if err := s.store.Transition(ctx, b.ID, model.BookingCancelled, model.BookingPendingPayment); err != nil {
			return model.Booking{}, transitionErr(err)
		}
		b.Status = model.BookingCancelled
		s.events.publish(ctx, bookingEvent(model.EventBookingCancelled, b))
		return b, nil

	case model.BookingConfirmed:
		if b.PaymentID == "" {
			if err := s.store.Transition(ctx, b.ID, model.BookingCancelled, model.BookingConfirmed); err != nil {
				return model.Booking{}, transitionErr(err)
			}
			b.Status = model.BookingCancelled
			s.events.publish(ctx, bookingEvent(model.EventBookingCancelled, b))
			return b, nil
		}
		if s.payments == nil {
			return model.Booking{}, ErrPaymentsUnavailable
		}
		refund, err := s.payments.RefundPayment(ctx, payment.RefundRequest{
			PaymentID:      b.PaymentID,
			AmountCents:    b.TotalAmountCents,
			Currency:       b.Currency,
			Reason:         "Booking " + b.Reference + " cancelled",
			IdempotencyKey: idempotencyKey("refund", b.Reference),
		})
		if err != nil {
			return model.Booking{}, upstream("square", err)
		}
		if err := s.store.MarkRefunded(ctx, b.ID, refund.ID); err != nil {
			return model.Booking{}, transitionErr(err)
		}
		b.Status = model.BookingRefunded
		b.RefundID = refund.ID
		s.log.Info("booking refunded", "reference", b.Reference, "refund_id", refund.ID)
		s.events.publish(ctx, bookingEvent(model.EventBookingRefunded, b))
		return b, nil
	}
	return model.Booking{}, ErrInvalidTransition
}

// ExpireStale expires every pending booking whose payment hold has run out.
// Holds with a Square order are reconciled first so a payment made just
// before the deadline confirms the booking instead of being lost.
func (s *BookingService) ExpireStale(ctx context.Context) (int, error) {
	at := s.now().UTC()
	expired, err := s.store.ExpirePendingBefore(ctx, at)
	if err != nil {
		return 0, err
	}
	for _, b := range expired {
		s.events.publish(ctx, bookingEvent(model.EventBookingExpired, b))
	}
	n := len(expired)

	lapsed, err := s.store.ListLapsedAwaitingPayment(ctx, at, pollBatch)
	if err != nil {
		return n, err
	}
	for _, b := range lapsed {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		if s.payments != nil {
			got, err := s.reconcile(ctx, b)
			if err != nil {
				// left pending for the next run
				s.log.Warn("expiry check failed", "reference", b.Reference, "error", err)
				continue
			}
			if got.Status != model.BookingPendingPayment {
				continue
			}
		}
		if err := s.store.Transition(ctx, b.ID, model.BookingExpired, model.BookingPendingPayment); err != nil {
			if !errors.Is(err, repository.ErrConflict) {
				s.log.Warn("expire booking failed", "reference", b.Reference, "error", err)
			}
			continue
		}
		b.Status = model.BookingExpired
		s.events.publish(ctx, bookingEvent(model.EventBookingExpired, b))
		n++
	}
	return n, nil
}

// PollPending checks Square for pending bookings that already have an order
// and returns how many got confirmed.
func (s *BookingService) PollPending(ctx context.Context) (int, error) {
	if s.payments == nil {
		return 0, nil
	}
	pending, err := s.store.ListAwaitingPayment(ctx, s.now().UTC(), pollBatch)
	if err != nil {
		return 0, err
	}
	confirmed := 0
	for _, b := range pending {
		if ctx.Err() != nil {
			return confirmed, ctx.Err()
		}
		got, err := s.reconcile(ctx, b)
		if err != nil {
			s.log.Warn("payment poll failed", "reference", b.Reference, "error", err)
			continue
		}
		if got.Status == model.BookingConfirmed {
			confirmed++
		}
	}
	return confirmed, nil
}

func transitionErr(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return ErrInvalidTransition
	}
	return err
}

// idempotencyKey is stable per booking and action so a retried request
// never creates a second link or refund.
func idempotencyKey(action, ref string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(action+":"+ref)).String()
}

var _ BookingUseCase = (*BookingService)(nil)
