package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingConfirmed      BookingStatus = "CONFIRMED"
	BookingCancelled      BookingStatus = "CANCELLED"
	BookingExpired        BookingStatus = "EXPIRED"
	BookingRefunded       BookingStatus = "REFUNDED"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPendingPayment, BookingConfirmed, BookingCancelled, BookingExpired, BookingRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingExpired || s == BookingRefunded
}

// Booking mirrors a row in the `bookings` table together with its passengers.
// UserID is nil for guest checkouts. The flight summary columns are a
// snapshot of the offer at booking time; the offer itself is not stored.
type Booking struct {
	ID                uint64        `json:"-"`
	Reference         string        `json:"reference"`
	UserID            *uint64       `json:"user_id,omitempty"`
	OfferID           string        `json:"offer_id"`
	Provider          string        `json:"provider"`
	Origin            string        `json:"origin"`
	Destination       string        `json:"destination"`
	DepartureAt       time.Time     `json:"departure_at"`
	ArrivalAt         time.Time     `json:"arrival_at"`
	ReturnDepartureAt *time.Time    `json:"return_departure_at,omitempty"`
	AirlineCode       string        `json:"airline_code"`
	AirlineName       string        `json:"airline_name"`
	FlightNumber      string        `json:"flight_number"`
	CabinClass        string        `json:"cabin_class"`
	TotalAmountCents  int64         `json:"total_amount_cents"`
	Currency          string        `json:"currency"`
	Status            BookingStatus `json:"status"`
	ContactEmail      string        `json:"contact_email"`
	ContactPhone      string        `json:"contact_phone,omitempty"`
	PaymentLinkID     string        `json:"-"`
	PaymentURL        string        `json:"payment_url,omitempty"`
	PaymentOrderID    string        `json:"-"`
	PaymentID         string        `json:"payment_id,omitempty"`
	RefundID          string        `json:"refund_id,omitempty"`
	ExpiresAt         time.Time     `json:"expires_at"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	Passengers        []Passenger   `json:"passengers,omitempty"`
}

// OwnedBy reports whether the booking belongs to the given user.
func (b Booking) OwnedBy(userID uint64) bool {
	return b.UserID != nil && *b.UserID == userID
}

// Passenger types.
const (
	PassengerAdult  = "adult"
	PassengerChild  = "child"
	PassengerInfant = "infant"
)

// Passenger mirrors a row in the `passengers` table.
type Passenger struct {
	ID             uint64    `json:"id"`
	BookingID      uint64    `json:"-"`
	Type           string    `json:"type"`
	Title          string    `json:"title,omitempty"`
	GivenName      string    `json:"given_name"`
	FamilyName     string    `json:"family_name"`
	BornOn         time.Time `json:"born_on"`
	Gender         string    `json:"gender,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	LoyaltyAirline string    `json:"loyalty_airline,omitempty"`
	LoyaltyNumber  string    `json:"loyalty_number,omitempty"`
	CreatedAt      time.Time `json:"-"`
}
