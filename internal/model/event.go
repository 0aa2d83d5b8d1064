package model

import "time"

// Event types published on the broker.
const (
	EventBookingCreated      = "booking.created"
	EventBookingConfirmed    = "booking.confirmed"
	EventBookingCancelled    = "booking.cancelled"
	EventBookingRefunded     = "booking.refunded"
	EventBookingExpired      = "booking.expired"
	EventPriceAlertTriggered = "price_alert.triggered"
	EventUserRegistered      = "user.registered"
)

// Event is the envelope carried on the broker for every domain event.
type Event struct {
	Type             string    `json:"type"`
	OccurredAt       time.Time `json:"occurred_at"`
	BookingReference string    `json:"booking_reference,omitempty"`
	UserID           uint64    `json:"user_id,omitempty"`
	Email            string    `json:"email,omitempty"`
	AmountCents      int64     `json:"amount_cents,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	Status           string    `json:"status,omitempty"`
	Origin           string    `json:"origin,omitempty"`
	Destination      string    `json:"destination,omitempty"`
	AlertID          uint64    `json:"alert_id,omitempty"`
}
