// Package notify turns domain events into customer e-mails. Delivery is a
// structured log line; a real mail transport can replace Sender later.
package notify

import (
	"context"
	"fmt"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/model"
)

// Message is a rendered e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogSender writes messages to the log instead of an SMTP server.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.log.Info("send email", "to", m.To, "subject", m.Subject, "body", m.Body)
	return nil
}

// Notifier renders events and hands them to a Sender.
type Notifier struct {
	sender Sender
	log    *logger.Logger
}

func NewNotifier(sender Sender, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Discard()
	}
	return &Notifier{sender: sender, log: log}
}

// Handle is a queue.Handler. Events without a recipient are skipped.
func (n *Notifier) Handle(ctx context.Context, ev model.Event) error {
	m, ok := Render(ev)
	if !ok {
		n.log.Debug("event has no email", "type", ev.Type)
		return nil
	}
	return n.sender.Send(ctx, m)
}

// Render builds the e-mail for ev. It reports false for event types that do
// not notify anyone or events without an address.
func Render(ev model.Event) (Message, bool) {
	if ev.Email == "" {
		return Message{}, false
	}
	amount := flights.FormatAmount(ev.AmountCents) + " " + ev.Currency
	m := Message{To: ev.Email}
	switch ev.Type {
	case model.EventUserRegistered:
		m.Subject = "Welcome to Michel's Travel"
		m.Body = "Your account is ready. Happy travels!"
	case model.EventBookingCreated:
		m.Subject = "Booking " + ev.BookingReference + " received"
		m.Body = fmt.Sprintf("Your booking %s-%s is on hold. Complete the payment of %s to confirm it.",
			ev.Origin, ev.Destination, amount)
	case model.EventBookingConfirmed:
		m.Subject = "Booking " + ev.BookingReference + " confirmed"
		m.Body = fmt.Sprintf("We received your payment of %s. Your flight %s-%s is confirmed.",
			amount, ev.Origin, ev.Destination)
	case model.EventBookingCancelled:
		m.Subject = "Booking " + ev.BookingReference + " cancelled"
		m.Body = "Your booking has been cancelled. No payment was taken."
	case model.EventBookingRefunded:
		m.Subject = "Booking " + ev.BookingReference + " refunded"
		m.Body = fmt.Sprintf("Your booking has been cancelled and %s is on its way back to you.", amount)
	case model.EventBookingExpired:
		m.Subject = "Booking " + ev.BookingReference + " expired"
		m.Body = "We did not receive your payment in time, so the booking has been released."
	case model.EventPriceAlertTriggered:
		m.Subject = fmt.Sprintf("Price drop %s-%s", ev.Origin, ev.Destination)
		m.Body = fmt.Sprintf("Flights %s-%s are now available from %s.", ev.Origin, ev.Destination, amount)
	default:
		return Message{}, false
	}
	return m, true
}
