package service

import (
	"context"
	"time"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/queue"
)

const publishTimeout = 3 * time.Second

// events publishes domain events without ever failing the caller.
type events struct {
	pub queue.Publisher
	log *logger.Logger
}

func (e events) publish(ctx context.Context, ev model.Event) {
	if e.pub == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("publish event failed", "type", ev.Type, "reference", ev.BookingReference, "error", err)
	}
}

func bookingEvent(typ string, b model.Booking) model.Event {
	ev := model.Event{
		Type:             typ,
		BookingReference: b.Reference,
		Email:            b.ContactEmail,
		AmountCents:      b.TotalAmountCents,
		Currency:         b.Currency,
		Status:           string(b.Status),
		Origin:           b.Origin,
		Destination:      b.Destination,
	}
	if b.UserID != nil {
		ev.UserID = *b.UserID
	}
	return ev
}
