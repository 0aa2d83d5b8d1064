package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/queue"
)

// MaxActiveAlerts caps the active price alerts per user.
const MaxActiveAlerts = 20

const sweepBatch = 500

type AlertStore interface {
	Create(ctx context.Context, a *model.PriceAlert) error
	CountActiveByUser(ctx context.Context, userID uint64) (int, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.PriceAlert, error)
	ListActive(ctx context.Context, limit int) ([]model.PriceAlert, error)
	GetForUser(ctx context.Context, id, userID uint64) (model.PriceAlert, error)
	Update(ctx context.Context, a model.PriceAlert) error
	Delete(ctx context.Context, id, userID uint64) error
	RecordCheck(ctx context.Context, id uint64, priceCents int64, checkedAt time.Time, triggered bool) error
	Deactivate(ctx context.Context, id uint64) error
}

// UserLookup resolves the recipient of an alert notification.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type AlertUseCase interface {
	Create(ctx context.Context, userID uint64, in AlertInput) (model.PriceAlert, error)
	List(ctx context.Context, userID uint64) ([]model.PriceAlert, error)
	Get(ctx context.Context, userID, id uint64) (model.PriceAlert, error)
	Update(ctx context.Context, userID, id uint64, in AlertUpdate) (model.PriceAlert, error)
	Delete(ctx context.Context, userID, id uint64) error
	Sweep(ctx context.Context) (SweepResult, error)
}

type AlertInput struct {
	Origin           string
	Destination      string
	DepartureDate    string
	ReturnDate       string
	CabinClass       string
	Adults           int
	TargetPriceCents int64
	Currency         string
}

// AlertUpdate changes the target price and/or switches an alert on or off.
type AlertUpdate struct {
	TargetPriceCents *int64
	IsActive         *bool
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Checked     int `json:"checked"`
	Triggered   int `json:"triggered"`
	Deactivated int `json:"deactivated"`
	Failed      int `json:"failed"`
}

type AlertService struct {
	store    AlertStore
	users    UserLookup
	search   flights.SearchUseCase
	currency string
	events   events
	log      *logger.Logger
	now      func() time.Time
}

func NewAlertService(store AlertStore, users UserLookup, search flights.SearchUseCase, currency string, pub queue.Publisher, log *logger.Logger) *AlertService {
	if log == nil {
		log = logger.Discard()
	}
	if currency == "" {
		currency = "EUR"
	}
	return &AlertService{
		store: store, users: users, search: search, currency: strings.ToUpper(currency),
		events: events{pub: pub, log: log}, log: log, now: time.Now,
	}
}

func (s *AlertService) Create(ctx context.Context, userID uint64, in AlertInput) (model.PriceAlert, error) {
	bad := fields{}
	q := flights.Query{
		Origin:      in.Origin,
		Destination: in.Destination,
		Adults:      in.Adults,
		CabinClass:  in.CabinClass,
	}
	dep, err := flights.ParseDate(in.DepartureDate)
	if err != nil {
		bad.add("departure_date", "must be a date (YYYY-MM-DD)")
	}
	q.DepartureDate = dep
	if strings.TrimSpace(in.ReturnDate) != "" {
		ret, err := flights.ParseDate(in.ReturnDate)
		if err != nil {
			bad.add("return_date", "must be a date (YYYY-MM-DD)")
		} else {
			q.ReturnDate = &ret
		}
	}
	q.Normalize()
	if err := q.Validate(s.now()); err != nil {
		var ve *flights.ValidationError
		if errors.As(err, &ve) {
			for k, v := range ve.Fields {
				bad.add(k, v)
			}
		}
	}
	if in.TargetPriceCents <= 0 {
		bad.add("target_price_cents", "must be greater than zero")
	}
	cur := strings.ToUpper(strings.TrimSpace(in.Currency))
	if cur == "" {
		cur = s.currency
	}
	if len(cur) != 3 {
		bad.add("currency", "must be a 3-letter currency code")
	}
	if err := bad.err(); err != nil {
		return model.PriceAlert{}, err
	}

	if err := s.checkLimit(ctx, userID); err != nil {
		return model.PriceAlert{}, err
	}
	a := model.PriceAlert{
		UserID:           userID,
		Origin:           q.Origin,
		Destination:      q.Destination,
		DepartureDate:    q.DepartureDate,
		ReturnDate:       q.ReturnDate,
		CabinClass:       q.CabinClass,
		Adults:           q.Adults,
		TargetPriceCents: in.TargetPriceCents,
		Currency:         cur,
		CreatedAt:        s.now().UTC(),
		UpdatedAt:        s.now().UTC(),
	}
	if err := s.store.Create(ctx, &a); err != nil {
		return model.PriceAlert{}, err
	}
	return a, nil
}

func (s *AlertService) checkLimit(ctx context.Context, userID uint64) error {
	n, err := s.store.CountActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	if n >= MaxActiveAlerts {
		return ErrAlertLimit
	}
	return nil
}

func (s *AlertService) List(ctx context.Context, userID uint64) ([]model.PriceAlert, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *AlertService) Get(ctx context.Context, userID, id uint64) (model.PriceAlert, error) {
	return s.store.GetForUser(ctx, id, userID)
}

func (s *AlertService) Update(ctx context.Context, userID, id uint64, in AlertUpdate) (model.PriceAlert, error) {
	a, err := s.store.GetForUser(ctx, id, userID)
	if err != nil {
		return model.PriceAlert{}, err
	}
	if in.TargetPriceCents != nil {
		if *in.TargetPriceCents <= 0 {
			return model.PriceAlert{}, &ValidationError{Fields: map[string]string{"target_price_cents": "must be greater than zero"}}
		}
		a.TargetPriceCents = *in.TargetPriceCents
	}
	if in.IsActive != nil {
		if *in.IsActive && !a.IsActive {
			if err := s.checkLimit(ctx, userID); err != nil {
				return model.PriceAlert{}, err
			}
		}
		a.IsActive = *in.IsActive
	}
	if err := s.store.Update(ctx, a); err != nil {
		return model.PriceAlert{}, err
	}
	return a, nil
}

func (s *AlertService) Delete(ctx context.Context, userID, id uint64) error {
	return s.store.Delete(ctx, id, userID)
}

// Sweep re-prices every active alert. Alerts whose departure has passed are
// switched off. An alert fires when the cheapest fare reaches its target for
// the first time, or drops below the last fare seen after that.
func (s *AlertService) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	alerts, err := s.store.ListActive(ctx, sweepBatch)
	if err != nil {
		return res, err
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, a := range alerts {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if a.DepartureDate.Before(today) {
			if err := s.store.Deactivate(ctx, a.ID); err != nil {
				s.log.Warn("deactivate alert failed", "alert_id", a.ID, "error", err)
				res.Failed++
				continue
			}
			res.Deactivated++
			continue
		}

		offer, ok, err := s.search.Cheapest(ctx, alertQuery(a))
		if err != nil {
			s.log.Warn("price alert search failed", "alert_id", a.ID, "error", err)
			res.Failed++
			continue
		}
		res.Checked++
		if !ok {
			continue
		}
		price := offer.TotalAmountCents
		fire := price <= a.TargetPriceCents &&
			(a.TriggeredAt == nil || (a.LastPriceCents != nil && price < *a.LastPriceCents))
		if err := s.store.RecordCheck(ctx, a.ID, price, now, fire); err != nil {
			s.log.Warn("record alert check failed", "alert_id", a.ID, "error", err)
			res.Failed++
			continue
		}
		if fire {
			res.Triggered++
			s.notify(ctx, a, offer)
		}
	}
	return res, nil
}

func (s *AlertService) notify(ctx context.Context, a model.PriceAlert, o model.Offer) {
	ev := model.Event{
		Type:        model.EventPriceAlertTriggered,
		UserID:      a.UserID,
		AlertID:     a.ID,
		AmountCents: o.TotalAmountCents,
		Currency:    o.Currency,
		Origin:      a.Origin,
		Destination: a.Destination,
	}
	if s.users != nil {
		u, err := s.users.GetByID(ctx, a.UserID)
		if err != nil {
			s.log.Warn("load alert owner failed", "alert_id", a.ID, "error", err)
		} else {
			ev.Email = u.Email
		}
	}
	s.events.publish(ctx, ev)
}

func alertQuery(a model.PriceAlert) flights.Query {
	return flights.Query{
		Origin:        a.Origin,
		Destination:   a.Destination,
		DepartureDate: a.DepartureDate,
		ReturnDate:    a.ReturnDate,
		Adults:        a.Adults,
		CabinClass:    a.CabinClass,
	}
}

var _ AlertUseCase = (*AlertService)(nil)
