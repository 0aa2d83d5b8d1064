package flights

import (
	"context"
	"time"

	"github.com/iliyamo/michels-travel/internal/logger"
	"github.com/iliyamo/michels-travel/internal/model"
)

// Cache stores provider results between requests. A miss is reported as
// found=false with a nil error.
type Cache interface {
	GetOffers(ctx context.Context, key string) ([]model.Offer, bool, error)
	SetOffers(ctx context.Context, key string, offers []model.Offer, ttl time.Duration) error
	GetOffer(ctx context.Context, id string) (model.Offer, bool, error)
	SetOffer(ctx context.Context, offer model.Offer, ttl time.Duration) error
}

// SearchUseCase is what the HTTP layer, bookings and price alerts need from
// flight search.
type SearchUseCase interface {
	Search(ctx context.Context, q Query, opts Options) (Result, error)
	Offer(ctx context.Context, id string) (model.Offer, error)
	Cheapest(ctx context.Context, q Query) (model.Offer, bool, error)
}

// Result is one page of search results.
type Result struct {
	Offers []model.Offer `json:"offers"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Service runs searches against a Provider with an optional cache in front.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

type ServiceOption func(*Service)

// WithCache enables caching of search results and offers for ttl.
func WithCache(c Cache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *logger.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(p Provider, opts ...ServiceOption) *Service {
	s := &Service{provider: p, log: logger.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProviderName reports which provider backs the service.
func (s *Service) ProviderName() string { return s.provider.Name() }

// Search validates q, fetches offers and applies filters, ordering and paging.
// Offers that have already expired are never returned.
func (s *Service) Search(ctx context.Context, q Query, opts Options) (Result, error) {
	q.Normalize()
	if err := q.Validate(s.now()); err != nil {
		return Result{}, err
	}
	offers, err := s.fetch(ctx, q)
	if err != nil {
		return Result{}, err
	}
	page, total := Apply(offers, opts)

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	return Result{Offers: page, Total: total, Limit: limit, Offset: offset}, nil
}

// Cheapest returns the lowest priced bookable offer for q.
func (s *Service) Cheapest(ctx context.Context, q Query) (model.Offer, bool, error) {
	q.Normalize()
	if err := q.Validate(s.now()); err != nil {
		return model.Offer{}, false, err
	}
	offers, err := s.fetch(ctx, q)
	if err != nil {
		return model.Offer{}, false, err
	}
	o, ok := Cheapest(offers)
	return o, ok, nil
}

// Offer returns a bookable offer by ID. Expired offers yield ErrOfferExpired.
func (s *Service) Offer(ctx context.Context, id string) (model.Offer, error) {
	if s.cache != nil {
		o, ok, err := s.cache.GetOffer(ctx, id)
		if err != nil {
			s.log.Warn("offer cache read failed", "offer_id", id, "error", err)
		}
		if ok {
			return s.checkExpiry(o)
		}
	}
	o, err := s.provider.GetOffer(ctx, id)
	if err != nil {
		return model.Offer{}, err
	}
	if s.cache != nil {
		if err := s.cache.SetOffer(ctx, o, s.ttl); err != nil {
			s.log.Warn("offer cache write failed", "offer_id", id, "error", err)
		}
	}
	return s.checkExpiry(o)
}

func (s *Service) checkExpiry(o model.Offer) (model.Offer, error) {
	if o.Expired(s.now()) {
		return model.Offer{}, ErrOfferExpired
	}
	return o, nil
}

func (s *Service) fetch(ctx context.Context, q Query) ([]model.Offer, error) {
	key := s.provider.Name() + ":" + q.Key()
	var offers []model.Offer
	cached := false
	if s.cache != nil {
		o, ok, err := s.cache.GetOffers(ctx, key)
		if err != nil {
			s.log.Warn("search cache read failed", "key", key, "error", err)
		}
		offers, cached = o, ok
	}
	if !cached {
		var err error
		offers, err = s.provider.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetOffers(ctx, key, offers, s.ttl); err != nil {
				s.log.Warn("search cache write failed", "key", key, "error", err)
			}
			for _, o := range offers {
				if err := s.cache.SetOffer(ctx, o, s.ttl); err != nil {
					s.log.Warn("offer cache write failed", "offer_id", o.ID, "error", err)
					break
				}
			}
		}
	}

	now := s.now()
	live := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if !o.Expired(now) {
			live = append(live, o)
		}
	}
	return live, nil
}

var _ SearchUseCase = (*Service)(nil)
