package flights

import (
	"sort"
	"strings"

	"github.com/iliyamo/michels-travel/internal/model"
)

// Sort orders accepted by Apply.
const (
	SortPrice     = "price"
	SortDuration  = "duration"
	SortDeparture = "departure"
	SortArrival   = "arrival"
)

// Page size bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter narrows a result set. Nil pointers and empty slices mean "no
// constraint". Hours refer to the outbound local departure time.
type Filter struct {
	MaxPriceCents      *int64
	MaxStops           *int
	Airlines           []string
	DepartAfterHour    *int
	DepartBeforeHour   *int
	MaxDurationMinutes *int
}

// Options bundles filtering, ordering and pagination of a search.
type Options struct {
	Filter Filter
	SortBy string
	Limit  int
	Offset int
}

// ValidSort reports whether s names a supported order.
func ValidSort(s string) bool {
	switch s {
	case "", SortPrice, SortDuration, SortDeparture, SortArrival:
		return true
	}
	return false
}

// Match reports whether o satisfies every constraint of f.
func (f Filter) Match(o model.Offer) bool {
	if f.MaxPriceCents != nil && o.TotalAmountCents > *f.MaxPriceCents {
		return false
	}
	if f.MaxStops != nil && o.Stops() > *f.MaxStops {
		return false
	}
	if f.MaxDurationMinutes != nil && o.DurationMinutes() > *f.MaxDurationMinutes {
		return false
	}
	hour := o.Outbound().DepartureAt.Hour()
	if f.DepartAfterHour != nil && hour < *f.DepartAfterHour {
		return false
	}
	if f.DepartBeforeHour != nil && hour > *f.DepartBeforeHour {
		return false
	}
	if len(f.Airlines) > 0 && !anyAirline(o, f.Airlines) {
		return false
	}
	return true
}

func anyAirline(o model.Offer, wanted []string) bool {
	for _, code := range o.Airlines() {
		for _, w := range wanted {
			if strings.EqualFold(code, w) {
				return true
			}
		}
	}
	return false
}

// FilterOffers returns the offers matching f in their original order.
func FilterOffers(offers []model.Offer, f Filter) []model.Offer {
	out := make([]model.Offer, 0, len(offers))
	for _, o := range offers {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// SortOffers orders offers in place, ascending by the chosen key. Ties fall
// back to price then ID so the order is total and repeatable.
func SortOffers(offers []model.Offer, by string) {
	key := func(o model.Offer) int64 {
		switch by {
		case SortDuration:
			return int64(o.DurationMinutes())
		case SortDeparture:
			return o.Outbound().DepartureAt.Unix()
		case SortArrival:
			return o.Outbound().ArrivalAt.Unix()
		default:
			return o.TotalAmountCents
		}
	}
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]
		if ka, kb := key(a), key(b); ka != kb {
			return ka < kb
		}
		if a.TotalAmountCents != b.TotalAmountCents {
			return a.TotalAmountCents < b.TotalAmountCents
		}
		return a.ID < b.ID
	})
}

// Apply filters, sorts and pages offers. It returns the page and the number
// of offers that matched before paging.
func Apply(offers []model.Offer, opts Options) ([]model.Offer, int) {
	matched := FilterOffers(offers, opts.Filter)
	SortOffers(matched, opts.SortBy)

	total := len(matched)
	limit, offset := opts.Limit, opts.Offset
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []model.Offer{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total
}

// Cheapest returns the lowest priced offer, if any.
func Cheapest(offers []model.Offer) (model.Offer, bool) {
	if len(offers) == 0 {
		return model.Offer{}, false
	}
	best := offers[0]
	for _, o := range offers[1:] {
		if o.TotalAmountCents < best.TotalAmountCents ||
			(o.TotalAmountCents == best.TotalAmountCents && o.ID < best.ID) {
			best = o
		}
	}
	return best, true
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
