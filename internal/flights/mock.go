package flights

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/michels-travel/internal/model"
)

type carrier struct{ code, name string }

var mockCarriers = []carrier{
	{"AF", "Air France"}, {"KL", "KLM"}, {"LH", "Lufthansa"}, {"BA", "British Airways"},
	{"DL", "Delta Air Lines"}, {"UA", "United Airlines"}, {"AA", "American Airlines"}, {"EK", "Emirates"},
	{"QR", "Qatar Airways"}, {"TP", "TAP Air Portugal"}, {"IB", "Iberia"}, {"AC", "Air Canada"},
}

var mockHubs = []string{"CDG", "AMS", "FRA", "LHR", "ATL", "ORD", "DFW", "DXB", "DOH", "LIS", "MAD", "YUL"}

var cabinFactor = map[string]float64{
	model.CabinEconomy:        1.0,
	model.CabinPremiumEconomy: 1.6,
	model.CabinBusiness:       3.2,
	model.CabinFirst:          5.0,
}

// MockProvider generates plausible offers without any network access. The
// same query always yields the same offers, and offer IDs embed the query so
// GetOffer can rebuild an offer without keeping state.
type MockProvider struct {
	currency string
}

// NewMockProvider returns a provider pricing offers in currency.
func NewMockProvider(currency string) *MockProvider {
	if currency == "" {
		currency = "EUR"
	}
	return &MockProvider{currency: currency}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Search(ctx context.Context, q Query) ([]model.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := offerCount(q)
	offers := make([]model.Offer, 0, n)
	for i := 0; i < n; i++ {
		offers = append(offers, p.build(q, i))
	}
	return offers, nil
}

func (p *MockProvider) GetOffer(ctx context.Context, id string) (model.Offer, error) {
	if err := ctx.Err(); err != nil {
		return model.Offer{}, err
	}
	parts := strings.SplitN(id, ".", 3)
	if len(parts) != 3 || parts[0] != "mock" {
		return model.Offer{}, ErrOfferNotFound
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.Offer{}, ErrOfferNotFound
	}
	q, ok := canonicalQuery(parts[2])
	if !ok || idx < 0 || idx >= offerCount(q) {
		return model.Offer{}, ErrOfferNotFound
	}
	return p.build(q, idx), nil
}

// canonicalQuery accepts only keys that a validated search could have
// produced, so an offer ID cannot be edited into a different price.
func canonicalQuery(key string) (Query, bool) {
	q, err := ParseKey(key)
	if err != nil {
		return Query{}, false
	}
	q.Normalize()
	if q.Key() != key {
		return Query{}, false
	}
	// past departures are not rejected here; they come back as expired offers
	if err := q.Validate(q.DepartureDate); err != nil {
		return Query{}, false
	}
	return q, true
}

func offerCount(q Query) int {
	return 8 + seeded(q.Key()).IntN(7)
}

func (p *MockProvider) build(q Query, idx int) model.Offer {
	key := q.Key()
	r := seeded(key + "#" + strconv.Itoa(idx))
	c := mockCarriers[r.IntN(len(mockCarriers))]
	stops := r.IntN(3)

	out := mockSlice(r, q.Origin, q.Destination, q.DepartureDate, c, stops)
	slices := []model.Slice{out}
	if q.ReturnDate != nil {
		slices = append(slices, mockSlice(r, q.Destination, q.Origin, *q.ReturnDate, c, stops))
	}

	perSeat := float64(4000+routeMinutes(q.Origin, q.Destination)*12) * cabinFactor[q.CabinClass]
	perSeat *= 1 - 0.08*float64(stops)
	perSeat *= 0.85 + r.Float64()*0.4
	if q.ReturnDate != nil {
		perSeat *= 1.8
	}
	total := perSeat*float64(q.Adults) + perSeat*0.75*float64(q.Children) + perSeat*0.1*float64(q.Infants)

	return model.Offer{
		ID:               "mock." + strconv.Itoa(idx) + "." + key,
		Provider:         p.Name(),
		TotalAmountCents: int64(math.Round(total/100)) * 100,
		Currency:         p.currency,
		CabinClass:       q.CabinClass,
		ExpiresAt:        out.DepartureAt.Add(-3 * time.Hour),
		Slices:           slices,
	}
}

func mockSlice(r *rand.Rand, from, to string, day time.Time, c carrier, stops int) model.Slice {
	points := append([]string{from}, pickHubs(r, from, to, stops)...)
	points = append(points, to)

	legs := len(points) - 1
	legMinutes := routeMinutes(from, to)/legs + 20*(legs-1)
	cursor := day.Add(time.Duration(5*60+r.IntN(17*12)*5) * time.Minute)

	s := model.Slice{Origin: from, Destination: to, DepartureAt: cursor}
	for i := 0; i < legs; i++ {
		arr := cursor.Add(time.Duration(legMinutes) * time.Minute)
		s.Segments = append(s.Segments, model.Segment{
			Origin:          points[i],
			Destination:     points[i+1],
			DepartureAt:     cursor,
			ArrivalAt:       arr,
			CarrierCode:     c.code,
			CarrierName:     c.name,
			FlightNumber:    c.code + strconv.Itoa(100+r.IntN(8900)),
			DurationMinutes: legMinutes,
		})
		cursor = arr
		if i < legs-1 {
			cursor = cursor.Add(time.Duration(45+r.IntN(28)*5) * time.Minute)
		}
	}
	s.ArrivalAt = cursor
	s.DurationMinutes = int(s.ArrivalAt.Sub(s.DepartureAt).Minutes())
	return s
}

func pickHubs(r *rand.Rand, from, to string, n int) []string {
	var out []string
	for _, i := range r.Perm(len(mockHubs)) {
		if len(out) == n {
			break
		}
		h := mockHubs[i]
		if h != from && h != to {
			out = append(out, h)
		}
	}
	return out
}

// routeMinutes is a stable pseudo flight time for a city pair, identical in
// both directions.
func routeMinutes(a, b string) int {
	if a > b {
		a, b = b, a
	}
	return 55 + int(hash64(a+b)%660)
}

func seeded(s string) *rand.Rand {
	h := hash64(s)
	return rand.New(rand.NewPCG(h, h>>1|1))
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
