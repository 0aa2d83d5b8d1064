package model

import "time"

// Cabin classes accepted by search and price alerts.
const (
	CabinEconomy        = "economy"
	CabinPremiumEconomy = "premium_economy"
	CabinBusiness       = "business"
	CabinFirst          = "first"
)

// ValidCabin reports whether c is a known cabin class.
func ValidCabin(c string) bool {
	switch c {
	case CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst:
		return true
	}
	return false
}

// Offer is a priced itinerary returned by a flight provider. Slices[0] is
// the outbound journey; a round trip carries a second slice.
type Offer struct {
	ID               string    `json:"id"`
	Provider         string    `json:"provider"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Currency         string    `json:"currency"`
	CabinClass       string    `json:"cabin_class"`
	ExpiresAt        time.Time `json:"expires_at"`
	Slices           []Slice   `json:"slices"`
}

// Slice is one direction of travel made of one or more segments.
type Slice struct {
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	DepartureAt     time.Time `json:"departure_at"`
	ArrivalAt       time.Time `json:"arrival_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Segments        []Segment `json:"segments"`
}

// Segment is a single flight leg.
type Segment struct {
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	DepartureAt     time.Time `json:"departure_at"`
	ArrivalAt       time.Time `json:"arrival_at"`
	CarrierCode     string    `json:"carrier_code"`
	CarrierName     string    `json:"carrier_name"`
	FlightNumber    string    `json:"flight_number"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Outbound returns the first slice, or the zero Slice for a malformed offer.
func (o Offer) Outbound() Slice {
	if len(o.Slices) == 0 {
		return Slice{}
	}
	return o.Slices[0]
}

// Stops is the highest number of connections across all slices.
func (o Offer) Stops() int {
	most := 0
	for _, s := range o.Slices {
		if n := len(s.Segments) - 1; n > most {
			most = n
		}
	}
	return most
}

// DurationMinutes sums the duration of every slice.
func (o Offer) DurationMinutes() int {
	total := 0
	for _, s := range o.Slices {
		total += s.DurationMinutes
	}
	return total
}

// Carrier returns the marketing carrier of the first outbound segment.
func (o Offer) Carrier() Segment {
	out := o.Outbound()
	if len(out.Segments) == 0 {
		return Segment{}
	}
	return out.Segments[0]
}

// Airlines lists the distinct carrier codes used by the offer.
func (o Offer) Airlines() []string {
	seen := map[string]bool{}
	var codes []string
	for _, s := range o.Slices {
		for _, seg := range s.Segments {
			if !seen[seg.CarrierCode] {
				seen[seg.CarrierCode] = true
				codes = append(codes, seg.CarrierCode)
			}
		}
	}
	return codes
}

// Expired reports whether the offer can no longer be booked at now.
func (o Offer) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && !now.Before(o.ExpiresAt)
}

// Airport is an entry of the embedded airport directory.
type Airport struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}
