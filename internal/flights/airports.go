package flights

import (
	"sort"
	"strings"

	"github.com/iliyamo/michels-travel/internal/model"
)

var airports = []model.Airport{
	{Code: "AMS", Name: "Amsterdam Schiphol", City: "Amsterdam", Country: "NL"},
	{Code: "ATH", Name: "Athens International", City: "Athens", Country: "GR"},
	{Code: "ATL", Name: "Hartsfield-Jackson Atlanta", City: "Atlanta", Country: "US"},
	{Code: "BCN", Name: "Barcelona El Prat", City: "Barcelona", Country: "ES"},
	{Code: "BKK", Name: "Suvarnabhumi", City: "Bangkok", Country: "TH"},
	{Code: "BOD", Name: "Bordeaux Merignac", City: "Bordeaux", Country: "FR"},
	{Code: "BOS", Name: "Boston Logan", City: "Boston", Country: "US"},
	{Code: "BRU", Name: "Brussels", City: "Brussels", Country: "BE"},
	{Code: "CAI", Name: "Cairo International", City: "Cairo", Country: "EG"},
	{Code: "CDG", Name: "Paris Charles de Gaulle", City: "Paris", Country: "FR"},
	{Code: "CMN", Name: "Mohammed V", City: "Casablanca", Country: "MA"},
	{Code: "CPH", Name: "Copenhagen Kastrup", City: "Copenhagen", Country: "DK"},
	{Code: "CUN", Name: "Cancun International", City: "Cancun", Country: "MX"},
	{Code: "DFW", Name: "Dallas/Fort Worth", City: "Dallas", Country: "US"},
	{Code: "DOH", Name: "Hamad International", City: "Doha", Country: "QA"},
	{Code: "DUB", Name: "Dublin", City: "Dublin", Country: "IE"},
	{Code: "DXB", Name: "Dubai International", City: "Dubai", Country: "AE"},
	{Code: "FCO", Name: "Rome Fiumicino", City: "Rome", Country: "IT"},
	{Code: "FRA", Name: "Frankfurt", City: "Frankfurt", Country: "DE"},
	{Code: "GVA", Name: "Geneva", City: "Geneva", Country: "CH"},
	{Code: "HKG", Name: "Hong Kong International", City: "Hong Kong", Country: "HK"},
	{Code: "HND", Name: "Tokyo Haneda", City: "Tokyo", Country: "JP"},
	{Code: "IST", Name: "Istanbul", City: "Istanbul", Country: "TR"},
	{Code: "JFK", Name: "John F. Kennedy International", City: "New York", Country: "US"},
	{Code: "LAX", Name: "Los Angeles International", City: "Los Angeles", Country: "US"},
	{Code: "LGW", Name: "London Gatwick", City: "London", Country: "GB"},
	{Code: "LHR", Name: "London Heathrow", City: "London", Country: "GB"},
	{Code: "LIS", Name: "Lisbon Humberto Delgado", City: "Lisbon", Country: "PT"},
	{Code: "LYS", Name: "Lyon Saint-Exupery", City: "Lyon", Country: "FR"},
	{Code: "MAD", Name: "Madrid Barajas", City: "Madrid", Country: "ES"},
	{Code: "MIA", Name: "Miami International", City: "Miami", Country: "US"},
	{Code: "MRS", Name: "Marseille Provence", City: "Marseille", Country: "FR"},
	{Code: "MUC", Name: "Munich", City: "Munich", Country: "DE"},
	{Code: "MXP", Name: "Milan Malpensa", City: "Milan", Country: "IT"},
	{Code: "NCE", Name: "Nice Cote d'Azur", City: "Nice", Country: "FR"},
	{Code: "NRT", Name: "Tokyo Narita", City: "Tokyo", Country: "JP"},
	{Code: "ORD", Name: "Chicago O'Hare", City: "Chicago", Country: "US"},
	{Code: "ORY", Name: "Paris Orly", City: "Paris", Country: "FR"},
	{Code: "PPT", Name: "Faa'a International", City: "Papeete", Country: "PF"},
	{Code: "PTP", Name: "Pointe-a-Pitre", City: "Pointe-a-Pitre", Country: "GP"},
	{Code: "FDF", Name: "Martinique Aime Cesaire", City: "Fort-de-France", Country: "MQ"},
	{Code: "RUN", Name: "Roland Garros", City: "Saint-Denis", Country: "RE"},
	{Code: "SFO", Name: "San Francisco International", City: "San Francisco", Country: "US"},
	{Code: "SIN", Name: "Singapore Changi", City: "Singapore", Country: "SG"},
	{Code: "SYD", Name: "Sydney Kingsford Smith", City: "Sydney", Country: "AU"},
	{Code: "TLS", Name: "Toulouse Blagnac", City: "Toulouse", Country: "FR"},
	{Code: "TUN", Name: "Tunis-Carthage", City: "Tunis", Country: "TN"},
	{Code: "VIE", Name: "Vienna International", City: "Vienna", Country: "AT"},
	{Code: "YUL", Name: "Montreal Trudeau", City: "Montreal", Country: "CA"},
	{Code: "YYZ", Name: "Toronto Pearson", City: "Toronto", Country: "CA"},
	{Code: "ZRH", Name: "Zurich", City: "Zurich", Country: "CH"},
}

// LookupAirport returns the airport with the given IATA code.
func LookupAirport(code string) (model.Airport, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, a := range airports {
		if a.Code == code {
			return a, true
		}
	}
	return model.Airport{}, false
}

// SearchAirports matches q against codes, cities and names. Exact code
// matches come first, then code prefixes, then everything else by code.
func SearchAirports(q string, limit int) []model.Airport {
	q = strings.ToLower(strings.TrimSpace(q))
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	type hit struct {
		a    model.Airport
		rank int
	}
	var hits []hit
	for _, a := range airports {
		code := strings.ToLower(a.Code)
		switch {
		case q == "":
			hits = append(hits, hit{a, 2})
		case code == q:
			hits = append(hits, hit{a, 0})
		case strings.HasPrefix(code, q):
			hits = append(hits, hit{a, 1})
		case strings.Contains(strings.ToLower(a.City), q), strings.Contains(strings.ToLower(a.Name), q):
			hits = append(hits, hit{a, 2})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].a.Code < hits[j].a.Code
	})
	out := make([]model.Airport, 0, limit)
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, h.a)
	}
	return out
}
