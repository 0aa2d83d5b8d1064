package flights

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/michels-travel/internal/model"
)

// DateLayout is the wire format of departure and return dates.
const DateLayout = "2006-01-02"

// MaxPassengers is the seat-holding passenger limit per search or booking.
const MaxPassengers = 9

// Query describes one flight search. Dates are calendar days in UTC.
type Query struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Adults        int
	Children      int
	Infants       int
	CabinClass    string
}

// ValidationError reports every invalid field of a query.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		keys = append(keys, k+": "+v)
	}
	return "invalid search: " + strings.Join(sortedStrings(keys), "; ")
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Normalize upper-cases airport codes, lower-cases the cabin and fills in the
// defaults for omitted fields.
func (q *Query) Normalize() {
	q.Origin = strings.ToUpper(strings.TrimSpace(q.Origin))
	q.Destination = strings.ToUpper(strings.TrimSpace(q.Destination))
	q.CabinClass = strings.ToLower(strings.TrimSpace(q.CabinClass))
	if q.CabinClass == "" {
		q.CabinClass = model.CabinEconomy
	}
	if q.Adults == 0 && q.Children == 0 && q.Infants == 0 {
		q.Adults = 1
	}
	q.DepartureDate = truncateDay(q.DepartureDate)
	if q.ReturnDate != nil {
		d := truncateDay(*q.ReturnDate)
		q.ReturnDate = &d
	}
}

// Validate checks the query against the calendar day of now.
func (q Query) Validate(now time.Time) error {
	fields := map[string]string{}
	if !IsIATACode(q.Origin) {
		fields["origin"] = "must be a 3-letter IATA code"
	}
	if !IsIATACode(q.Destination) {
		fields["destination"] = "must be a 3-letter IATA code"
	}
	if q.Origin != "" && q.Origin == q.Destination {
		fields["destination"] = "must differ from origin"
	}
	today := truncateDay(now.UTC())
	switch {
	case q.DepartureDate.IsZero():
		fields["departure_date"] = "is required"
	case q.DepartureDate.Before(today):
		fields["departure_date"] = "must not be in the past"
	}
	if q.ReturnDate != nil && q.ReturnDate.Before(q.DepartureDate) {
		fields["return_date"] = "must not be before departure_date"
	}
	if q.Adults < 1 || q.Adults > MaxPassengers {
		fields["adults"] = "must be between 1 and 9"
	}
	if q.Children < 0 || q.Children > MaxPassengers-1 {
		fields["children"] = "must be between 0 and 8"
	}
	if q.Adults+q.Children > MaxPassengers {
		fields["passengers"] = "adults and children together must not exceed 9"
	}
	if q.Infants < 0 || q.Infants > q.Adults {
		fields["infants"] = "must not exceed the number of adults"
	}
	if !model.ValidCabin(q.CabinClass) {
		fields["cabin_class"] = "must be economy, premium_economy, business or first"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Key is a stable representation of the query used for cache keys and
// deterministic mock data.
func (q Query) Key() string {
	ret := "-"
	if q.ReturnDate != nil {
		ret = q.ReturnDate.Format(DateLayout)
	}
	return strings.Join([]string{
		q.Origin, q.Destination, q.DepartureDate.Format(DateLayout), ret,
		strconv.Itoa(q.Adults), strconv.Itoa(q.Children), strconv.Itoa(q.Infants), q.CabinClass,
	}, "_")
}

// ParseKey reverses Key.
func ParseKey(key string) (Query, error) {
	parts := strings.Split(key, "_")
	// cabin classes may contain an underscore (premium_economy)
	if len(parts) < 8 {
		return Query{}, fmt.Errorf("malformed query key %q", key)
	}
	var q Query
	q.Origin, q.Destination = parts[0], parts[1]
	dep, err := time.Parse(DateLayout, parts[2])
	if err != nil {
		return Query{}, err
	}
	q.DepartureDate = dep
	if parts[3] != "-" {
		ret, err := time.Parse(DateLayout, parts[3])
		if err != nil {
			return Query{}, err
		}
		q.ReturnDate = &ret
	}
	nums := make([]int, 3)
	for i := range nums {
		n, err := strconv.Atoi(parts[4+i])
		if err != nil {
			return Query{}, err
		}
		nums[i] = n
	}
	q.Adults, q.Children, q.Infants = nums[0], nums[1], nums[2]
	q.CabinClass = strings.Join(parts[7:], "_")
	return q, nil
}

// IsIATACode reports whether s is three upper-case ASCII letters.
func IsIATACode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
