package flights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"

	"github.com/iliyamo/michels-travel/internal/model"
)

// duffelTimeLayout is the local wall-clock format of segment times.
const duffelTimeLayout = "2006-01-02T15:04:05"

// childAge is sent for every child passenger; the API prices by age.
const childAge = 8

// DuffelProvider searches the Duffel Flights API.
type DuffelProvider struct {
	baseURL string
	token   string
	version string
	client  *http.Client
}

// NewDuffelProvider builds a client. A nil httpClient gets one with timeout.
func NewDuffelProvider(baseURL, token, version string, timeout time.Duration, httpClient *http.Client) *DuffelProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &DuffelProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		version: version,
		client:  httpClient,
	}
}

func (p *DuffelProvider) Name() string { return "duffel" }

// APIError is a non-2xx answer from the Duffel API.
type APIError struct {
	Status int
	Errors []struct {
		Code    string `json:"code"`
		Title   string `json:"title"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("duffel: %d %s: %s", e.Status, e.Errors[0].Code, e.Errors[0].Message)
	}
	return fmt.Sprintf("duffel: unexpected status %d", e.Status)
}

type duffelPlace struct {
	IATACode string `json:"iata_code"`
}

type duffelCarrier struct {
	IATACode string `json:"iata_code"`
	Name     string `json:"name"`
}

type duffelSegment struct {
	Origin                       duffelPlace   `json:"origin"`
	Destination                  duffelPlace   `json:"destination"`
	DepartingAt                  string        `json:"departing_at"`
	ArrivingAt                   string        `json:"arriving_at"`
	Duration                     string        `json:"duration"`
	MarketingCarrier             duffelCarrier `json:"marketing_carrier"`
	MarketingCarrierFlightNumber string        `json:"marketing_carrier_flight_number"`
	Passengers                   []struct {
		CabinClass string `json:"cabin_class"`
	} `json:"passengers"`
}

type duffelSlice struct {
	Origin      duffelPlace     `json:"origin"`
	Destination duffelPlace     `json:"destination"`
	Duration    string          `json:"duration"`
	Segments    []duffelSegment `json:"segments"`
}

type duffelOffer struct {
	ID            string        `json:"id"`
	TotalAmount   string        `json:"total_amount"`
	TotalCurrency string        `json:"total_currency"`
	ExpiresAt     time.Time     `json:"expires_at"`
	Slices        []duffelSlice `json:"slices"`
}

type offerRequestSlice struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
}

type offerRequestBody struct {
	Data struct {
		Slices     []offerRequestSlice `json:"slices"`
		Passengers []map[string]any    `json:"passengers"`
		CabinClass string              `json:"cabin_class"`
	} `json:"data"`
}

// Search creates an offer request and returns its offers.
func (p *DuffelProvider) Search(ctx context.Context, q Query) ([]model.Offer, error) {
	var body offerRequestBody
	body.Data.Slices = append(body.Data.Slices,
		offerRequestSlice{q.Origin, q.Destination, q.DepartureDate.Format(DateLayout)})
	if q.ReturnDate != nil {
		body.Data.Slices = append(body.Data.Slices,
			offerRequestSlice{q.Destination, q.Origin, q.ReturnDate.Format(DateLayout)})
	}
	for i := 0; i < q.Adults; i++ {
		body.Data.Passengers = append(body.Data.Passengers, map[string]any{"type": "adult"})
	}
	for i := 0; i < q.Children; i++ {
		body.Data.Passengers = append(body.Data.Passengers, map[string]any{"age": childAge})
	}
	for i := 0; i < q.Infants; i++ {
		body.Data.Passengers = append(body.Data.Passengers, map[string]any{"type": "infant_without_seat"})
	}
	body.Data.CabinClass = q.CabinClass

	var resp struct {
		Data struct {
			Offers []duffelOffer `json:"offers"`
		} `json:"data"`
	}
	if err := p.do(ctx, http.MethodPost, "/air/offer_requests?return_offers=true", body, &resp); err != nil {
		return nil, err
	}

	offers := make([]model.Offer, 0, len(resp.Data.Offers))
	for _, o := range resp.Data.Offers {
		offer, err := p.convert(o, q.CabinClass)
		if err != nil {
			continue // skip malformed offers
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// GetOffer fetches a single offer with its current price.
func (p *DuffelProvider) GetOffer(ctx context.Context, id string) (model.Offer, error) {
	var resp struct {
		Data duffelOffer `json:"data"`
	}
	err := p.do(ctx, http.MethodGet, "/air/offers/"+url.PathEscape(id), nil, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return model.Offer{}, ErrOfferNotFound
		}
		return model.Offer{}, err
	}
	return p.convert(resp.Data, "")
}

func (p *DuffelProvider) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("duffel: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("duffel: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Duffel-Version", p.version)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("duffel: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("duffel: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("duffel: decode response: %w", err)
	}
	return nil
}

func (p *DuffelProvider) convert(o duffelOffer, cabin string) (model.Offer, error) {
	cents, err := ParseAmount(o.TotalAmount)
	if err != nil {
		return model.Offer{}, err
	}
	offer := model.Offer{
		ID:               o.ID,
		Provider:         p.Name(),
		TotalAmountCents: cents,
		Currency:         strings.ToUpper(o.TotalCurrency),
		CabinClass:       cabin,
		ExpiresAt:        o.ExpiresAt,
	}
	for _, ds := range o.Slices {
		s := model.Slice{Origin: ds.Origin.IATACode, Destination: ds.Destination.IATACode}
		for _, dseg := range ds.Segments {
			dep, err := time.ParseInLocation(duffelTimeLayout, dseg.DepartingAt, time.UTC)
			if err != nil {
				return model.Offer{}, err
			}
			arr, err := time.ParseInLocation(duffelTimeLayout, dseg.ArrivingAt, time.UTC)
			if err != nil {
				return model.Offer{}, err
			}
			if offer.CabinClass == "" && len(dseg.Passengers) > 0 {
				offer.CabinClass = dseg.Passengers[0].CabinClass
			}
			mins, _ := ParseISODuration(dseg.Duration)
			s.Segments = append(s.Segments, model.Segment{
				Origin:          dseg.Origin.IATACode,
				Destination:     dseg.Destination.IATACode,
				DepartureAt:     dep,
				ArrivalAt:       arr,
				CarrierCode:     dseg.MarketingCarrier.IATACode,
				CarrierName:     dseg.MarketingCarrier.Name,
				FlightNumber:    dseg.MarketingCarrier.IATACode + dseg.MarketingCarrierFlightNumber,
				DurationMinutes: mins,
			})
		}
		if len(s.Segments) == 0 {
			return model.Offer{}, fmt.Errorf("duffel: offer %s has an empty slice", o.ID)
		}
		s.DepartureAt = s.Segments[0].DepartureAt
		s.ArrivalAt = s.Segments[len(s.Segments)-1].ArrivalAt
		if mins, err := ParseISODuration(ds.Duration); err == nil && mins > 0 {
			s.DurationMinutes = mins
		} else {
			// wall-clock times are local, so this is only an estimate across time zones
			s.DurationMinutes = int(s.ArrivalAt.Sub(s.DepartureAt).Minutes())
		}
		offer.Slices = append(offer.Slices, s)
	}
	if len(offer.Slices) == 0 {
		return model.Offer{}, fmt.Errorf("duffel: offer %s has no slices", o.ID)
	}
	return offer, nil
}

// ParseAmount converts a decimal string such as "123.4" into cents without
// going through floating point.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return w*100 + f, nil
}

// FormatAmount renders cents as a decimal string with two places.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseISODuration converts an ISO 8601 duration such as "P1DT2H30M" into
// whole minutes.
func ParseISODuration(s string) (int, error) {
	if s == "" || !strings.ContainsAny(s[len(s)-1:], "YMWDHS") {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	d, err := duration.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d.Negative {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return int(d.ToTimeDuration() / time.Minute), nil
}
