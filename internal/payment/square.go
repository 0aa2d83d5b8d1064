// Package payment talks to the Square payments API: hosted checkout links,
// order lookups and refunds.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/michels-travel/internal/config"
)

// Order states reported by Square.
const (
	OrderOpen      = "OPEN"
	OrderCompleted = "COMPLETED"
	OrderCanceled  = "CANCELED"
)

// Gateway is the part of Square the booking flow depends on.
type Gateway interface {
	CreatePaymentLink(ctx context.Context, req LinkRequest) (PaymentLink, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	RefundPayment(ctx context.Context, req RefundRequest) (Refund, error)
}

// LinkRequest describes a quick-pay checkout for a single amount.
type LinkRequest struct {
	Name           string
	AmountCents    int64
	Currency       string
	RedirectURL    string
	BuyerEmail     string
	Note           string
	IdempotencyKey string // generated when empty
}

type PaymentLink struct {
	ID      string
	URL     string
	OrderID string
}

type Order struct {
	ID          string
	State       string
	TotalCents  int64
	Currency    string
	PaymentIDs  []string
	ReferenceID string
}

// Completed reports whether the order has been paid in full.
func (o Order) Completed() bool { return o.State == OrderCompleted }

// PaymentID returns the first payment attached to the order.
func (o Order) PaymentID() string {
	if len(o.PaymentIDs) == 0 {
		return ""
	}
	return o.PaymentIDs[0]
}

type RefundRequest struct {
	PaymentID      string
	AmountCents    int64
	Currency       string
	Reason         string
	IdempotencyKey string // generated when empty
}

type Refund struct {
	ID     string
	Status string
}

// APIError is a non-2xx answer from Square.
type APIError struct {
	Status int
	Errors []struct {
		Category string `json:"category"`
		Code     string `json:"code"`
		Detail   string `json:"detail"`
		Field    string `json:"field"`
	} `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("square: %d %s: %s", e.Status, e.Errors[0].Code, e.Errors[0].Detail)
	}
	return fmt.Sprintf("square: unexpected status %d", e.Status)
}

// SquareClient is a small REST client for the Square API.
type SquareClient struct {
	baseURL    string
	token      string
	version    string
	locationID string
	client     *http.Client
}

// NewSquareClient builds a client from cfg. A nil httpClient gets one using
// cfg.Timeout.
func NewSquareClient(cfg config.SquareConfig, httpClient *http.Client) *SquareClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &SquareClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
		version:    cfg.Version,
		locationID: cfg.LocationID,
		client:     httpClient,
	}
}

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type paymentLinkBody struct {
	IdempotencyKey string `json:"idempotency_key"`
	QuickPay       struct {
		Name       string `json:"name"`
		PriceMoney money  `json:"price_money"`
		LocationID string `json:"location_id"`
	} `json:"quick_pay"`
	CheckoutOptions *struct {
		RedirectURL string `json:"redirect_url"`
	} `json:"checkout_options,omitempty"`
	PrePopulatedData *struct {
		BuyerEmail string `json:"buyer_email"`
	} `json:"pre_populated_data,omitempty"`
	PaymentNote string `json:"payment_note,omitempty"`
}

// CreatePaymentLink creates a hosted checkout page for req.
func (c *SquareClient) CreatePaymentLink(ctx context.Context, req LinkRequest) (PaymentLink, error) {
	var body paymentLinkBody
	body.IdempotencyKey = idempotencyKey(req.IdempotencyKey)
	body.QuickPay.Name = req.Name
	body.QuickPay.PriceMoney = money{Amount: req.AmountCents, Currency: strings.ToUpper(req.Currency)}
	body.QuickPay.LocationID = c.locationID
	if req.RedirectURL != "" {
		body.CheckoutOptions = &struct {
			RedirectURL string `json:"redirect_url"`
		}{req.RedirectURL}
	}
	if req.BuyerEmail != "" {
		body.PrePopulatedData = &struct {
			BuyerEmail string `json:"buyer_email"`
		}{req.BuyerEmail}
	}
	body.PaymentNote = req.Note

	var resp struct {
		PaymentLink struct {
			ID      string `json:"id"`
			URL     string `json:"url"`
			OrderID string `json:"order_id"`
		} `json:"payment_link"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/online-checkout/payment-links", body, &resp); err != nil {
		return PaymentLink{}, err
	}
	return PaymentLink{ID: resp.PaymentLink.ID, URL: resp.PaymentLink.URL, OrderID: resp.PaymentLink.OrderID}, nil
}

// GetOrder fetches an order with its state and tenders.
func (c *SquareClient) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var resp struct {
		Order struct {
			ID          string `json:"id"`
			State       string `json:"state"`
			ReferenceID string `json:"reference_id"`
			TotalMoney  money  `json:"total_money"`
			Tenders     []struct {
				ID        string `json:"id"`
				PaymentID string `json:"payment_id"`
			} `json:"tenders"`
		} `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/v2/orders/"+url.PathEscape(orderID), nil, &resp); err != nil {
		return Order{}, err
	}
	o := Order{
		ID:          resp.Order.ID,
		State:       resp.Order.State,
		TotalCents:  resp.Order.TotalMoney.Amount,
		Currency:    resp.Order.TotalMoney.Currency,
		ReferenceID: resp.Order.ReferenceID,
	}
	for _, t := range resp.Order.Tenders {
		id := t.PaymentID
		if id == "" {
			id = t.ID
		}
		o.PaymentIDs = append(o.PaymentIDs, id)
	}
	return o, nil
}

// RefundPayment refunds all or part of a captured payment.
func (c *SquareClient) RefundPayment(ctx context.Context, req RefundRequest) (Refund, error) {
	body := struct {
		IdempotencyKey string `json:"idempotency_key"`
		PaymentID      string `json:"payment_id"`
		AmountMoney    money  `json:"amount_money"`
		Reason         string `json:"reason,omitempty"`
	}{
		IdempotencyKey: idempotencyKey(req.IdempotencyKey),
		PaymentID:      req.PaymentID,
		AmountMoney:    money{Amount: req.AmountCents, Currency: strings.ToUpper(req.Currency)},
		Reason:         req.Reason,
	}
	var resp struct {
		Refund struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"refund"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/refunds", body, &resp); err != nil {
		return Refund{}, err
	}
	return Refund{ID: resp.Refund.ID, Status: resp.Refund.Status}, nil
}

func (c *SquareClient) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("square: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("square: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Square-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("square: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("square: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("square: decode response: %w", err)
	}
	return nil
}

func idempotencyKey(k string) string {
	if k != "" {
		return k
	}
	return uuid.NewString()
}

var _ Gateway = (*SquareClient)(nil)
