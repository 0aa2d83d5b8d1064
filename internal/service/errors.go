// Package service holds the business rules between the HTTP handlers and the
// stores: authentication, bookings, price alerts, saved travelers and
// navigation tracking.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/repository"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrInvalidRefresh      = errors.New("invalid refresh token")
	ErrEmailTaken          = errors.New("email already registered")
	ErrEmailUnverified     = errors.New("portal email is not verified")
	ErrNotFound            = repository.ErrNotFound
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidTransition   = errors.New("booking cannot change from its current status")
	ErrHoldExpired         = errors.New("booking hold has expired")
	ErrOfferExpired        = flights.ErrOfferExpired
	ErrOfferNotFound       = flights.ErrOfferNotFound
	ErrPaymentsUnavailable = errors.New("payments are not configured")
	ErrAlertLimit          = fmt.Errorf("at most %d active price alerts are allowed", MaxActiveAlerts)
	ErrReferenceExhausted  = errors.New("could not allocate a booking reference")
)

// ValidationError reports every invalid input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		msgs = append(msgs, k+": "+v)
	}
	sort.Strings(msgs)
	return "invalid input: " + strings.Join(msgs, "; ")
}

// FieldErrors returns the per-field messages of a service or search
// validation error.
func FieldErrors(err error) (map[string]string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	var fe *flights.ValidationError
	if errors.As(err, &fe) {
		return fe.Fields, true
	}
	return nil, false
}

// fields collects validation failures; the first message per field wins.
type fields map[string]string

func (f fields) add(name, msg string) {
	if _, ok := f[name]; !ok {
		f[name] = msg
	}
}

func (f fields) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// UpstreamError wraps a failure of a third-party API.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Service + ": " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

func upstream(svc string, err error) error {
	return &UpstreamError{Service: svc, Err: err}
}
