// Package flights searches flight inventory through a pluggable provider and
// applies the site's filters, ordering and caching on top.
package flights

import (
	"context"
	"errors"

	"github.com/iliyamo/michels-travel/internal/model"
)

var (
	// ErrOfferNotFound is returned when a provider does not know an offer ID.
	ErrOfferNotFound = errors.New("offer not found")
	// ErrOfferExpired is returned when an offer can no longer be booked.
	ErrOfferExpired = errors.New("offer expired")
)

// Provider is a source of flight offers.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]model.Offer, error)
	GetOffer(ctx context.Context, id string) (model.Offer, error)
}
