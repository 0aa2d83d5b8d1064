// Package oauth runs the authorization-code flow against the identity portal.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/iliyamo/michels-travel/internal/config"
)

// ErrIncompleteProfile is returned when the portal's userinfo lacks a subject
// or an e-mail address.
var ErrIncompleteProfile = errors.New("oauth: userinfo missing sub or email")

// Identity is the portal account behind an authorization code.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string

	// EmailVerified is the portal's email_verified claim.
	EmailVerified bool
}

// Exchanger is what the login flow needs from a portal.
type Exchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (Identity, error)
}

type Portal struct {
	provider    string
	conf        *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewPortal builds a portal client from cfg. httpClient may be nil.
func NewPortal(cfg config.OAuthConfig, httpClient *http.Client) *Portal {
	return &Portal{
		provider: cfg.Provider,
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  httpClient,
	}
}

func (p *Portal) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades code for a token and loads the user's profile with it.
func (p *Portal) Exchange(ctx context.Context, code string) (Identity, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("oauth: exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("oauth: build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("oauth: userinfo: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Identity{}, fmt.Errorf("oauth: read userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("oauth: userinfo status %d", resp.StatusCode)
	}

	var info struct {
		Sub           string       `json:"sub"`
		Email         string       `json:"email"`
		Name          string       `json:"name"`
		EmailVerified flexibleBool `json:"email_verified"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return Identity{}, fmt.Errorf("oauth: decode userinfo: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return Identity{}, ErrIncompleteProfile
	}
	return Identity{
		Provider: p.provider,
		Subject:  info.Sub,
		Email:    strings.ToLower(strings.TrimSpace(info.Email)),
		Name:     strings.TrimSpace(info.Name),

		EmailVerified: bool(info.EmailVerified),
	}, nil
}

// flexibleBool decodes a JSON boolean that some portals send as a string.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	default:
		*b = false
	}
	return nil
}

var _ Exchanger = (*Portal)(nil)
