package model

import "time"

// PriceAlert mirrors a row in the `price_alerts` table. A triggered alert
// stays active so later, lower fares can notify again.
type PriceAlert struct {
	ID               uint64     `json:"id"`
	UserID           uint64     `json:"-"`
	Origin           string     `json:"origin"`
	Destination      string     `json:"destination"`
	DepartureDate    time.Time  `json:"departure_date"`
	ReturnDate       *time.Time `json:"return_date,omitempty"`
	CabinClass       string     `json:"cabin_class"`
	Adults           int        `json:"adults"`
	TargetPriceCents int64      `json:"target_price_cents"`
	Currency         string     `json:"currency"`
	LastPriceCents   *int64     `json:"last_price_cents,omitempty"`
	IsActive         bool       `json:"is_active"`
	TriggeredAt      *time.Time `json:"triggered_at,omitempty"`
	LastCheckedAt    *time.Time `json:"last_checked_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Traveler is a saved passenger profile owned by a user.
type Traveler struct {
	ID                uint64     `json:"id"`
	UserID            uint64     `json:"-"`
	Title             string     `json:"title,omitempty"`
	GivenName         string     `json:"given_name"`
	FamilyName        string     `json:"family_name"`
	BornOn            time.Time  `json:"born_on"`
	Gender            string     `json:"gender,omitempty"`
	Email             string     `json:"email,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	PassportNumber    string     `json:"passport_number,omitempty"`
	PassportCountry   string     `json:"passport_country,omitempty"`
	PassportExpiresOn *time.Time `json:"passport_expires_on,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LoyaltyProgram mirrors a row in `frequent_flyer_programs`.
type LoyaltyProgram struct {
	ID           uint64    `json:"id"`
	UserID       uint64    `json:"-"`
	AirlineCode  string    `json:"airline_code"`
	ProgramName  string    `json:"program_name,omitempty"`
	MemberNumber string    `json:"member_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// NavigationEvent is one tracked request or page view.
type NavigationEvent struct {
	ID         uint64    `json:"id"`
	UserID     *uint64   `json:"user_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	Referrer   string    `json:"referrer,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	IP         string    `json:"ip,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
