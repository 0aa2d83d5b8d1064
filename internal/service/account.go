package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/model"
	"github.com/iliyamo/michels-travel/internal/repository"
)

type TravelerStore interface {
	Create(ctx context.Context, t *model.Traveler) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Traveler, error)
	GetForUser(ctx context.Context, id, userID uint64) (model.Traveler, error)
	Update(ctx context.Context, t model.Traveler) error
	Delete(ctx context.Context, id, userID uint64) error
}

type LoyaltyStore interface {
	Create(ctx context.Context, p *model.LoyaltyProgram) error
	ListByUser(ctx context.Context, userID uint64) ([]model.LoyaltyProgram, error)
	Delete(ctx context.Context, id, userID uint64) error
}

type AccountUseCase interface {
	ListTravelers(ctx context.Context, userID uint64) ([]model.Traveler, error)
	GetTraveler(ctx context.Context, userID, id uint64) (model.Traveler, error)
	CreateTraveler(ctx context.Context, userID uint64, in TravelerInput) (model.Traveler, error)
	UpdateTraveler(ctx context.Context, userID, id uint64, in TravelerInput) (model.Traveler, error)
	DeleteTraveler(ctx context.Context, userID, id uint64) error
	ListLoyalty(ctx context.Context, userID uint64) ([]model.LoyaltyProgram, error)
	CreateLoyalty(ctx context.Context, userID uint64, in LoyaltyInput) (model.LoyaltyProgram, error)
	DeleteLoyalty(ctx context.Context, userID, id uint64) error
}

type TravelerInput struct {
	Title             string
	GivenName         string
	FamilyName        string
	BornOn            string
	Gender            string
	Email             string
	Phone             string
	PassportNumber    string
	PassportCountry   string
	PassportExpiresOn string
}

type LoyaltyInput struct {
	AirlineCode  string
	ProgramName  string
	MemberNumber string
}

// AccountService manages a user's saved travelers and frequent-flyer
// memberships. Every lookup is scoped to the owner, so other users' rows
// read as not found.
type AccountService struct {
	travelers TravelerStore
	loyalty   LoyaltyStore
	now       func() time.Time
}

func NewAccountService(t TravelerStore, l LoyaltyStore) *AccountService {
	return &AccountService{travelers: t, loyalty: l, now: time.Now}
}

func (s *AccountService) ListTravelers(ctx context.Context, userID uint64) ([]model.Traveler, error) {
	return s.travelers.ListByUser(ctx, userID)
}

func (s *AccountService) GetTraveler(ctx context.Context, userID, id uint64) (model.Traveler, error) {
	return s.travelers.GetForUser(ctx, id, userID)
}

func (s *AccountService) CreateTraveler(ctx context.Context, userID uint64, in TravelerInput) (model.Traveler, error) {
	t, err := s.traveler(in)
	if err != nil {
		return model.Traveler{}, err
	}
	t.UserID = userID
	if err := s.travelers.Create(ctx, &t); err != nil {
		return model.Traveler{}, err
	}
	return t, nil
}

func (s *AccountService) UpdateTraveler(ctx context.Context, userID, id uint64, in TravelerInput) (model.Traveler, error) {
	t, err := s.traveler(in)
	if err != nil {
		return model.Traveler{}, err
	}
	t.ID, t.UserID = id, userID
	if err := s.travelers.Update(ctx, t); err != nil {
		return model.Traveler{}, err
	}
	return s.travelers.GetForUser(ctx, id, userID)
}

func (s *AccountService) DeleteTraveler(ctx context.Context, userID, id uint64) error {
	return s.travelers.Delete(ctx, id, userID)
}

func (s *AccountService) traveler(in TravelerInput) (model.Traveler, error) {
	bad := fields{}
	now := s.now().UTC()
	t := model.Traveler{
		Title:           strings.ToLower(strings.TrimSpace(in.Title)),
		GivenName:       strings.TrimSpace(in.GivenName),
		FamilyName:      strings.TrimSpace(in.FamilyName),
		Gender:          strings.ToUpper(strings.TrimSpace(in.Gender)),
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:           strings.TrimSpace(in.Phone),
		PassportNumber:  strings.ToUpper(strings.TrimSpace(in.PassportNumber)),
		PassportCountry: strings.ToUpper(strings.TrimSpace(in.PassportCountry)),
	}
	if t.Title != "" && !validTitles[t.Title] {
		bad.add("title", "must be mr, ms, mrs, miss or dr")
	}
	if !validName(t.GivenName) {
		bad.add("given_name", "must be 1 to 64 letters")
	}
	if !validName(t.FamilyName) {
		bad.add("family_name", "must be 1 to 64 letters")
	}
	born, err := flights.ParseDate(in.BornOn)
	switch {
	case err != nil:
		bad.add("born_on", "must be a date (YYYY-MM-DD)")
	case born.After(now):
		bad.add("born_on", "must not be in the future")
	default:
		t.BornOn = born
	}
	if t.Gender != "" && t.Gender != "M" && t.Gender != "F" && t.Gender != "X" {
		bad.add("gender", "must be M, F or X")
	}
	if t.Email != "" && !validEmail(t.Email) {
		bad.add("email", "must be a valid email address")
	}
	if len(t.Phone) > maxPhoneLen {
		bad.add("phone", "must be at most 32 characters")
	}
	if utf8.RuneCountInString(t.PassportNumber) > 32 {
		bad.add("passport_number", "must be at most 32 characters")
	}
	if t.PassportCountry != "" && !isUpperAlpha(t.PassportCountry, 2) {
		bad.add("passport_country", "must be a 2-letter country code")
	}
	if strings.TrimSpace(in.PassportExpiresOn) != "" {
		exp, err := flights.ParseDate(in.PassportExpiresOn)
		if err != nil {
			bad.add("passport_expires_on", "must be a date (YYYY-MM-DD)")
		} else {
			t.PassportExpiresOn = &exp
		}
	}
	return t, bad.err()
}

func (s *AccountService) ListLoyalty(ctx context.Context, userID uint64) ([]model.LoyaltyProgram, error) {
	return s.loyalty.ListByUser(ctx, userID)
}

func (s *AccountService) CreateLoyalty(ctx context.Context, userID uint64, in LoyaltyInput) (model.LoyaltyProgram, error) {
	p := model.LoyaltyProgram{
		UserID:       userID,
		AirlineCode:  strings.ToUpper(strings.TrimSpace(in.AirlineCode)),
		ProgramName:  strings.TrimSpace(in.ProgramName),
		MemberNumber: strings.ToUpper(strings.TrimSpace(in.MemberNumber)),
	}
	bad := fields{}
	if !validAirlineCode(p.AirlineCode) {
		bad.add("airline_code", "must be a 2-character airline code")
	}
	if p.MemberNumber == "" || len(p.MemberNumber) > 32 || !isAlnum(p.MemberNumber) {
		bad.add("member_number", "must be 1 to 32 letters or digits")
	}
	if utf8.RuneCountInString(p.ProgramName) > 64 {
		bad.add("program_name", "must be at most 64 characters")
	}
	if err := bad.err(); err != nil {
		return model.LoyaltyProgram{}, err
	}
	if err := s.loyalty.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.LoyaltyProgram{}, ErrAlreadyExists
		}
		return model.LoyaltyProgram{}, err
	}
	p.CreatedAt = s.now().UTC()
	return p, nil
}

func (s *AccountService) DeleteLoyalty(ctx context.Context, userID, id uint64) error {
	return s.loyalty.Delete(ctx, id, userID)
}

func isUpperAlpha(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

var _ AccountUseCase = (*AccountService)(nil)
