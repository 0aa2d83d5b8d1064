package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/iliyamo/michels-travel/internal/flights"
	"github.com/iliyamo/michels-travel/internal/model"
)

const maxNameLen = 64

// Age brackets in whole years at booking time.
const (
	infantMaxAge = 1
	childMinAge  = 2
	childMaxAge  = 11
	adultMinAge  = 12
)

var validTitles = map[string]bool{"mr": true, "ms": true, "mrs": true, "miss": true, "dr": true}

// PassengerInput is one traveller as submitted with a booking.
type PassengerInput struct {
	Type           string
	Title          string
	GivenName      string
	FamilyName     string
	BornOn         string
	Gender         string
	Email          string
	Phone          string
	LoyaltyAirline string
	LoyaltyNumber  string
}

// validatePassengers checks the passenger list against the age and
// composition rules and returns the normalised passengers.
func validatePassengers(in []PassengerInput, now time.Time, bad fields) []model.Passenger {
	switch {
	case len(in) == 0:
		bad.add("passengers", "at least one passenger is required")
		return nil
	case len(in) > flights.MaxPassengers:
		bad.add("passengers", fmt.Sprintf("at most %d passengers are allowed", flights.MaxPassengers))
		return nil
	}

	out := make([]model.Passenger, 0, len(in))
	adults, infants := 0, 0
	for i, p := range in {
		f := func(name string) string { return fmt.Sprintf("passengers[%d].%s", i, name) }
		ps := model.Passenger{
			Type:           strings.ToLower(strings.TrimSpace(p.Type)),
			Title:          strings.ToLower(strings.TrimSpace(p.Title)),
			GivenName:      strings.TrimSpace(p.GivenName),
			FamilyName:     strings.TrimSpace(p.FamilyName),
			Gender:         strings.ToUpper(strings.TrimSpace(p.Gender)),
			Email:          strings.ToLower(strings.TrimSpace(p.Email)),
			Phone:          strings.TrimSpace(p.Phone),
			LoyaltyAirline: strings.ToUpper(strings.TrimSpace(p.LoyaltyAirline)),
			LoyaltyNumber:  strings.TrimSpace(p.LoyaltyNumber),
		}
		if ps.Type == "" {
			ps.Type = model.PassengerAdult
		}
		switch ps.Type {
		case model.PassengerAdult:
			adults++
		case model.PassengerInfant:
			infants++
		case model.PassengerChild:
		default:
			bad.add(f("type"), "must be adult, child or infant")
		}
		if ps.Title != "" && !validTitles[ps.Title] {
			bad.add(f("title"), "must be mr, ms, mrs, miss or dr")
		}
		if !validName(ps.GivenName) {
			bad.add(f("given_name"), "must be 1 to 64 letters")
		}
		if !validName(ps.FamilyName) {
			bad.add(f("family_name"), "must be 1 to 64 letters")
		}
		if ps.Gender != "" && ps.Gender != "M" && ps.Gender != "F" && ps.Gender != "X" {
			bad.add(f("gender"), "must be M, F or X")
		}
		if ps.Email != "" && !validEmail(ps.Email) {
			bad.add(f("email"), "must be a valid email address")
		}
		if ps.LoyaltyNumber != "" && !validAirlineCode(ps.LoyaltyAirline) {
			bad.add(f("loyalty_airline"), "must be a 2-character airline code")
		}

		born, err := flights.ParseDate(p.BornOn)
		switch {
		case err != nil:
			bad.add(f("born_on"), "must be a date (YYYY-MM-DD)")
		case born.After(now):
			bad.add(f("born_on"), "must not be in the future")
		default:
			ps.BornOn = born
			if msg := checkAge(ps.Type, ageOn(born, now)); msg != "" {
				bad.add(f("born_on"), msg)
			}
		}
		out = append(out, ps)
	}

	if adults == 0 {
		bad.add("passengers", "at least one adult is required")
	}
	if infants > adults {
		bad.add("passengers", "each infant must travel with an adult")
	}
	return out
}

func checkAge(typ string, age int) string {
	switch typ {
	case model.PassengerInfant:
		if age > infantMaxAge {
			return "infants must be under 2 years old"
		}
	case model.PassengerChild:
		if age < childMinAge || age > childMaxAge {
			return "children must be 2 to 11 years old"
		}
	case model.PassengerAdult:
		if age < adultMinAge {
			return "adults must be at least 12 years old"
		}
	}
	return ""
}

// ageOn returns the age in completed years on the calendar day of now.
func ageOn(born, now time.Time) int {
	now = now.UTC()
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age
}

// validName accepts letters with inner spaces, hyphens and apostrophes.
func validName(s string) bool {
	n := utf8.RuneCountInString(s)
	if n == 0 || n > maxNameLen {
		return false
	}
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ' || r == '-' || r == '\'':
		default:
			return false
		}
	}
	return letters > 0
}

func validAirlineCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
