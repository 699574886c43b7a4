package domain

import (
	"regexp"
	"strings"
	"time"
)

// DefaultContactPosition is used when a contact is created without a position.
const DefaultContactPosition = "Ansprechpartner"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Contact is a named contact person of a customer.
type Contact struct {
	ID         string `json:"id"`
	CustomerID string `json:"kunde_id"`
	FirstName  string `json:"vorname"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	Phone      string `json:"telefon"`
	Email      string `json:"email"`
}

// Customer is the billing and identity root referenced by onboardings and calculations.
type Customer struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"firmenname"`
	Street      string    `json:"strasse"`
	HouseNumber string    `json:"hausnummer"`
	PostalCode  string    `json:"plz"`
	City        string    `json:"ort"`
	Phone       string    `json:"telefonnummer"`
	Email       string    `json:"email"`
	Contacts    []Contact `json:"ansprechpartner"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Address is the postal part of a customer.
type Address struct {
	Street      string `json:"strasse"`
	HouseNumber string `json:"hausnummer"`
	PostalCode  string `json:"plz"`
	City        string `json:"ort"`
}

// Lines formats the address as "Street No" and "PLZ City", omitting blank lines.
func (a Address) Lines() []string {
	var lines []string
	for _, l := range []string{
		strings.TrimSpace(a.Street + " " + a.HouseNumber),
		strings.TrimSpace(a.PostalCode + " " + a.City),
	} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// CustomerSummary is a list row with aggregated child counts.
type CustomerSummary struct {
	Customer
	ContactCount    int `json:"ansprechpartner_count"`
	OnboardingCount int `json:"onboarding_count"`
}

// Normalize trims every core field and lowercases the email.
func (c *Customer) Normalize() {
	c.CompanyName = strings.TrimSpace(c.CompanyName)
	c.Street = strings.TrimSpace(c.Street)
	c.HouseNumber = strings.TrimSpace(c.HouseNumber)
	c.PostalCode = strings.TrimSpace(c.PostalCode)
	c.City = strings.TrimSpace(c.City)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

// Validate checks the seven required core fields and the email format.
func (c Customer) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"firmenname", c.CompanyName},
		{"strasse", c.Street},
		{"hausnummer", c.HouseNumber},
		{"plz", c.PostalCode},
		{"ort", c.City},
		{"telefonnummer", c.Phone},
		{"email", c.Email},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return NewValidationError(r.field, "required")
		}
	}
	if !ValidEmail(c.Email) {
		return NewValidationError("email", "invalid email address")
	}
	return nil
}

// WithDefaultsFrom fills blank contact fields from the owning customer.
func (ct Contact) WithDefaultsFrom(c Customer) Contact {
	if strings.TrimSpace(ct.Phone) == "" {
		ct.Phone = c.Phone
	}
	if strings.TrimSpace(ct.Email) == "" {
		ct.Email = c.Email
	}
	if strings.TrimSpace(ct.Position) == "" {
		ct.Position = DefaultContactPosition
	}
	return ct
}
