package utils

import (
	"strings"

	"github.com/badoux/checkmail"
	"github.com/nyaruka/phonenumbers"
)

// NormalizeEmail lowercases and trims an address and checks its syntax.
// An empty input yields nil without error.
func NormalizeEmail(email string) (*string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, err
	}
	return &email, nil
}

// NormalizePhone formats a phone number as E.164 using defaultRegion for
// numbers without a country prefix. Numbers that cannot be parsed are kept
// as typed, trimmed; an empty input yields nil.
func NormalizePhone(raw, defaultRegion string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return &raw
	}
	formatted := phonenumbers.Format(num, phonenumbers.E164)
	return &formatted
}
