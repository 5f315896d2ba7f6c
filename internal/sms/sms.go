// Package sms defines the outbound text-message port and shared phone
// number handling.
package sms

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// ErrInvalidPhone is returned when a phone number cannot be normalized
// into a dialable form.
var ErrInvalidPhone = errors.New("invalid phone number")

// Sender delivers one message to one phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// NormalizePhone strips spaces, dashes and a leading plus sign, then
// prefixes the country code to bare local numbers. A ten digit number with
// country code "91" becomes "91XXXXXXXXXX"; numbers already carrying the
// code pass through unchanged.
func NormalizePhone(phone, countryCode string) (string, error) {
	var b strings.Builder
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-':
		default:
			return "", ErrInvalidPhone
		}
	}

	digits := b.String()
	if len(digits) < 10 {
		return "", ErrInvalidPhone
	}
	if len(digits) == 10 {
		return countryCode + digits, nil
	}
	return digits, nil
}
