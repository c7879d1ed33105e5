// README: Phone number and email credential normalisation.
package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

const (
	// DefaultCountryCode prefixes 10-digit local mobile numbers.
	DefaultCountryCode = "+91"
	MinPasswordLength  = 6
)

// NormalizePhone accepts a 10-digit local number or an E.164 number starting with '+'.
// Spaces and dashes are ignored.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if rest, ok := strings.CutPrefix(cleaned, "+"); ok {
		if len(rest) < 8 || len(rest) > 15 || !allDigits(rest) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
		}
		return cleaned, nil
	}
	if len(cleaned) != 10 || !allDigits(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return DefaultCountryCode + cleaned, nil
}

func validateEmailCommand(cmd EmailCommand) (EmailCommand, error) {
	cmd.Email = strings.TrimSpace(cmd.Email)
	if cmd.Email == "" || cmd.Password == "" {
		return cmd, ErrMissingFields
	}
	if len(cmd.Password) < MinPasswordLength {
		return cmd, ErrWeakPassword
	}
	addr, err := mail.ParseAddress(cmd.Email)
	if err != nil || addr.Address != cmd.Email {
		return cmd, ErrInvalidEmail
	}
	return cmd, nil
}

func validCode(code string) bool {
	return len(code) >= 4 && len(code) <= 8 && allDigits(code)
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return s != ""
}
