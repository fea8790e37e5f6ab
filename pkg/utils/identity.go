package utils

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrInvalidPhone              = errors.New("invalid phone number")
	ErrInvalidRegistrationNumber = errors.New("registration number must be 10 digits")
	ErrInvalidAccountNumber      = errors.New("account number must be 10 to 16 digits")
)

// GenerateUUIDv7 generates a time-ordered id, falling back to v4
func GenerateUUIDv7() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// DigitsOnly drops every non-digit rune
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneDigits validates a Korean phone number and returns its digits
func PhoneDigits(raw string) (string, error) {
	d := DigitsOnly(raw)
	if len(d) < 9 || len(d) > 11 || d[0] != '0' {
		return "", ErrInvalidPhone
	}
	return d, nil
}

// CanonicalPhone formats a phone number with hyphens: 010-1111-2222, 02-123-4567, 031-123-4567
func CanonicalPhone(raw string) (string, error) {
	d, err := PhoneDigits(raw)
	if err != nil {
		return "", err
	}

	prefix := 3
	if strings.HasPrefix(d, "02") {
		prefix = 2
	}
	rest := d[prefix:]
	if len(rest) < 7 || len(rest) > 8 {
		return "", ErrInvalidPhone
	}
	mid := len(rest) - 4
	return d[:prefix] + "-" + rest[:mid] + "-" + rest[mid:], nil
}

// PhoneLookupForms lists the stored forms a phone number may have been saved under:
// canonical, digits-only and the raw input.
func PhoneLookupForms(raw string) ([]string, error) {
	canonical, err := CanonicalPhone(raw)
	if err != nil {
		return nil, err
	}
	forms := []string{canonical}
	for _, f := range []string{DigitsOnly(raw), strings.TrimSpace(raw)} {
		if f == "" {
			continue
		}
		dup := false
		for _, existing := range forms {
			if existing == f {
				dup = true
				break
			}
		}
		if !dup {
			forms = append(forms, f)
		}
	}
	return forms, nil
}

// NormalizeRegistrationNumber strips hyphens and spaces from a business registration number
func NormalizeRegistrationNumber(raw string) (string, error) {
	n := stripSeparators(raw)
	if len(n) != 10 || DigitsOnly(n) != n {
		return "", ErrInvalidRegistrationNumber
	}
	return n, nil
}

// NormalizeAccountNumber strips hyphens and spaces from a bank account number
func NormalizeAccountNumber(raw string) (string, error) {
	n := stripSeparators(raw)
	if len(n) < 10 || len(n) > 16 || DigitsOnly(n) != n {
		return "", ErrInvalidAccountNumber
	}
	return n, nil
}

// MaskEmail keeps the first character of the local part and the domain: k*****@partner.kr
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return ""
	}
	local, domain := email[:at], email[at+1:]
	first, size := utf8.DecodeRuneInString(local)
	hidden := utf8.RuneCountInString(local[size:])
	if hidden < 1 {
		hidden = 1
	}
	return string(first) + strings.Repeat("*", hidden) + "@" + domain
}

// NormalizeHolderName folds case and drops whitespace so holder names can be compared
func NormalizeHolderName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
