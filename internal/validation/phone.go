package validation

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	brazilRegion = "BR"
	brazilPrefix = "+55"
)

// ErrInvalidPhone is returned for numbers that are not Brazilian E.164 numbers.
var ErrInvalidPhone = errors.New("phone must be a valid Brazilian number starting with +55")

// NormalizeBRPhone checks that raw is a valid Brazilian number written with
// the +55 country code and returns it in E.164 form.
func NormalizeBRPhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, brazilPrefix) || !onlyDialChars(raw[1:]) {
		return "", ErrInvalidPhone
	}

	num, err := phonenumbers.Parse(raw, brazilRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if num.GetExtension() != "" || !phonenumbers.IsValidNumberForRegion(num, brazilRegion) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// onlyDialChars allows digits plus the usual separators. Letters would
// otherwise be read as keypad digits or silently dropped by the parser.
func onlyDialChars(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == ' ', r == '(', r == ')', r == '-':
		default:
			return false
		}
	}
	return true
}

// IsBRPhone reports whether raw passes NormalizeBRPhone.
func IsBRPhone(raw string) bool {
	_, err := NormalizeBRPhone(raw)
	return err == nil
}
