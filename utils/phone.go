// utils/phone.go
package utils

import (
	"regexp"
)

var (
	nonDigitRegex = regexp.MustCompile(`\D`)

	// Israeli numbering plan in +972 form: enumerated area/mobile prefixes
	// followed by a fixed 7-digit subscriber segment.
	israeliPhoneRegex = regexp.MustCompile(`^\+972([23489]|5[012345689]|77)[0-9]{7}$`)
)

// NormalizePhone canonicalizes raw phone input to +972 form. It strips every
// non-digit character, rewrites a leading national trunk "0" to the country
// code, prefixes the country code when missing, and prepends "+". The result
// is a fixed point: normalizing it again returns the same string.
func NormalizePhone(phone string) string {
	normalized := nonDigitRegex.ReplaceAllString(phone, "")

	if len(normalized) > 0 && normalized[0] == '0' {
		normalized = "972" + normalized[1:]
	} else if len(normalized) < 3 || normalized[:3] != "972" {
		normalized = "972" + normalized
	}

	return "+" + normalized
}

// IsValidIsraeliPhone reports whether phone is a valid Israeli number in +972
// form. Callers must normalize first; raw input is never accepted here.
func IsValidIsraeliPhone(phone string) bool {
	return israeliPhoneRegex.MatchString(phone)
}

// MaskPhone hides all but the last four digits of a phone number for
// user-facing messages and logs.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return phone[:len(phone)-4] + "****"
}
