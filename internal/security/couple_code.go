package security

import (
	"regexp"
	"strings"
)

// CoupleCodeAlphabet omits characters that are easy to misread aloud.
const CoupleCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var coupleCodePattern = regexp.MustCompile(`^DUET-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// NewCoupleCode returns a code of the form DUET-XXXX-XXXX.
func NewCoupleCode() (string, error) {
	body, err := RandomString(8, CoupleCodeAlphabet)
	if err != nil {
		return "", err
	}
	return "DUET-" + body[:4] + "-" + body[4:], nil
}

// NormalizeCoupleCode upper-cases and trims raw, returning "" when the
// result is not a well-formed couple code.
func NormalizeCoupleCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !coupleCodePattern.MatchString(code) {
		return ""
	}
	return code
}
