package validation

import (
	"regexp"
	"strings"
)

// Nigerian mobile numbers: a recognised prefix (070x, 080x, 081x, 090x, 091x
// ranges) followed by 8 subscriber digits, optionally carrying the +234
// country code in place of the leading zero.
var nigerianMobile = regexp.MustCompile(`^(?:\+?234|0)(70[1-9]|80[2-9]|81[0-9]|90[1-9]|91[0-6])\d{7}$`)

// Phone validates against the Nigerian numbering plan.
func Phone(value string) Result {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, strings.TrimSpace(value))

	if cleaned == "" {
		return fail("PHONE_REQUIRED", "phone number is required")
	}
	if !nigerianMobile.MatchString(cleaned) {
		return fail("PHONE_INVALID", "enter a valid Nigerian mobile number")
	}
	return ok()
}
