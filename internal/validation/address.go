package validation

import (
	"strings"
	"unicode"
)

// Address requires enough content to be deliverable: a minimum length, some
// letters, and at least one digit or second word (street number or area).
func Address(value string) Result {
	addr := strings.TrimSpace(value)
	if addr == "" {
		return fail("ADDRESS_REQUIRED", "address is required")
	}
	if len(addr) < 10 || len(addr) > 250 {
		return fail("ADDRESS_LENGTH", "address must be between 10 and 250 characters")
	}

	letters := 0
	digits := 0
	for _, r := range addr {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if letters < 5 {
		return fail("ADDRESS_INVALID", "address must contain street or area names")
	}
	if digits == 0 && !strings.Contains(addr, " ") {
		return fail("ADDRESS_INVALID", "address is incomplete")
	}
	if looksLikeMash(addr) {
		return fail("ADDRESS_GARBAGE", "address does not look real")
	}
	return ok()
}
