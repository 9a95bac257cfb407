package validation

import (
	"regexp"
	"strings"
)

var emailShape = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email checks syntactic shape plus plausibility of the local part. Garbage
// signups tend to use long consonant mashes or digit soup before the @.
func Email(value string) Result {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return fail("EMAIL_REQUIRED", "email is required")
	}
	if len(value) > 254 || !emailShape.MatchString(value) {
		return fail("EMAIL_INVALID", "enter a valid email address")
	}

	local := value[:strings.Index(value, "@")]
	if looksLikeGarbageLocal(local) {
		return fail("EMAIL_IMPLAUSIBLE", "email address does not look real")
	}
	return ok()
}

func looksLikeGarbageLocal(local string) bool {
	stripped := strings.Map(func(r rune) rune {
		if r == '.' || r == '_' || r == '-' || r == '+' {
			return -1
		}
		return r
	}, local)

	if len(stripped) < 2 {
		return true
	}

	digits := 0
	vowels := 0
	maxConsonantRun := 0
	run := 0
	for _, r := range stripped {
		switch {
		case r >= '0' && r <= '9':
			digits++
			run = 0
		case strings.ContainsRune("aeiou", r):
			vowels++
			run = 0
		default:
			run++
			if run > maxConsonantRun {
				maxConsonantRun = run
			}
		}
	}

	// Mostly digits, e.g. "83749271@..."
	if len(stripped) >= 6 && digits*10 >= len(stripped)*8 {
		return true
	}
	// Long vowel-free consonant mash, e.g. "xkcdqwrtzp@..."
	if len(stripped) >= 8 && vowels == 0 {
		return true
	}
	return maxConsonantRun >= 7
}
