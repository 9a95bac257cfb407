package validation

import (
	"strings"
	"unicode"
)

var keyboardRows = []string{
	"qwertyuiop", "asdfghjkl", "zxcvbnm",
	"poiuytrewq", "lkjhgfdsa", "mnbvcxz",
	"1234567890", "0987654321",
}

// PersonName validates a human name: length bounds plus mash detection.
func PersonName(value string) Result {
	name := strings.TrimSpace(value)
	if name == "" {
		return fail("NAME_REQUIRED", "name is required")
	}
	if len(name) < 2 || len(name) > 60 {
		return fail("NAME_LENGTH", "name must be between 2 and 60 characters")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' && r != '.' {
			return fail("NAME_INVALID_CHARS", "name contains invalid characters")
		}
	}
	if looksLikeMash(name) {
		return fail("NAME_GARBAGE", "name does not look real")
	}
	return ok()
}

// BusinessName is looser than PersonName (digits and common punctuation are
// allowed) but still rejects mashed input.
func BusinessName(value string) Result {
	name := strings.TrimSpace(value)
	if name == "" {
		return fail("BUSINESS_NAME_REQUIRED", "business name is required")
	}
	if len(name) < 3 || len(name) > 100 {
		return fail("BUSINESS_NAME_LENGTH", "business name must be between 3 and 100 characters")
	}
	letters := 0
	for _, r := range name {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 3 {
		return fail("BUSINESS_NAME_INVALID", "business name must contain letters")
	}
	if looksLikeMash(name) {
		return fail("BUSINESS_NAME_GARBAGE", "business name does not look real")
	}
	return ok()
}

// looksLikeMash flags repeated-character runs and keyboard-row sequences.
func looksLikeMash(s string) bool {
	lower := strings.ToLower(s)

	var prev rune
	run := 1
	for _, r := range lower {
		if r == prev {
			run++
			if run >= 4 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}

	for _, word := range strings.Fields(lower) {
		if len(word) < 5 {
			continue
		}
		for _, row := range keyboardRows {
			for i := 0; i+5 <= len(word); i++ {
				if strings.Contains(row, word[i:i+5]) {
					return true
				}
			}
		}
		if !strings.ContainsAny(word, "aeiouy") && len(word) >= 6 {
			return true
		}
	}
	return false
}
