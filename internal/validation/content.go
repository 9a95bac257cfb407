package validation

import (
	"regexp"
	"strings"
)

// Profanity matching happens on normalized text so obfuscations like
// "f_u.c-k" or "sh1t" hit the same table entries.
var profanityTable = []string{
	"fuck", "shit", "bitch", "bastard", "asshole", "dickhead",
	"cunt", "nigger", "whore", "slut", "mumu", "olosho", "ashewo",
}

var hatePatterns = []string{
	"kill all", "death to", "gas the", "exterminate the",
	"go back to your country", "subhuman",
}

var leetReplacer = strings.NewReplacer(
	"0", "o", "1", "i", "3", "e", "4", "a", "5", "s", "7", "t", "8", "b", "@", "a", "$", "s", "!", "i",
)

var (
	contactEmail  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+\s*(?:@|\[at\]|\(at\))\s*[a-zA-Z0-9.\-]+\s*(?:\.|\[dot\]|\(dot\))\s*[a-zA-Z]{2,}`)
	contactPhone  = regexp.MustCompile(`(?:\+?234|0)[\s\-.]*[789][01][\s\-.]*(?:\d[\s\-.]*){8}`)
	contactURL    = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+|\b\S+\.(?:com|ng|shop|store|biz)\b`)
	contactSocial = regexp.MustCompile(`(?i)(?:@[a-zA-Z0-9_.]{3,}|\b(?:wa\.me|t\.me|ig|instagram|whatsapp|telegram|snapchat)\b[\s:/]*\S*)`)
)

// Content is the content-safety scanner applied to product descriptions,
// reviews, promotion text and other marketplace-visible free text. It blocks
// profanity (after de-obfuscation), contact-information leakage that would
// route the sale off-platform, and a short hate-speech pattern list.
func Content(value string) Result {
	if strings.TrimSpace(value) == "" {
		return ok()
	}

	normalized := normalize(value)

	for _, p := range hatePatterns {
		if strings.Contains(normalized, normalize(p)) {
			return fail("CONTENT_HATE", "text contains prohibited language")
		}
	}
	for _, w := range profanityTable {
		if containsWord(normalized, normalize(w)) {
			return fail("CONTENT_PROFANITY", "text contains inappropriate language")
		}
	}

	if contactEmail.MatchString(value) || contactPhone.MatchString(value) ||
		contactURL.MatchString(value) || contactSocial.MatchString(value) {
		return fail("CONTENT_CONTACT_INFO", "text must not contain contact details or links")
	}
	return ok()
}

// normalize lowercases, undoes leetspeak, strips separator characters and
// collapses repeated letters ("fuuuck" -> "fuck").
func normalize(s string) string {
	s = strings.ToLower(s)
	s = leetReplacer.Replace(s)

	var b strings.Builder
	var prev rune
	for _, r := range s {
		if r == '.' || r == '_' || r == '-' || r == '*' || r == '+' {
			continue
		}
		if r == prev && r >= 'a' && r <= 'z' {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(haystack[start-1])
		afterOK := end == len(haystack) || !isLetter(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
