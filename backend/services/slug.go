package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugInvalid  = regexp.MustCompile(`[^a-z0-9_-]+`)
	slugHyphens  = regexp.MustCompile(`[-_]+`)
	fallbackSlug = "country"
)

// ValidSlug reports whether s is a lowercase-hyphenated URL identifier.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// GenerateSlug derives a slug from a display name: accents are folded,
// whitespace becomes a hyphen and everything outside [a-z0-9-] is dropped.
// The result always satisfies ValidSlug.
func GenerateSlug(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	s := strings.ToLower(strings.TrimSpace(folded))
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallbackSlug
	}
	return s
}

// slugCandidate returns base for n == 0 and base-n otherwise.
func slugCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
