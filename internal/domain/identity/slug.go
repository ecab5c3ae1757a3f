package identity

import (
	"fmt"
	"strings"
)

// defaultSlug is used when the normalized organization name is empty
// (e.g., the name consists entirely of non-ASCII punctuation).
const defaultSlug = "org"

// Slugify derives a URL-safe slug candidate from an organization name.
// The name is lowercased, whitespace becomes hyphens, characters outside
// [a-z0-9-] are stripped, repeated hyphens collapse and leading/trailing
// hyphens are trimmed. Uniqueness is the caller's responsibility.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '-':
			b.WriteByte('-')
		}
	}

	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return defaultSlug
	}
	return slug
}

// SlugWithSuffix returns the n-th collision candidate for a base slug:
// "acme-pharmacy" -> "acme-pharmacy-1", "acme-pharmacy-2", ...
func SlugWithSuffix(base string, n int) string {
	return fmt.Sprintf("%s-%d", base, n)
}

// ValidSlug reports whether s is a well-formed slug.
func ValidSlug(s string) bool {
	if s == "" || len(s) > 100 {
		return false
	}
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") || strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return true
}
