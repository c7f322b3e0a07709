package main

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// slugify decomposes s, drops everything but letters, digits, underscores,
// spaces and hyphens, lowercases it and joins the words with single hyphens
func slugify(s string) string {
	var kept strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			kept.WriteRune(r)
		}
	}
	value := strings.ToLower(strings.TrimSpace(kept.String()))

	var b strings.Builder
	sep := false
	for _, r := range value {
		if r == '-' || unicode.IsSpace(r) {
			sep = true
			continue
		}
		if sep {
			b.WriteByte('-')
			sep = false
		}
		b.WriteRune(r)
	}
	if sep {
		b.WriteByte('-')
	}
	return b.String()
}
