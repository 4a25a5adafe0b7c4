// Package textutil holds small text normalization helpers shared by the
// canonicalizer and the enrichment taggers.
package textutil

import (
	"regexp"
	"strings"
)

var (
	tagPat  = regexp.MustCompile(`<[^>]+>`)
	wordPat = regexp.MustCompile(`\b[\w-]+\b`)
)

// NormalizeWhitespace collapses all runs of whitespace to single spaces and
// trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Clean strips HTML tags and normalizes whitespace. Tags are replaced with a
// space so that adjacent text nodes do not fuse into one token.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = tagPat.ReplaceAllString(s, " ")
	return NormalizeWhitespace(s)
}

// Keywords tokenizes cleaned, lowercased text into words of at least minLen
// characters. Hyphens and underscores count as word characters.
func Keywords(s string, minLen int) []string {
	if s == "" {
		return nil
	}
	s = strings.ToLower(Clean(s))
	var out []string
	for _, w := range wordPat.FindAllString(s, -1) {
		if len(w) >= minLen {
			out = append(out, w)
		}
	}
	return out
}
