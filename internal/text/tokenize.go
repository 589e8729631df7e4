// Package text provides tokenization and character n-gram extraction for the
// lexical index.
package text

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// stopWords are Russian prepositions and particles excluded from indexing.
var stopWords = map[string]struct{}{
	"а": {}, "без": {}, "бы": {}, "в": {}, "вне": {}, "во": {}, "для": {},
	"до": {}, "за": {}, "и": {}, "из": {}, "изо": {}, "или": {}, "иль": {},
	"к": {}, "ко": {}, "меж": {}, "на": {}, "над": {}, "о": {}, "об": {},
	"обо": {}, "от": {}, "ото": {}, "по": {}, "под": {}, "при": {}, "про": {},
	"с": {}, "со": {}, "то": {}, "у": {},
}

var splitRe = regexp.MustCompile(`[^А-Яа-яЁёA-Za-z0-9\-]+`)

// Tokenize splits s into lower-cased word tokens. Separators are any runs of
// characters outside the Cyrillic/Latin/digit/hyphen set. Stop words and
// all-digit tokens are dropped.
func Tokenize(s string) []string {
	parts := splitRe.Split(s, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.Trim(strings.TrimSpace(p), "-"))
		if t == "" {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		if allDigits(t) {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// TokenizeDistinct tokenizes s and returns the sorted set of distinct tokens.
func TokenizeDistinct(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range Tokenize(s) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Words splits s into lower-cased word tokens without dropping stop words or
// digits. Autocomplete prefixes need this: a partially typed word may collide
// with a stop word.
func Words(s string) []string {
	parts := splitRe.Split(s, -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.Trim(strings.TrimSpace(p), "-"))
		if t == "" {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// LatinRatio returns the fraction of letters in s that are Latin.
// Used to detect text that was not actually translated.
func LatinRatio(s string) float64 {
	var latin, letters int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r <= unicode.MaxASCII {
			latin++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(latin) / float64(letters)
}
