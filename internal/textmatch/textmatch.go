// internal/textmatch/textmatch.go
//
// Text canonicalization and tolerant comparison shared by every game.
// Responsibilities:
//   - Normalize: lower-case, strip diacritics, drop punctuation, collapse spaces.
//   - Distance:  Levenshtein edit distance (insert/delete/substitute cost 1).
//   - Threshold / WithinTolerance: the accepted edit distance for a reference name.
//
// Notes:
//   - The tolerance is derived from the reference (canonical or alternate) string only.
//     A short guess against a long name gets the long name's budget, and vice versa.
//   - Normalized strings only contain [a-z0-9 ], so byte length equals character length.

package textmatch

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	minTolerance     = 2
	tolerancePercent = 15
)

// Normalize returns the canonical comparison form of s.
// It never fails and Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	// transform.Chain is stateful; build one per call.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(strip, strings.ToLower(s))
	if err != nil {
		decomposed = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSpace := false
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

// Distance is the Levenshtein distance between a and b, compared as given.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	return matchr.Levenshtein(a, b)
}

// Threshold is the largest edit distance accepted against ref:
// max(2, floor(15% of the normalized reference length)).
func Threshold(ref string) int {
	return thresholdFor(len(Normalize(ref)))
}

func thresholdFor(n int) int {
	return max(minTolerance, n*tolerancePercent/100)
}

// WithinTolerance reports whether guess is close enough to the reference ref.
func WithinTolerance(guess, ref string) bool {
	return Tolerates(Normalize(guess), Normalize(ref))
}

// Tolerates is WithinTolerance for inputs that are already normalized.
func Tolerates(normGuess, normRef string) bool {
	return Distance(normGuess, normRef) <= thresholdFor(len(normRef))
}
