// Package match finds the span of text that best corresponds to an excerpt,
// and resolves an excerpt against a list of canonical candidates. Similarity
// is the order-sensitive character ratio of difflib's SequenceMatcher, so
// rankings agree with tooling built on the same metric.
package match

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrNoCandidates is returned by Closest when the candidate list is empty.
// That is a contract violation by the caller, not a failed match.
var ErrNoCandidates = errors.New("match: empty candidate list")

// DefaultCutoff is the minimum similarity ratio for a fuzzy span to count
// as found.
const DefaultCutoff = 0.6

// Ratio is the normalized similarity of two strings in [0, 1], 1 meaning
// equal. Order-sensitive and character-level.
func Ratio(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// BestSpan locates the contiguous word span of text most similar to
// pattern. It returns byte offsets into text and the similarity ratio, or
// ok=false when no window reaches the cutoff.
//
// An exact substring occurrence short-circuits with ratio 1.0. Otherwise
// both strings are tokenized into words and windows of len(pattern words)
// minus one through plus one words are slid across the text; the earliest
// strictly-best window at or above the cutoff wins. Window offsets are
// derived from single-space joins of the preceding tokens rather than by
// rescanning the text. Cost is O(words(text) * len(pattern)) per window
// size; callers with very large documents should budget accordingly.
func BestSpan(text, pattern string, cutoff float64) (start, end int, ratio float64, ok bool) {
	if idx := strings.Index(text, pattern); idx >= 0 && pattern != "" {
		return idx, idx + len(pattern), 1.0, true
	}

	words := strings.Fields(text)
	patternWords := strings.Fields(pattern)
	size := len(patternWords)

	firstWord := ""
	if len(patternWords) > 0 {
		firstWord = patternWords[0]
	}

	for window := size - 1; window <= size+1; window++ {
		if window < 1 {
			continue
		}
		for i := 0; i+window <= len(words); i++ {
			candidate := strings.Join(words[i:i+window], " ")
			r := Ratio(candidate, pattern)
			if r <= ratio || r < cutoff {
				continue
			}

			prefix := len(strings.Join(words[:i], " "))
			s := prefix
			if i > 0 {
				s++ // separating space after the prefix
			}
			e := s + len(candidate)

			// A window whose first token only partially covers the leading
			// pattern word starts mid-word; pull the full run back in.
			if !strings.HasPrefix(words[i], firstWord) {
				for s > 0 && alnumBefore(text, s) {
					s--
				}
			}
			for e < len(text) && alnumAt(text, e) {
				e++
			}

			start, end, ratio, ok = s, e, r, true
		}
	}
	return start, end, ratio, ok
}

// alnumAt reports whether the rune starting at byte offset i is a letter or
// digit.
func alnumAt(s string, i int) bool {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// alnumBefore reports whether the rune ending at byte offset i is a letter
// or digit.
func alnumBefore(s string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Closest returns the candidate most similar to target, compared
// case-insensitively. Ties keep the first-encountered maximum, so repeated
// calls with the same inputs return the same candidate.
func Closest(target string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	lowered := strings.ToLower(target)
	best := candidates[0]
	bestRatio := Ratio(lowered, strings.ToLower(best))
	for _, c := range candidates[1:] {
		if r := Ratio(lowered, strings.ToLower(c)); r > bestRatio {
			best, bestRatio = c, r
		}
	}
	return best, nil
}
