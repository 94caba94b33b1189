// Package heuristics implements the character- and word-level text checks
// shared by content scoring and bot detection.
package heuristics

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minRepeat is how many consecutive copies make a repetition.
const minRepeat = 3

// IsRepetitive reports a word repeated three times in a row, a symbol
// repeated three times, or a digit group repeated three times.
func IsRepetitive(text string) bool {
	return HasRepeatedWordRun(text) || HasRepeatedSymbolRun(text) || HasRepeatedDigitGroup(text)
}

type wordSpan struct {
	start, end int
}

// HasRepeatedWordRun reports three consecutive equal words (case-insensitive)
// separated only by whitespace.
func HasRepeatedWordRun(text string) bool {
	spans := wordSpans(text)
	run := 1

	for i := 1; i < len(spans); i++ {
		gap := text[spans[i-1].end:spans[i].start]
		same := isWhitespace(gap) && strings.EqualFold(
			text[spans[i-1].start:spans[i-1].end],
			text[spans[i].start:spans[i].end],
		)

		if !same {
			run = 1

			continue
		}

		run++
		if run >= minRepeat {
			return true
		}
	}

	return false
}

// HasRepeatedSymbolRun reports the same non-word, non-space rune three times in a row.
func HasRepeatedSymbolRun(text string) bool {
	var prev rune

	run := 0

	for _, r := range text {
		if isWordRune(r) || unicode.IsSpace(r) {
			run = 0

			continue
		}

		if r == prev && run > 0 {
			run++
		} else {
			run = 1
		}

		prev = r

		if run >= minRepeat {
			return true
		}
	}

	return false
}

// HasRepeatedDigitGroup reports a digit group occurring three times back to back, like 777 or 121212.
func HasRepeatedDigitGroup(text string) bool {
	for _, run := range digitRuns(text) {
		if hasTripledSubstring(run) {
			return true
		}
	}

	return false
}

func hasTripledSubstring(s string) bool {
	n := len(s)

	for size := 1; size*minRepeat <= n; size++ {
		for start := 0; start+size*minRepeat <= n; start++ {
			unit := s[start : start+size]
			if s[start+size:start+2*size] == unit && s[start+2*size:start+3*size] == unit {
				return true
			}
		}
	}

	return false
}

// HasCharRun reports any rune other than a newline repeated three or more times in a row.
func HasCharRun(text string) bool {
	var prev rune

	run := 0

	for _, r := range text {
		if r == '\n' {
			run = 0

			continue
		}

		if r == prev && run > 0 {
			run++
		} else {
			run = 1
		}

		prev = r

		if run >= minRepeat {
			return true
		}
	}

	return false
}

// NonASCIIRatio returns the share of runes above the ASCII range.
func NonASCIIRatio(text string) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}

	return float64(NonASCIICount(text)) / float64(total)
}

// NonASCIICount counts runes above the ASCII range, which covers emoji.
func NonASCIICount(text string) int {
	count := 0

	for _, r := range text {
		if r > unicode.MaxASCII {
			count++
		}
	}

	return count
}

// HasLowWordVariety reports whether distinct words are fewer than ratio times all words.
func HasLowWordVariety(text string, ratio float64) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}

	return float64(len(unique)) < float64(len(words))*ratio
}

// UpperRatio returns the share of uppercase runes among all runes.
func UpperRatio(text string) float64 {
	total := 0
	upper := 0

	for _, r := range text {
		total++

		if unicode.IsUpper(r) {
			upper++
		}
	}

	if total == 0 {
		return 0
	}

	return float64(upper) / float64(total)
}

// Tokens splits text into maximal runs of letters and digits.
func Tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func wordSpans(text string) []wordSpan {
	var spans []wordSpan

	start := -1

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}

			continue
		}

		if start >= 0 {
			spans = append(spans, wordSpan{start: start, end: i})
			start = -1
		}
	}

	if start >= 0 {
		spans = append(spans, wordSpan{start: start, end: len(text)})
	}

	return spans
}

func digitRuns(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r < '0' || r > '9'
	})
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWhitespace(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
