// Package htmlutils converts feed HTML to plain text and prepares HTML
// messages for Telegram.
//
// The package handles:
//   - UTF-16 length calculation (Telegram's native encoding)
//   - Safe string slicing by UTF-16 code units
//   - HTML to plain text conversion
//   - Splitting long messages at line boundaries
package htmlutils

import (
	"html"
	"strings"
	"unicode/utf16"

	xhtml "golang.org/x/net/html"
)

// TelegramMessageLimit is the maximum message length in UTF-16 code units.
const TelegramMessageLimit = 4096

// utf16Len returns the number of UTF-16 code units needed to encode the string.
// Telegram counts message length in UTF-16 code units, not Unicode code points.
// Characters outside the BMP (emoji, etc.) require surrogate pairs (2 code units).
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// utf16Slice safely slices a string by UTF-16 code unit count.
// It returns the portion of the string that fits within the specified UTF-16 length.
func utf16Slice(s string, maxUnits int) string {
	runes := []rune(s)
	units := 0

	for i, r := range runes {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2 // Surrogate pair needed
		}

		if units+runeUnits > maxUnits {
			return string(runes[:i])
		}

		units += runeUnits
	}

	return s
}

// Escape escapes text for Telegram HTML parse mode.
func Escape(text string) string {
	return html.EscapeString(text)
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "section": true, "article": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
}

// PlainText renders an HTML fragment as plain text. Block elements become line
// breaks, script and style content is dropped and entities are decoded.
func PlainText(fragment string) string {
	z := xhtml.NewTokenizer(strings.NewReader(fragment))

	var sb strings.Builder

	skipDepth := 0

	for {
		tt := z.Next()

		switch tt {
		case xhtml.ErrorToken:
			// io.EOF or a malformed tail; either way keep what was read.
			return normalizeLines(sb.String())
		case xhtml.TextToken:
			if skipDepth == 0 {
				sb.Write(z.Text())
			}
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)

			if skippedElements[tag] && tt == xhtml.StartTagToken {
				skipDepth++
			}

			if blockElements[tag] {
				sb.WriteByte('\n')
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)

			if skippedElements[tag] && skipDepth > 0 {
				skipDepth--
			}

			if blockElements[tag] {
				sb.WriteByte('\n')
			}
		}
	}
}

// normalizeLines collapses runs of spaces within lines and drops blank lines.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}

// SplitMessage splits text into parts of at most limit UTF-16 code units.
// It prefers paragraph breaks, then line breaks, and cuts inside a line only
// when a single line exceeds the limit.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		curLen  int
	)

	flush := func() {
		if curLen > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf16Len(line)

		if curLen+lineLen <= limit {
			current.WriteString(line)
			curLen += lineLen

			continue
		}

		flush()

		for utf16Len(line) > limit {
			head := utf16Slice(line, limit)
			if head == "" {
				head = string([]rune(line)[:1])
			}

			parts = append(parts, head)
			line = line[len(head):]
		}

		current.WriteString(line)
		curLen = utf16Len(line)
	}

	flush()

	return parts
}
