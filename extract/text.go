package extract

import (
	"html"
	"strings"
	"unicode"
)

// cleanText HTML-unescapes a string, collapses runs of whitespace to a
// single space, and trims the result.
func cleanText(value string) string {
	unescaped := html.UnescapeString(value)

	var builder strings.Builder
	builder.Grow(len(unescaped))

	previousSpace := false
	for _, r := range unescaped {
		if unicode.IsSpace(r) {
			if previousSpace {
				continue
			}
			builder.WriteRune(' ')
			previousSpace = true
			continue
		}
		builder.WriteRune(r)
		previousSpace = false
	}

	return strings.TrimSpace(builder.String())
}

// truncate cuts a string at limit runes without splitting a rune.
func truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
