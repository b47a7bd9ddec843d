package discord

import (
	"strings"
	"unicode/utf8"
)

// splitMessage splits content into chunks of at most maxLength bytes. Lines are
// kept whole where possible; a single overlong line is cut at a word boundary
// or, failing that, at a rune boundary.
func splitMessage(content string, maxLength int) []string {
	if len(content) <= maxLength {
		return []string{content}
	}

	var chunks []string
	current := ""
	for _, line := range strings.Split(content, "\n") {
		// Adding this line (plus its separator) would exceed the limit
		if current != "" && len(current)+1+len(line) > maxLength {
			chunks = append(chunks, current)
			current = ""
		}

		if len(line) > maxLength {
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}
			remaining := line
			for len(remaining) > maxLength {
				splitIdx := cutIndex(remaining, maxLength)
				chunks = append(chunks, remaining[:splitIdx])
				remaining = remaining[splitIdx:]
			}
			current = remaining
			continue
		}

		if current != "" {
			current += "\n"
		}
		current += line
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// cutIndex picks where to cut s so the head fits in maxLength bytes
func cutIndex(s string, maxLength int) int {
	// Prefer a word boundary in the last quarter
	if spaceIdx := strings.LastIndex(s[:maxLength], " "); spaceIdx > maxLength*3/4 {
		return spaceIdx + 1
	}
	idx := maxLength
	for idx > 0 && !utf8.RuneStart(s[idx]) {
		idx--
	}
	if idx == 0 {
		return maxLength
	}
	return idx
}

// truncate shortens s to at most maxLength bytes without splitting a rune
func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	cut := maxLength - len("...")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
