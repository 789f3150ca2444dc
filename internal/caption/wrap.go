package caption

import (
	"strings"
	"unicode/utf8"
)

// wrapText splits text into lines at most width characters wide, breaking
// only between whitespace separated words. A single word longer than the
// width gets its own line rather than being split.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	line := words[0]
	lineLen := utf8.RuneCountInString(words[0])
	for _, word := range words[1:] {
		wordLen := utf8.RuneCountInString(word)
		if lineLen+1+wordLen > width {
			lines = append(lines, line)
			line = word
			lineLen = wordLen
			continue
		}
		line += " " + word
		lineLen += 1 + wordLen
	}
	return append(lines, line)
}

// lastLine returns the tail line of text wrapped to width, which is what
// the production view shows of a long utterance.
func lastLine(text string, width int) string {
	lines := wrapText(text, width)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// displayText renders a language's rolling audience view: every history
// entry and the interim line wrapped independently, joined with newlines.
func displayText(history []string, interim string, width int) string {
	var lines []string
	for _, entry := range history {
		lines = append(lines, wrapText(entry, width)...)
	}
	if strings.TrimSpace(interim) != "" {
		lines = append(lines, wrapText(interim, width)...)
	}
	return strings.Join(lines, "\n")
}
