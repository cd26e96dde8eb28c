package textproc

import (
	"regexp"
	"strings"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	ellipsisPattern   = regexp.MustCompile(`[.]{3,}`)
	bangPattern       = regexp.MustCompile(`[!]{2,}`)
	questionPattern   = regexp.MustCompile(`[?]{2,}`)
	wordPattern       = regexp.MustCompile(`\w+`)
)

// quoteReplacer normalizes smart quotes, dashes, and ellipses left over from
// upstream extraction.
var quoteReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"–", "-",
	"—", "-",
	"…", "...",
)

// CleanText normalizes raw article text: strips leftover HTML tags, collapses
// whitespace, squashes repeated punctuation, and fixes common encoding
// artifacts. Cleaning is applied defensively before chunking even when the
// ingest layer already produced cleaned text.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = htmlTagPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = ellipsisPattern.ReplaceAllString(text, "...")
	text = bangPattern.ReplaceAllString(text, "!")
	text = questionPattern.ReplaceAllString(text, "?")
	text = quoteReplacer.Replace(text)

	return strings.TrimSpace(text)
}

// CountWords counts word tokens in text.
func CountWords(text string) int {
	if text == "" {
		return 0
	}
	return len(wordPattern.FindAllString(text, -1))
}

// readingWordsPerMinute is the assumed reading speed for read-time estimates.
const readingWordsPerMinute = 250

// EstimateReadingTime returns the estimated reading time in whole minutes,
// never less than 1 for non-empty text.
func EstimateReadingTime(text string) int {
	words := CountWords(text)
	if words == 0 {
		return 0
	}
	minutes := (words + readingWordsPerMinute/2) / readingWordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
