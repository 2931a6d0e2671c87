package normalize

import "unicode/utf8"

// TruncationMarker is appended when text is cut at the cap.
const TruncationMarker = "... [truncated]"

// Caps used by the pipeline.
const (
	CrawlCap  = 3000
	SampleCap = 1000
)

// Truncate cuts text to maxChars runes and appends TruncationMarker.
// maxChars <= 0 disables the cap.
func Truncate(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	count := 0
	for i := range text {
		if count == maxChars {
			return text[:i] + TruncationMarker, true
		}
		count++
	}
	return text, false
}
