package textutil

import (
	"strings"
	"unicode"
)

// MaxCaptionLength is the platform's caption limit in runes. NormalizeCaption
// truncates anything longer.
const MaxCaptionLength = 2200

// NormalizeCaption cleans scraped caption text for reuse: control and
// zero-width characters are dropped, runs of spaces collapse to one, blank
// lines collapse to a single separator, and the result is capped at
// MaxCaptionLength runes.
func NormalizeCaption(caption string) string {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return ""
	}

	var b strings.Builder
	prevSpace := false
	prevNewline := 0
	for _, r := range caption {
		switch {
		case r == '\n':
			if prevNewline < 2 {
				b.WriteRune('\n')
				prevNewline++
			}
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && prevNewline == 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		case unicode.IsControl(r) || isZeroWidth(r):
			// dropped
		default:
			b.WriteRune(r)
			prevSpace = false
			prevNewline = 0
		}
	}

	cleaned := strings.TrimSpace(b.String())
	runes := []rune(cleaned)
	if len(runes) > MaxCaptionLength {
		cleaned = strings.TrimSpace(string(runes[:MaxCaptionLength]))
	}
	return cleaned
}

// WithAttribution appends a credit line naming the original owner. The
// combined text still respects MaxCaptionLength; the caption is trimmed
// before the credit, never the other way around.
func WithAttribution(caption, owner string) string {
	owner = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(owner), "@"))
	if owner == "" {
		return NormalizeCaption(caption)
	}
	credit := "via @" + owner
	caption = NormalizeCaption(caption)
	if caption == "" {
		return credit
	}
	budget := MaxCaptionLength - len([]rune(credit)) - 2
	runes := []rune(caption)
	if len(runes) > budget {
		caption = strings.TrimSpace(string(runes[:budget]))
	}
	return caption + "\n\n" + credit
}

func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return true
	}
	return false
}
