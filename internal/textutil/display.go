package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// DisplayName turns an account handle into a human-readable name for the
// dashboard and CLI: separators become spaces and words are title-cased.
// "summer.vibes_daily" becomes "Summer Vibes Daily".
func DisplayName(handle string) string {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return ""
	}
	var b strings.Builder
	prevSpace := false
	for _, r := range handle {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			prevSpace = false
		case r == '.' || r == '_' || r == '-' || unicode.IsSpace(r):
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return titleCaser.String(strings.TrimSpace(b.String()))
}
