package usecase

import "strings"

// Sanitize replaces carriage returns and C0 control characters with
// spaces, collapses whitespace runs to a single space and trims.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(cleaned), " ")
}
