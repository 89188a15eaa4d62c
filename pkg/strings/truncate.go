// Package strings holds small text helpers for terminal output.
package strings

import (
	"fmt"
	"strings"
)

// DefaultValueMaxLen is the width at which the shell cuts registered values
// in tables and notifications.
const DefaultValueMaxLen = 60

// minEllipsizeLen leaves room for one character plus "...".
const minEllipsizeLen = 4

// Ellipsize renders v on a single line of at most maxLen runes. Runs of
// whitespace, newlines included, collapse to one space; a cut value ends
// in "...". maxLen below 4 is treated as 4.
func Ellipsize(v any, maxLen int) string {
	if maxLen < minEllipsizeLen {
		maxLen = minEllipsizeLen
	}
	s := strings.Join(strings.Fields(fmt.Sprint(v)), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
