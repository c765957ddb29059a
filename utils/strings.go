package utils

import "strings"

// Truncate shortens s to at most max runes, appending "..." when anything was
// cut. max is a rune count, not bytes, so multi-byte names survive intact.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// CollapseSpaces trims s and folds internal whitespace runs into single
// spaces. Backend log entries frequently carry stray padding.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
