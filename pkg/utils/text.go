// Package utils provides small text, math, and logging helpers shared
// across packages.
package utils

// Truncate returns s cut to at most maxLen runes, with "..." appended when
// anything was cut. maxLen <= 0 returns s unchanged. Cutting on runes keeps
// previews of non-ASCII documents valid UTF-8.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
