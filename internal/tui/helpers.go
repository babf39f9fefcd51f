package tui

import "strings"

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// progressBar renders progress as a fixed width bar, e.g. [####------]
func progressBar(progress, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// shortVersion keeps the tail of a version token, which changes on every commit
func shortVersion(v string) string {
	if len(v) <= 8 {
		return v
	}
	return v[len(v)-8:]
}
