package monitor

import (
	"fmt"
	"time"
)

// FormatLatency formats a duration in seconds as "X.Xms" or "X.Xs"
func FormatLatency(latencySeconds float64) string {
	if latencySeconds < 1.0 {
		ms := latencySeconds * 1000
		return fmt.Sprintf("%.1fms", ms)
	}
	return fmt.Sprintf("%.1fs", latencySeconds)
}

// FormatPercentage formats a ratio (0-1) as percentage
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatDuration formats duration in seconds to "Xh Ym" or "Xm"
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatElapsed formats a run's elapsed time as "Xs" under a minute and
// "Xh Ym" or "Xm" above.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
	return FormatDuration(int64(d.Seconds()))
}

// ShortID returns the first 8 characters of a run ID.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
