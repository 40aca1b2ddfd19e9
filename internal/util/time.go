package util

import (
	"fmt"
	"time"
)

// humanTimeFormat is the layout for human-readable timestamps with timezone.
const humanTimeFormat = "2 Jan 2006 15:04:05 MST"

// HumanTime formats t as local time in a human-readable format.
func HumanTime(t time.Time) string {
	return t.Local().Format(humanTimeFormat)
}

// FormatDuration formats a duration as a short human-readable string.
// Examples: "0.8s", "45.0s", "2m 34s", "1h 23m"
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	totalSeconds := int64(d / time.Second)
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes %= 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
