package logic

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration renders d for display. Compact form keeps the two largest
// units ("2d 3h", "4m 5s"); the long form lists every non-zero unit and
// drops seconds once the span reaches a day.
func FormatDuration(d time.Duration, compact bool) string {
	seconds := int64(d / time.Second)
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	if compact {
		switch {
		case days > 0:
			return fmt.Sprintf("%dd %dh", days, hours%24)
		case hours > 0:
			return fmt.Sprintf("%dh %dm", hours, minutes%60)
		case minutes > 0:
			return fmt.Sprintf("%dm %ds", minutes, seconds%60)
		}
		return fmt.Sprintf("%ds", seconds)
	}

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours%24 > 0 {
		parts = append(parts, plural(hours%24, "hour"))
	}
	if minutes%60 > 0 {
		parts = append(parts, plural(minutes%60, "minute"))
	}
	if seconds%60 > 0 && days == 0 {
		parts = append(parts, plural(seconds%60, "second"))
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}

// FormatTimeRemaining renders a countdown as "h:mm:ss" or "m:ss".
func FormatTimeRemaining(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
