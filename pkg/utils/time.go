package utils

import (
	"fmt"
	"time"
)

// RelativeTime renders when t happened relative to now, e.g. "Just now",
// "5 minutes ago", "1 hour ago", "3 days ago".
func RelativeTime(t time.Time, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff >= 48*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	case diff >= 24*time.Hour:
		return "1 day ago"
	case diff >= 2*time.Hour:
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	case diff >= time.Hour:
		return "1 hour ago"
	case diff >= 2*time.Minute:
		return fmt.Sprintf("%d minutes ago", int(diff.Minutes()))
	case diff >= time.Minute:
		return "1 minute ago"
	default:
		return "Just now"
	}
}
