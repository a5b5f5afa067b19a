package playback

import (
	"fmt"
	"math"
)

// placeholderTime is shown when the total duration is unknown.
const placeholderTime = "--:--"

// FormatTime renders seconds as H:MM:SS when it spans an hour or more and as
// MM:SS otherwise. It returns "--:--" when duration is 0 or unknown.
func FormatTime(seconds, duration float64) string {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return placeholderTime
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	total := int(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
