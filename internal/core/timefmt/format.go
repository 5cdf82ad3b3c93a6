// Package timefmt renders elapsed durations for display.
package timefmt

import (
	"fmt"
	"time"
)

// FormatMillis renders milliseconds as "MM:SS". Minutes are zero-padded to
// two digits and widen past 99; the sub-second remainder is truncated.
func FormatMillis(millis int64) string {
	if millis < 0 {
		millis = 0
	}
	minutes := millis / 60000
	seconds := (millis % 60000) / 1000
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// Format renders a duration as "MM:SS".
func Format(elapsed time.Duration) string {
	return FormatMillis(elapsed.Milliseconds())
}
