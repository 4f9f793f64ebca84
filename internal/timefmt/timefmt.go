// Package timefmt converts fractional-second offsets into the display
// formats used by the editor and the subtitle export.
package timefmt

import (
	"fmt"
	"math"
)

// SubtitleTimecode formats seconds as an SRT timecode, HH:MM:SS,mmm.
// The millisecond component is truncated, not rounded. Negative and NaN
// inputs are clamped to zero.
func SubtitleTimecode(seconds float64) string {
	seconds = clamp(seconds)

	whole := int(seconds)
	millis := int(math.Floor((seconds - float64(whole)) * 1000))

	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ClockDisplay formats seconds as HH:MM:SS.d with a single truncated
// decimal digit, matching the playhead readout in the editor.
func ClockDisplay(seconds float64) string {
	seconds = clamp(seconds)

	whole := int(seconds)
	decile := int(math.Floor((seconds - float64(whole)) * 10))

	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60

	return fmt.Sprintf("%02d:%02d:%02d.%d", hours, minutes, secs, decile)
}

func clamp(seconds float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	return seconds
}
