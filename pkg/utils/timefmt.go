package utils

import "time"

// TimestampLayout is the display format used for modification times in
// reports and key descriptions.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t for display. The zero time renders empty.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// Epoch returns seconds since the Unix epoch with sub-second precision
// preserved.
func Epoch(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
