package timeline

import (
	"fmt"
	"time"
)

// Format renders t as mm:ss, or h:mm:ss from one hour on. Fractional
// seconds are truncated.
func Format(t Timestamp) string {
	if t < 0 {
		t = 0
	}
	secs := int64(time.Duration(t) / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func FormatRange(start, end Timestamp) string {
	return Format(start) + " - " + Format(end)
}

// Clock is the control bar label, "current / total".
func Clock(current, total Timestamp) string {
	return Format(current) + " / " + Format(total)
}
