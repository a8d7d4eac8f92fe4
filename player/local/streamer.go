package local

import (
	"github.com/gopxl/beep"
)

// trackStreamer passes samples through from the decoded file and notes
// when the file runs out, so the player can report the end of the media.
type trackStreamer struct {
	beep.StreamSeeker
	ended bool
}

var _ beep.Streamer = (*trackStreamer)(nil)

func (t *trackStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = t.StreamSeeker.Stream(samples)
	if !ok {
		t.ended = true
	}
	return n, ok
}
