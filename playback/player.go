package playback

import (
	"github.com/progrium/media-notes/timeline"
)

// Player is the media backend a Controller drives. Calls may return before
// the backend has acted on them; the backend reports what actually happened
// through Events.
type Player interface {
	Play() error
	Pause() error
	Stop() error
	Seek(t timeline.Timestamp) error
	CurrentTime() timeline.Timestamp
	// TotalDuration fails with timeline.ErrDurationUnavailable while the
	// backend does not know the duration yet.
	TotalDuration() (timeline.Timestamp, error)
}

type VolumeSetter interface {
	SetVolume(v float64) error // 0.0 to 1.0
}

type EventKind int

const (
	EventReady EventKind = iota + 1
	EventTime
	EventDuration
	EventPlaying
	EventPaused
	EventEnded
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventTime:
		return "time"
	case EventDuration:
		return "duration"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	}
	return "unknown"
}

// Event is a state report from a Player. Time is set for EventTime and
// Duration for EventDuration.
type Event struct {
	Kind     EventKind
	Time     timeline.Timestamp
	Duration timeline.Timestamp
}

type Handler func(Event)
