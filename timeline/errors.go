package timeline

import (
	"errors"
	"fmt"
)

var (
	ErrPendingAnnotation   = errors.New("another annotation is still being edited")
	ErrDurationUnavailable = errors.New("media duration is not known yet")
	ErrNothingToSave       = errors.New("nothing to save")
	ErrUnknownMarker       = errors.New("unknown marker")
	ErrCommitted           = errors.New("marker is already committed")
)

type Reason int

const (
	MissingTopic Reason = iota + 1
	MissingCategory
)

func (r Reason) String() string {
	switch r {
	case MissingTopic:
		return "missing topic"
	case MissingCategory:
		return "missing category"
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// ValidationError rejects a commit. The marker stays a draft so the editor
// can prompt again.
type ValidationError struct {
	Reason Reason
}

func (e *ValidationError) Error() string {
	return "invalid annotation: " + e.Reason.String()
}

// InvalidTimeError is returned for times outside [0, total].
type InvalidTimeError struct {
	Time, Total Timestamp
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("time %v outside media duration %v", Format(e.Time), Format(e.Total))
}
