package playback

import (
	"fmt"

	"github.com/progrium/media-notes/timeline"
)

// Mode is the state of the play/pause/repeat control.
type Mode int

const (
	Paused Mode = iota
	Playing
	EndedAwaitingRepeat
)

func (m Mode) String() string {
	switch m {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	case EndedAwaitingRepeat:
		return "ended"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

const skipFactor = 1.5

// Controller keeps the play/pause/repeat mode consistent with a Player.
// It is not safe for concurrent use.
type Controller struct {
	player    Player
	mode      Mode
	fallback  timeline.Timestamp
	scrubbing bool
	preScrub  Mode
}

// NewController is called once the player is ready. fallback is a duration
// persisted by an earlier session, or zero.
func NewController(p Player, fallback timeline.Timestamp) *Controller {
	return &Controller{
		player:   p,
		mode:     Paused,
		fallback: fallback,
	}
}

func (c *Controller) Mode() Mode {
	return c.mode
}

func (c *Controller) Player() Player {
	return c.player
}

// Duration asks the player for the total duration, falling back to the
// persisted one while the player cannot tell.
func (c *Controller) Duration() (timeline.Timestamp, error) {
	total, err := c.player.TotalDuration()
	if err == nil && total > 0 {
		return total, nil
	}
	if c.fallback > 0 {
		return c.fallback, nil
	}
	if err == nil {
		err = timeline.ErrDurationUnavailable
	}
	return 0, err
}

// Toggle handles a press of the play/pause/repeat control.
func (c *Controller) Toggle() error {
	switch c.mode {
	case Playing:
		if err := c.player.Pause(); err != nil {
			return err
		}
		c.mode = Paused
	case Paused:
		if err := c.player.Play(); err != nil {
			return err
		}
		c.mode = Playing
	case EndedAwaitingRepeat:
		if err := c.player.Seek(0); err != nil {
			return err
		}
		if err := c.player.Play(); err != nil {
			return err
		}
		c.mode = Playing
	}
	return nil
}

// Ended records that the player reached the end of the media.
func (c *Controller) Ended() {
	c.mode = EndedAwaitingRepeat
}

// Observe applies a state report from the player. Reports win over the
// mode the controller assumed when it issued a command.
func (c *Controller) Observe(ev Event) {
	switch ev.Kind {
	case EventPlaying:
		if !c.scrubbing {
			c.mode = Playing
		}
	case EventPaused:
		if c.mode != EndedAwaitingRepeat {
			c.mode = Paused
		}
	case EventEnded:
		c.Ended()
	}
}

// ScrubPress pauses playback while the user drags the timeline.
func (c *Controller) ScrubPress() error {
	if !c.scrubbing {
		c.scrubbing = true
		c.preScrub = c.mode
	}
	if err := c.player.Pause(); err != nil {
		return err
	}
	c.mode = Paused
	return nil
}

// ScrubRelease seeks to where the user let go and resumes playback unless
// the media was paused before the scrub began.
func (c *Controller) ScrubRelease(t timeline.Timestamp) error {
	prior := c.mode
	if c.scrubbing {
		prior = c.preScrub
	}
	c.scrubbing = false

	total, err := c.Duration()
	if err != nil {
		return err
	}
	if err := c.player.Seek(Clamp(t, total)); err != nil {
		return err
	}
	if prior == Paused {
		c.mode = Paused
		return nil
	}
	if err := c.player.Play(); err != nil {
		return err
	}
	c.mode = Playing
	return nil
}

// FastForward jumps to 1.5 times the current time. Reaching the end leaves
// the control waiting for a repeat.
func (c *Controller) FastForward() error {
	total, err := c.Duration()
	if err != nil {
		return err
	}
	target := timeline.Timestamp(float64(c.player.CurrentTime()) * skipFactor)
	if target >= total {
		if err := c.player.Seek(total); err != nil {
			return err
		}
		c.mode = EndedAwaitingRepeat
		return nil
	}
	if err := c.player.Seek(target); err != nil {
		return err
	}
	if err := c.player.Play(); err != nil {
		return err
	}
	c.mode = Playing
	return nil
}

// Rewind jumps back to the current time divided by 1.5.
func (c *Controller) Rewind() error {
	target := timeline.Timestamp(float64(c.player.CurrentTime()) / skipFactor)
	if c.mode == EndedAwaitingRepeat {
		if err := c.player.Pause(); err != nil {
			return err
		}
		c.mode = Paused
	}
	return c.player.Seek(target)
}

// Jump seeks to t and plays, used when a marker is opened.
func (c *Controller) Jump(t timeline.Timestamp) error {
	total, err := c.Duration()
	if err != nil {
		return err
	}
	if err := c.player.Seek(Clamp(t, total)); err != nil {
		return err
	}
	if err := c.player.Play(); err != nil {
		return err
	}
	c.mode = Playing
	return nil
}

// Clamp keeps a seek target inside [0, total - timeline.EndMargin].
func Clamp(t, total timeline.Timestamp) timeline.Timestamp {
	if t >= total {
		t = total - timeline.EndMargin
	}
	if t < 0 {
		t = 0
	}
	return t
}
