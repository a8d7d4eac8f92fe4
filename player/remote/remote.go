package remote

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/progrium/media-notes/playback"
	"github.com/progrium/media-notes/timeline"
)

// Offset shifts markers to line up with the embedded player's progress bar.
const Offset = 2.0

//go:embed page.html
var Page []byte

var ErrNotAttached = errors.New("no player page attached")

// Player drives a video in an embedded player page. Times are cached from
// the page's reports, so reads never block on the page.
type Player struct {
	mu      sync.Mutex
	script  Script
	videoID string
	current timeline.Timestamp
	total   timeline.Timestamp
	volume  *float64 // applied on Attach
}

var _ playback.Player = (*Player)(nil)
var _ playback.VolumeSetter = (*Player)(nil)

func New(videoID string) *Player {
	return &Player{videoID: videoID}
}

func (p *Player) VideoID() string {
	return p.videoID
}

// Attach loads the video into the page behind s. A later Attach replaces
// the page, as when the page is reloaded.
func (p *Player) Attach(s Script) error {
	p.mu.Lock()
	p.script = s
	volume := p.volume
	p.mu.Unlock()
	if err := s.Exec("setVideoID", p.videoID); err != nil {
		return err
	}
	if volume != nil {
		return s.Exec("setVolume", *volume*100)
	}
	return nil
}

func (p *Player) exec(call string, args ...any) error {
	p.mu.Lock()
	s := p.script
	p.mu.Unlock()
	if s == nil {
		return ErrNotAttached
	}
	return s.Exec(call, args...)
}

func (p *Player) Play() error {
	return p.exec("playVideo")
}

func (p *Player) Pause() error {
	return p.exec("pauseVideo")
}

func (p *Player) Stop() error {
	return p.exec("stopVideo")
}

func (p *Player) Seek(t timeline.Timestamp) error {
	if err := p.exec("seekInVideo", t.Seconds()); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = t
	p.mu.Unlock()
	return nil
}

// CurrentTime asks the page for a fresh report and returns the last one.
func (p *Player) CurrentTime() timeline.Timestamp {
	if err := p.exec("getCurrentTime"); err != nil && !errors.Is(err, ErrNotAttached) {
		log.Println("remote:", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Player) TotalDuration() (timeline.Timestamp, error) {
	p.mu.Lock()
	total := p.total
	p.mu.Unlock()
	if total > 0 {
		return total, nil
	}
	if err := p.exec("getTotalDuration"); err != nil && !errors.Is(err, ErrNotAttached) {
		return 0, err
	}
	return 0, timeline.ErrDurationUnavailable
}

func (p *Player) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume %v out of range", v)
	}
	p.mu.Lock()
	p.volume = &v
	p.mu.Unlock()
	err := p.exec("setVolume", v*100)
	if errors.Is(err, ErrNotAttached) {
		return nil
	}
	return err
}

// Handle folds a report into the cached state and translates it into an
// Event. ok is false for reports that carry nothing usable, including
// reports about another video still in flight from before a switch.
func (p *Player) Handle(r Report) (ev playback.Event, ok bool) {
	if r.VideoID != p.videoID {
		return ev, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch r.Event {
	case "ready":
		return playback.Event{Kind: playback.EventReady}, true
	case "time":
		if r.Time < 0 {
			return ev, false
		}
		p.current = timeline.Seconds(r.Time)
		return playback.Event{Kind: playback.EventTime, Time: p.current}, true
	case "duration":
		if r.Duration <= 0 {
			return ev, false
		}
		p.total = timeline.Seconds(r.Duration)
		return playback.Event{Kind: playback.EventDuration, Duration: p.total}, true
	case "state":
		switch r.State {
		case "playing":
			return playback.Event{Kind: playback.EventPlaying}, true
		case "paused":
			return playback.Event{Kind: playback.EventPaused}, true
		case "ended":
			return playback.Event{Kind: playback.EventEnded}, true
		}
	}
	return ev, false
}

// VideoID pulls the video ID out of a watch, embed or short link.
func VideoID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", err
	}
	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}
	if _, id, ok := strings.Cut(u.Path, "/embed/"); ok && id != "" {
		return strings.Trim(id, "/"), nil
	}
	if u.Host == "youtu.be" {
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("no video id in %q", link)
}
