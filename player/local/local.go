package local

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"github.com/progrium/media-notes/playback"
	"github.com/progrium/media-notes/timeline"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aif":  true,
	".aiff": true,
}

// AudioOnly reports whether path names an audio file, by extension.
func AudioOnly(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// Output is where a Player sends its samples. Lock must be held while
// touching streamers that Output is playing.
type Output interface {
	Play(s ...beep.Streamer)
	Lock()
	Unlock()
}

type speakerOutput struct{}

func (speakerOutput) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (speakerOutput) Lock()                   { speaker.Lock() }
func (speakerOutput) Unlock()                 { speaker.Unlock() }

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// Speaker initializes the default audio device at rate on first use and
// returns the rate it actually runs at.
func Speaker(rate beep.SampleRate) (Output, beep.SampleRate, error) {
	speakerOnce.Do(func() {
		speakerRate = rate
		speakerErr = speaker.Init(rate, rate.N(time.Second/10))
	})
	return speakerOutput{}, speakerRate, speakerErr
}

// Player plays a decoded audio file. Calls act on the stream immediately,
// so state is readable right after a call returns.
type Player struct {
	out      Output
	stream   beep.StreamSeekCloser
	format   beep.Format
	rate     beep.SampleRate
	track    *trackStreamer
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	attached bool

	lastTime  timeline.Timestamp
	endedSent bool
}

var _ playback.Player = (*Player)(nil)
var _ playback.VolumeSetter = (*Player)(nil)

// Open decodes the wav or mp3 file at path for playback on out, which
// plays at rate.
func Open(path string, out Output, rate beep.SampleRate) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	default:
		err = fmt.Errorf("unsupported media: %s", filepath.Base(path))
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return New(stream, format, out, rate), nil
}

func New(stream beep.StreamSeekCloser, format beep.Format, out Output, rate beep.SampleRate) *Player {
	p := &Player{
		out:    out,
		stream: stream,
		format: format,
		rate:   rate,
		track:  &trackStreamer{StreamSeeker: stream},
	}
	var s beep.Streamer = p.track
	if format.SampleRate != rate {
		s = beep.Resample(4, format.SampleRate, rate, s)
	}
	p.ctrl = &beep.Ctrl{Streamer: s, Paused: true}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	return p
}

func (p *Player) Play() error {
	p.out.Lock()
	if p.ctrl.Streamer == nil {
		p.out.Unlock()
		return errors.New("player closed")
	}
	p.ctrl.Paused = false
	attach := !p.attached || p.track.ended
	if attach {
		p.attached = true
		p.track.ended = false
		p.endedSent = false
	}
	p.out.Unlock()

	if attach {
		p.out.Play(p.volume)
	}
	return nil
}

func (p *Player) Pause() error {
	p.out.Lock()
	defer p.out.Unlock()
	p.ctrl.Paused = true
	return nil
}

func (p *Player) Stop() error {
	p.out.Lock()
	defer p.out.Unlock()
	p.ctrl.Paused = true
	return p.seek(0)
}

func (p *Player) Seek(t timeline.Timestamp) error {
	p.out.Lock()
	defer p.out.Unlock()
	return p.seek(p.format.SampleRate.N(time.Duration(t)))
}

func (p *Player) seek(n int) error {
	if n < 0 {
		n = 0
	}
	if n > p.stream.Len() {
		n = p.stream.Len()
	}
	if err := p.stream.Seek(n); err != nil {
		return err
	}
	if n < p.stream.Len() {
		p.endedSent = false
	}
	return nil
}

func (p *Player) CurrentTime() timeline.Timestamp {
	p.out.Lock()
	defer p.out.Unlock()
	return p.currentTime()
}

func (p *Player) currentTime() timeline.Timestamp {
	return timeline.Timestamp(p.format.SampleRate.D(p.stream.Position()))
}

func (p *Player) TotalDuration() (timeline.Timestamp, error) {
	n := p.stream.Len()
	if n <= 0 {
		return 0, timeline.ErrDurationUnavailable
	}
	return timeline.Timestamp(p.format.SampleRate.D(n)), nil
}

func (p *Player) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume %v out of range", v)
	}
	p.out.Lock()
	defer p.out.Unlock()
	p.volume.Silent = v == 0
	if v > 0 {
		p.volume.Volume = math.Log2(v)
	}
	return nil
}

// Close stops playback and releases the file.
func (p *Player) Close() error {
	p.out.Lock()
	p.ctrl.Paused = true
	p.ctrl.Streamer = nil
	p.out.Unlock()
	return p.stream.Close()
}

// Poll reports what changed since the last Poll: a new current time, and
// the end of the media once per arrival.
func (p *Player) Poll() []playback.Event {
	p.out.Lock()
	now := p.currentTime()
	ended := p.track.ended && !p.endedSent
	if ended {
		p.endedSent = true
	}
	p.out.Unlock()

	var events []playback.Event
	if now != p.lastTime {
		p.lastTime = now
		events = append(events, playback.Event{Kind: playback.EventTime, Time: now})
	}
	if ended {
		events = append(events, playback.Event{Kind: playback.EventEnded})
	}
	return events
}

// Watch reports readiness and the duration, then polls every interval until
// ctx is done. h is never called with the output locked.
func (p *Player) Watch(ctx context.Context, interval time.Duration, h playback.Handler) {
	h(playback.Event{Kind: playback.EventReady})
	if total, err := p.TotalDuration(); err == nil {
		h(playback.Event{Kind: playback.EventDuration, Duration: total})
	} else {
		log.Println("local:", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ev := range p.Poll() {
				h(ev)
			}
		}
	}
}
