package notetaker

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/progrium/media-notes/playback"
	"github.com/progrium/media-notes/session"
	"github.com/progrium/media-notes/timeline"
)

var ErrNoMedia = errors.New("no media open")

// Backend is an opened media player and the media it plays.
type Backend struct {
	Media  session.Media
	Player playback.Player
	// Offset shifts marker positions to line up with the player's
	// progress bar.
	Offset float64
	// Close releases the player once another backend replaces it.
	Close func()
}

type backend struct {
	Backend
	ctrl  *playback.Controller
	index *timeline.Index
	prior *session.Session
	err   error
}

// Taker ties the active player, its controller and the timeline index
// together. Opening new media replaces all three at once.
type Taker struct {
	mu     sync.Mutex
	b      *backend
	extent float64
	volume float64
}

func New(extent, volume float64) *Taker {
	return &Taker{extent: extent, volume: volume}
}

// Open makes be the active backend, dropping the previous one with its
// markers. If prior is given its records are replayed once the duration is
// known. The returned Handler takes the backend's events; events that
// arrive after another Open are ignored.
func (t *Taker) Open(be Backend, prior *session.Session) playback.Handler {
	var fallback timeline.Timestamp
	if prior != nil {
		fallback = prior.Total
	}
	b := &backend{
		Backend: be,
		ctrl:    playback.NewController(be.Player, fallback),
		prior:   prior,
	}

	t.mu.Lock()
	old := t.b
	t.b = b
	if v, ok := be.Player.(playback.VolumeSetter); ok {
		if err := v.SetVolume(t.volume); err != nil {
			log.Println("notetaker: volume:", err)
		}
	}
	t.build(b)
	t.mu.Unlock()

	if old != nil {
		if err := old.Player.Stop(); err != nil {
			log.Println("notetaker: stop:", err)
		}
		if old.Close != nil {
			old.Close()
		}
	}

	return func(ev playback.Event) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.b != b {
			return
		}
		b.ctrl.Observe(ev)
		switch ev.Kind {
		case playback.EventReady, playback.EventDuration:
			t.build(b)
		}
	}
}

// build creates the index as soon as a duration is known. Failure to replay
// the prior session is kept for the UI, and the index stays empty.
func (t *Taker) build(b *backend) {
	if b.index != nil {
		return
	}
	total, err := b.ctrl.Duration()
	if err != nil {
		return
	}
	idx, err := timeline.NewIndex(total, b.Offset)
	if err != nil {
		return
	}
	idx.Reflow(t.extent)
	if b.prior != nil {
		if err := b.prior.Replay(idx); err != nil {
			b.err = fmt.Errorf("continue %s: %w", b.prior.Name, err)
			log.Println("notetaker:", b.err)
		}
		b.prior = nil
	}
	b.index = idx
}

func (t *Taker) active() (*backend, error) {
	if t.b == nil {
		return nil, ErrNoMedia
	}
	return t.b, nil
}

func (t *Taker) activeIndex() (*backend, *timeline.Index, error) {
	b, err := t.active()
	if err != nil {
		return nil, nil, err
	}
	t.build(b)
	if b.index == nil {
		return nil, nil, timeline.ErrDurationUnavailable
	}
	return b, b.index, nil
}

// Media returns what is open, if anything.
func (t *Taker) Media() (session.Media, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.b == nil {
		return session.Media{}, false
	}
	return t.b.Media, true
}

// BeginDraft starts a note at the current playback time.
func (t *Taker) BeginDraft() (timeline.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, idx, err := t.activeIndex()
	if err != nil {
		return 0, err
	}
	m, err := idx.AddDraft(b.Player.CurrentTime())
	if err != nil {
		return 0, err
	}
	return m.Handle, nil
}

// CommitDraft commits the editor fields into marker h. A section ends at
// the current playback time.
func (t *Taker) CommitDraft(h timeline.Handle, f timeline.Fields) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, idx, err := t.activeIndex()
	if err != nil {
		return err
	}
	return idx.Commit(h, f, b.Player.CurrentTime())
}

func (t *Taker) DiscardDraft(h timeline.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, idx, err := t.activeIndex()
	if err != nil {
		return err
	}
	return idx.Discard(h)
}

// OpenMarker returns the record of marker h for the editor. Opening a
// committed marker also plays the media from its start.
func (t *Taker) OpenMarker(h timeline.Handle) (timeline.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, idx, err := t.activeIndex()
	if err != nil {
		return timeline.Record{}, err
	}
	m := idx.Marker(h)
	if m == nil {
		return timeline.Record{}, fmt.Errorf("%w: %d", timeline.ErrUnknownMarker, h)
	}
	if m.Committed {
		if err := b.ctrl.Jump(m.Record.Start); err != nil {
			return timeline.Record{}, err
		}
	}
	return m.Record, nil
}

func (t *Taker) Reflow(extent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.extent = extent
	if t.b != nil && t.b.index != nil {
		t.b.index.Reflow(extent)
	}
}

// Snapshot captures the committed markers of the open media.
func (t *Taker) Snapshot() (*session.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, idx, err := t.activeIndex()
	if err != nil {
		if errors.Is(err, ErrNoMedia) {
			return nil, timeline.ErrNothingToSave
		}
		return nil, err
	}
	return session.Capture(idx, b.Media)
}

// Save encodes the committed markers of the open media.
func (t *Taker) Save() ([]byte, error) {
	s, err := t.Snapshot()
	if err != nil {
		return nil, err
	}
	return session.Marshal(s)
}

// Load decodes a saved session. Nothing open is touched; pass the session
// to Open to continue it.
func (t *Taker) Load(data []byte) (*session.Session, error) {
	return session.Unmarshal(data)
}

func (t *Taker) Extract() (string, error) {
	s, err := t.Snapshot()
	if err != nil {
		return "", err
	}
	return s.Extract()
}

func (t *Taker) control(fn func(c *playback.Controller) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, err := t.active()
	if err != nil {
		return err
	}
	return fn(b.ctrl)
}

func (t *Taker) Toggle() error {
	return t.control((*playback.Controller).Toggle)
}

func (t *Taker) FastForward() error {
	return t.control((*playback.Controller).FastForward)
}

func (t *Taker) Rewind() error {
	return t.control((*playback.Controller).Rewind)
}

func (t *Taker) ScrubPress() error {
	return t.control((*playback.Controller).ScrubPress)
}

func (t *Taker) ScrubRelease(at timeline.Timestamp) error {
	return t.control(func(c *playback.Controller) error {
		return c.ScrubRelease(at)
	})
}

// SetVolume applies v to the open player and to players opened later.
func (t *Taker) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume %v out of range", v)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = v
	if t.b == nil {
		return nil
	}
	if vs, ok := t.b.Player.(playback.VolumeSetter); ok {
		return vs.SetVolume(v)
	}
	return nil
}
