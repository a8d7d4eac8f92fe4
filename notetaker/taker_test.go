package notetaker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/progrium/media-notes/playback"
	"github.com/progrium/media-notes/session"
	"github.com/progrium/media-notes/timeline"
	"github.com/stretchr/testify/require"
	"gotest.tools/assert"
)

type fakePlayer struct {
	current timeline.Timestamp
	total   timeline.Timestamp
	volume  float64
	calls   []string
}

func (p *fakePlayer) Play() error {
	p.calls = append(p.calls, "play")
	return nil
}

func (p *fakePlayer) Pause() error {
	p.calls = append(p.calls, "pause")
	return nil
}

func (p *fakePlayer) Stop() error {
	p.current = 0
	p.calls = append(p.calls, "stop")
	return nil
}

func (p *fakePlayer) Seek(t timeline.Timestamp) error {
	p.current = t
	p.calls = append(p.calls, fmt.Sprintf("seek %v", t.Seconds()))
	return nil
}

func (p *fakePlayer) CurrentTime() timeline.Timestamp {
	return p.current
}

func (p *fakePlayer) TotalDuration() (timeline.Timestamp, error) {
	if p.total == 0 {
		return 0, timeline.ErrDurationUnavailable
	}
	return p.total, nil
}

func (p *fakePlayer) SetVolume(v float64) error {
	p.volume = v
	return nil
}

func sec(s float64) timeline.Timestamp {
	return timeline.Seconds(s)
}

var testMedia = session.Media{
	Local:     true,
	AudioOnly: true,
	Source:    "file:///tmp/lecture.mp3",
	Name:      "lecture.mp3",
}

func openTest(t *testing.T, total float64) (*Taker, *fakePlayer) {
	t.Helper()
	tk := New(1000, 0.5)
	p := &fakePlayer{total: sec(total)}
	tk.Open(Backend{Media: testMedia, Player: p}, nil)
	return tk, p
}

func TestNoMedia(t *testing.T) {
	tk := New(1000, 0.5)
	_, err := tk.BeginDraft()
	assert.Assert(t, errors.Is(err, ErrNoMedia))
	assert.Assert(t, errors.Is(tk.Toggle(), ErrNoMedia))
	_, err = tk.Save()
	assert.Assert(t, errors.Is(err, timeline.ErrNothingToSave))
	_, ok := tk.Media()
	assert.Assert(t, !ok)

	st := tk.State()
	assert.Equal(t, "00:00 / 00:00", st.Clock)
	assert.Assert(t, st.Media == nil)
}

func TestDurationDeferred(t *testing.T) {
	tk := New(1000, 0.5)
	p := &fakePlayer{}
	h := tk.Open(Backend{Media: testMedia, Player: p}, nil)
	assert.Equal(t, 0.5, p.volume)

	_, err := tk.BeginDraft()
	assert.Assert(t, errors.Is(err, timeline.ErrDurationUnavailable))

	p.total = sec(600)
	h(playback.Event{Kind: playback.EventDuration, Duration: p.total})
	_, err = tk.BeginDraft()
	require.NoError(t, err)
}

func TestDraftLifecycle(t *testing.T) {
	tk, p := openTest(t, 600)
	p.current = sec(10)

	h, err := tk.BeginDraft()
	require.NoError(t, err)
	_, err = tk.BeginDraft()
	assert.Assert(t, errors.Is(err, timeline.ErrPendingAnnotation))

	err = tk.CommitDraft(h, timeline.Fields{Category: timeline.Partial, Topic: "  "})
	var verr *timeline.ValidationError
	assert.Assert(t, errors.As(err, &verr))
	assert.Equal(t, timeline.MissingTopic, verr.Reason)
	assert.Equal(t, h, tk.State().Draft)

	require.NoError(t, tk.DiscardDraft(h))
	assert.Equal(t, 0, len(tk.State().Markers))

	h, err = tk.BeginDraft()
	require.NoError(t, err)
	require.NoError(t, tk.CommitDraft(h, timeline.Fields{Category: timeline.Notable, Topic: "aside", Moment: true}))
	assert.Assert(t, errors.Is(tk.DiscardDraft(h), timeline.ErrCommitted))

	_, err = tk.BeginDraft()
	require.NoError(t, err)
}

func TestSectionState(t *testing.T) {
	tk, p := openTest(t, 600)
	p.current = sec(100)
	h, err := tk.BeginDraft()
	require.NoError(t, err)
	p.current = sec(160)
	require.NoError(t, tk.CommitDraft(h, timeline.Fields{Category: timeline.Partial, Topic: "derivation"}))

	st := tk.State()
	require.Equal(t, 1, len(st.Markers))
	m := st.Markers[0]
	assert.Equal(t, "01:40 - 02:40", m.Time)
	assert.Equal(t, "I understood some of it.", m.Label)
	require.NotNil(t, m.Section)
	require.InDelta(t, 100.0/600*1000, m.X, 1e-9)
	require.InDelta(t, 100.0-timeline.MarkerWidth, m.Section.Width, 1e-9)
	assert.Equal(t, "02:40 / 10:00", st.Clock)

	tk.Reflow(500)
	st = tk.State()
	require.InDelta(t, 50.0-timeline.MarkerWidth, st.Markers[0].Section.Width, 1e-9)
	assert.Equal(t, 500.0, st.Extent)
}

func TestOpenMarker(t *testing.T) {
	tk, p := openTest(t, 600)
	p.current = sec(100)
	h, err := tk.BeginDraft()
	require.NoError(t, err)

	r, err := tk.OpenMarker(h)
	require.NoError(t, err)
	assert.Equal(t, sec(100), r.Start)
	assert.Equal(t, 0, len(p.calls))

	p.current = sec(160)
	require.NoError(t, tk.CommitDraft(h, timeline.Fields{Category: timeline.Struggled, Topic: "proof"}))
	p.current = sec(300)

	r, err = tk.OpenMarker(h)
	require.NoError(t, err)
	assert.Equal(t, "proof", r.Topic)
	assert.DeepEqual(t, []string{"seek 100", "play"}, p.calls)
	assert.Equal(t, "playing", tk.State().Mode)

	_, err = tk.OpenMarker(99)
	assert.Assert(t, errors.Is(err, timeline.ErrUnknownMarker))
}

func TestExtractMoment(t *testing.T) {
	tk, p := openTest(t, 600)
	_, err := tk.Extract()
	assert.Assert(t, errors.Is(err, timeline.ErrNothingToSave))

	p.current = sec(30)
	h, err := tk.BeginDraft()
	require.NoError(t, err)
	require.NoError(t, tk.CommitDraft(h, timeline.Fields{Category: timeline.MostlyUnderstood, Topic: "intro", Moment: true}))

	text, err := tk.Extract()
	require.NoError(t, err)
	assert.Assert(t, strings.HasPrefix(text, "lecture.mp3\n\n00:30\nTopic: intro\nType: I understood the majority of it.\n"), text)
}

func TestSaveAndContinue(t *testing.T) {
	tk, p := openTest(t, 600)
	p.current = sec(100)
	h, err := tk.BeginDraft()
	require.NoError(t, err)
	p.current = sec(160)
	require.NoError(t, tk.CommitDraft(h, timeline.Fields{Category: timeline.Partial, Topic: "derivation", Body: "see p. 4"}))
	_, err = tk.BeginDraft()
	require.NoError(t, err)

	data, err := tk.Save()
	require.NoError(t, err)
	before := tk.State()

	prior, err := tk.Load(data)
	require.NoError(t, err)
	assert.Equal(t, testMedia, prior.Media)
	assert.Equal(t, 1, len(prior.Records))
	assert.DeepEqual(t, before, tk.State())

	next := &fakePlayer{}
	h2 := tk.Open(Backend{Media: prior.Media, Player: next}, prior)
	assert.DeepEqual(t, []string{"stop"}, p.calls)

	st := tk.State()
	require.Equal(t, 1, len(st.Markers))
	assert.Assert(t, st.Markers[0].Committed)
	assert.Equal(t, "see p. 4", st.Markers[0].Body)
	assert.Equal(t, timeline.Handle(0), st.Draft)

	next.total = sec(600)
	h2(playback.Event{Kind: playback.EventDuration, Duration: next.total})
	assert.Equal(t, 1, len(tk.State().Markers))
}

func TestLoadCorrupt(t *testing.T) {
	tk, p := openTest(t, 600)
	p.current = sec(5)
	h, err := tk.BeginDraft()
	require.NoError(t, err)

	_, err = tk.Load([]byte("garbage"))
	var corrupt *session.CorruptSessionError
	assert.Assert(t, errors.As(err, &corrupt))
	assert.Equal(t, h, tk.State().Draft)
}

func TestContinueIntoShorterMedia(t *testing.T) {
	end := sec(500)
	prior := &session.Session{
		Media:   testMedia,
		Records: []timeline.Record{{ID: "a", Start: sec(400), End: &end, Category: timeline.Partial, Topic: "late"}},
		Total:   sec(600),
	}
	tk := New(1000, 0.5)
	tk.Open(Backend{Media: testMedia, Player: &fakePlayer{total: sec(120)}}, prior)

	st := tk.State()
	assert.Equal(t, 0, len(st.Markers))
	assert.Assert(t, strings.Contains(st.Error, "continue lecture.mp3"), st.Error)
}

func TestSwapIgnoresStaleEvents(t *testing.T) {
	tk := New(1000, 0.5)
	first := &fakePlayer{total: sec(60)}
	closed := false
	h1 := tk.Open(Backend{Media: testMedia, Player: first, Close: func() { closed = true }}, nil)
	_, err := tk.BeginDraft()
	require.NoError(t, err)

	second := &fakePlayer{total: sec(90)}
	h2 := tk.Open(Backend{Media: session.Media{Source: "abc", Name: "https://youtu.be/abc"}, Player: second, Offset: 2}, nil)
	assert.Assert(t, closed)
	assert.DeepEqual(t, []string{"stop"}, first.calls)

	h1(playback.Event{Kind: playback.EventEnded})
	st := tk.State()
	assert.Equal(t, "paused", st.Mode)
	assert.Equal(t, 0, len(st.Markers))
	assert.Equal(t, "https://youtu.be/abc", st.Media.Name)

	h2(playback.Event{Kind: playback.EventEnded})
	assert.Equal(t, "ended", tk.State().Mode)

	second.current = sec(45)
	h, err := tk.BeginDraft()
	require.NoError(t, err)
	r, err := tk.OpenMarker(h)
	require.NoError(t, err)
	assert.Equal(t, sec(45), r.Start)
	require.InDelta(t, 45.0/90*1000+2, tk.State().Markers[0].X, 1e-9)
}

func TestTransport(t *testing.T) {
	tk, p := openTest(t, 120)
	require.NoError(t, tk.Toggle())
	p.current = sec(40)
	require.NoError(t, tk.FastForward())
	require.NoError(t, tk.ScrubPress())
	require.NoError(t, tk.ScrubRelease(sec(500)))
	p.current = sec(90)
	require.NoError(t, tk.Rewind())

	clamped := fmt.Sprintf("seek %v", playback.Clamp(sec(500), sec(120)).Seconds())
	assert.DeepEqual(t, []string{"play", "seek 60", "play", "pause", clamped, "play", "seek 60"}, p.calls)
}

func TestSetVolume(t *testing.T) {
	tk, p := openTest(t, 120)
	require.NoError(t, tk.SetVolume(0.8))
	assert.Equal(t, 0.8, p.volume)
	assert.Assert(t, tk.SetVolume(2) != nil)

	next := &fakePlayer{total: sec(10)}
	tk.Open(Backend{Media: testMedia, Player: next}, nil)
	assert.Equal(t, 0.8, next.volume)
	assert.Equal(t, 0.8, tk.State().Volume)
}
