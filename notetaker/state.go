package notetaker

import (
	"github.com/progrium/media-notes/session"
	"github.com/progrium/media-notes/timeline"
)

// State is what the UI draws.
type State struct {
	Media   *session.Media  `json:"media,omitempty"`
	Mode    string          `json:"mode"`
	Clock   string          `json:"clock"`
	Current float64         `json:"current"`
	Total   float64         `json:"total"`
	Extent  float64         `json:"extent"`
	Volume  float64         `json:"volume"`
	Markers []MarkerState   `json:"markers"`
	Draft   timeline.Handle `json:"draft,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type MarkerState struct {
	Handle    timeline.Handle `json:"handle"`
	X         float64         `json:"x"`
	Fill      string          `json:"fill"`
	Committed bool            `json:"committed"`
	Moment    bool            `json:"moment"`
	Time      string          `json:"time"`
	Category  string          `json:"category,omitempty"`
	Label     string          `json:"label,omitempty"`
	Topic     string          `json:"topic,omitempty"`
	Body      string          `json:"body,omitempty"`
	Section   *SectionState   `json:"section,omitempty"`
}

type SectionState struct {
	X     float64 `json:"x"`
	Width float64 `json:"width"`
	Fill  string  `json:"fill"`
}

func (t *Taker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := State{
		Mode:    "paused",
		Clock:   timeline.Clock(0, 0),
		Extent:  t.extent,
		Volume:  t.volume,
		Markers: []MarkerState{},
	}
	b := t.b
	if b == nil {
		return st
	}
	media := b.Media
	st.Media = &media
	st.Mode = b.ctrl.Mode().String()
	if b.err != nil {
		st.Error = b.err.Error()
	}

	current := b.Player.CurrentTime()
	total, _ := b.ctrl.Duration()
	st.Current = current.Seconds()
	st.Total = total.Seconds()
	st.Clock = timeline.Clock(current, total)

	if b.index == nil {
		return st
	}
	if d := b.index.Draft(); d != nil {
		st.Draft = d.Handle
	}
	for _, m := range b.index.Sorted() {
		ms := MarkerState{
			Handle:    m.Handle,
			X:         m.X,
			Fill:      timeline.Hex(m.Fill),
			Committed: m.Committed,
			Moment:    m.Record.Moment,
			Time:      m.Record.TimeRange(),
			Topic:     m.Record.Topic,
			Body:      m.Record.Body,
		}
		if m.Record.Category != "" {
			ms.Category = string(m.Record.Category)
			ms.Label = m.Record.Category.Label()
		}
		if m.Section != nil {
			ms.Section = &SectionState{
				X:     m.Section.X,
				Width: m.Section.Width,
				Fill:  timeline.Hex(m.Section.Fill),
			}
		}
		st.Markers = append(st.Markers, ms)
	}
	return st
}
