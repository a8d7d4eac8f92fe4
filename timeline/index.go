package timeline

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"time"
)

const (
	// MarkerWidth is the drawn width of a marker and the gap between a
	// marker and the start of its section overlay.
	MarkerWidth = 5.0

	// EndMargin keeps clamped times strictly inside the media so a seek or a
	// section end never lands on the end-of-media position.
	EndMargin = Timestamp(50 * time.Millisecond)
)

// Handle identifies a marker within one Index. Handles are never reused.
type Handle uint64

type Marker struct {
	Handle    Handle
	Record    Record
	Committed bool
	X         float64
	Fill      color.RGBA
	Section   *Section // only for committed non-moment markers
}

// Section is the overlay drawn from a marker to the end of its section.
type Section struct {
	Marker   Handle
	X, Width float64
	Fill     color.RGBA
}

// Index holds the markers of one media timeline in creation order and maps
// media time onto a display axis of a given extent.
type Index struct {
	total   Timestamp
	offset  float64 // added to every position, compensates for player chrome
	extent  float64
	markers []*Marker
	draft   *Marker
	next    Handle
}

func NewIndex(total Timestamp, offset float64) (*Index, error) {
	if total <= 0 {
		return nil, ErrDurationUnavailable
	}
	return &Index{total: total, offset: offset}, nil
}

func (i *Index) Total() Timestamp {
	return i.total
}

func (i *Index) Extent() float64 {
	return i.extent
}

// Position maps t linearly onto [offset, offset+extent].
func (i *Index) Position(t Timestamp, extent float64) (float64, error) {
	if t < 0 || t > i.total {
		return 0, &InvalidTimeError{Time: t, Total: i.total}
	}
	return i.position(t, extent), nil
}

func (i *Index) position(t Timestamp, extent float64) float64 {
	return t.Seconds()/i.total.Seconds()*extent + i.offset
}

// Markers returns all markers, including a pending draft, in creation order.
func (i *Index) Markers() []*Marker {
	return append([]*Marker(nil), i.markers...)
}

// Sorted returns the markers ordered by start time, then end time.
func (i *Index) Sorted() []*Marker {
	out := i.Markers()
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := out[a].Record, out[b].Record
		if ra.Start != rb.Start {
			return ra.Start < rb.Start
		}
		return endOf(ra) < endOf(rb)
	})
	return out
}

func endOf(r Record) Timestamp {
	if r.End == nil {
		return r.Start
	}
	return *r.End
}

// Records returns the records of committed markers in creation order.
func (i *Index) Records() []Record {
	var out []Record
	for _, m := range i.markers {
		if m.Committed {
			out = append(out, m.Record)
		}
	}
	return out
}

func (i *Index) Marker(h Handle) *Marker {
	for _, m := range i.markers {
		if m.Handle == h {
			return m
		}
	}
	return nil
}

// Draft returns the uncommitted marker, if any.
func (i *Index) Draft() *Marker {
	return i.draft
}

// AddDraft starts a new annotation at the given time. Only one draft may be
// open at a time.
func (i *Index) AddDraft(at Timestamp) (*Marker, error) {
	if i.draft != nil {
		return nil, ErrPendingAnnotation
	}
	x, err := i.Position(at, i.extent)
	if err != nil {
		return nil, err
	}
	m := i.add(Record{ID: newID(), Start: at})
	m.X = x
	m.Fill = DraftColor
	i.draft = m
	return m, nil
}

func (i *Index) add(r Record) *Marker {
	i.next++
	m := &Marker{Handle: i.next, Record: r}
	i.markers = append(i.markers, m)
	return m
}

// Commit validates f and writes it into the marker. For a draft that is not a
// moment, now becomes the end of its section. For a marker that is already
// committed only category, topic and body change.
func (i *Index) Commit(h Handle, f Fields, now Timestamp) error {
	m := i.Marker(h)
	if m == nil {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, h)
	}
	if !f.Category.Valid() {
		return &ValidationError{Reason: MissingCategory}
	}
	topic := strings.TrimSpace(f.Topic)
	if topic == "" {
		return &ValidationError{Reason: MissingTopic}
	}

	m.Record.Category = f.Category
	m.Record.Topic = topic
	m.Record.Body = f.Body
	m.Fill = ColorFor(f.Category)
	if m.Committed {
		if m.Section != nil {
			m.Section.Fill = SectionColorFor(m.Fill)
		}
		return nil
	}

	m.Record.Moment = f.Moment
	if !f.Moment {
		end := i.clampEnd(m.Record.Start, now)
		m.Record.End = &end
		m.Section = i.section(m)
	}
	m.Committed = true
	i.draft = nil
	return nil
}

func (i *Index) clampEnd(start, end Timestamp) Timestamp {
	if end >= i.total {
		end = i.total - EndMargin
	}
	if end < start {
		end = start
	}
	return end
}

// Import adds a record from a saved session as a committed marker, skipping
// the editor validation it already went through.
func (i *Index) Import(r Record) (*Marker, error) {
	if r.Start < 0 || r.Start > i.total {
		return nil, &InvalidTimeError{Time: r.Start, Total: i.total}
	}
	if !r.Moment {
		if r.End == nil {
			return nil, fmt.Errorf("section %s has no end", r.ID)
		}
		if *r.End < 0 || *r.End > i.total {
			return nil, &InvalidTimeError{Time: *r.End, Total: i.total}
		}
	}
	if r.ID == "" {
		r.ID = newID()
	}
	m := i.add(r)
	m.Committed = true
	m.Fill = ColorFor(r.Category)
	m.X = i.position(r.Start, i.extent)
	if !r.Moment {
		m.Section = i.section(m)
	}
	return m, nil
}

// Discard drops a draft the user abandoned.
func (i *Index) Discard(h Handle) error {
	m := i.Marker(h)
	if m == nil {
		return fmt.Errorf("%w: %d", ErrUnknownMarker, h)
	}
	if m.Committed {
		return ErrCommitted
	}
	for idx, mm := range i.markers {
		if mm == m {
			i.markers = append(i.markers[:idx], i.markers[idx+1:]...)
			break
		}
	}
	if i.draft == m {
		i.draft = nil
	}
	return nil
}

// Reflow recomputes every marker and section position for a new extent.
func (i *Index) Reflow(extent float64) {
	i.extent = extent
	for _, m := range i.markers {
		m.X = i.position(m.Record.Start, extent)
		if m.Section != nil {
			*m.Section = *i.section(m)
		}
	}
}

func (i *Index) section(m *Marker) *Section {
	start := i.position(m.Record.Start, i.extent)
	end := i.position(*m.Record.End, i.extent)
	width := end - start - MarkerWidth
	if width < 0 {
		width = 0
	}
	return &Section{
		Marker: m.Handle,
		X:      start + MarkerWidth,
		Width:  width,
		Fill:   SectionColorFor(m.Fill),
	}
}
