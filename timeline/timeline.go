package timeline

import (
	"time"

	"github.com/rs/xid"
)

type Timestamp time.Duration // relative to media start
type ID string

func newID() ID {
	return ID(xid.New().String())
}

// Seconds builds a Timestamp from fractional seconds, the unit players report in.
func Seconds(s float64) Timestamp {
	return Timestamp(s * float64(time.Second))
}

func (t Timestamp) Seconds() float64 {
	return time.Duration(t).Seconds()
}

func (t Timestamp) String() string {
	return Format(t)
}

// Category is how well the note taker understood the annotated part of the media.
type Category string

const (
	Struggled        Category = "struggled"
	Partial          Category = "partial"
	MostlyUnderstood Category = "mostly-understood"
	Notable          Category = "notable"
)

var Categories = []Category{Struggled, Partial, MostlyUnderstood, Notable}

func (c Category) Valid() bool {
	switch c {
	case Struggled, Partial, MostlyUnderstood, Notable:
		return true
	}
	return false
}

// Label is the sentence shown in the editor and written to extracted notes.
func (c Category) Label() string {
	switch c {
	case Struggled:
		return "I barely understood anything!"
	case Partial:
		return "I understood some of it."
	case MostlyUnderstood:
		return "I understood the majority of it."
	case Notable:
		return "I noticed something extra..."
	}
	return string(c)
}

// Record is the persisted part of a note. End is nil for moments and for
// drafts that have not been committed yet. An empty Body means no body.
type Record struct {
	ID       ID
	Start    Timestamp
	End      *Timestamp
	Moment   bool
	Category Category
	Topic    string
	Body     string
}

// TimeRange formats the record's anchor: a single time for moments,
// "start - end" for sections.
func (r Record) TimeRange() string {
	if r.Moment || r.End == nil {
		return Format(r.Start)
	}
	return FormatRange(r.Start, *r.End)
}

// Fields are the editable parts of a record submitted from the note editor.
type Fields struct {
	Category Category
	Topic    string
	Body     string
	Moment   bool
}
