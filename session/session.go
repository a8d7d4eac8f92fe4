package session

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/progrium/media-notes/timeline"
)

const (
	Ext = ".dat"

	magic   = "media-notes"
	version = 1
)

// Media identifies what a session annotates.
type Media struct {
	Local     bool
	AudioOnly bool
	Source    string // file URI for local media, video ID for remote media
	Name      string
}

// Session is the saved form of an annotated timeline.
type Session struct {
	Media
	Records []timeline.Record
	Total   timeline.Timestamp
}

// CorruptSessionError is returned for data that does not decode into a
// valid session.
type CorruptSessionError struct {
	Err error
}

func (e *CorruptSessionError) Error() string {
	return "corrupt session: " + e.Err.Error()
}

func (e *CorruptSessionError) Unwrap() error {
	return e.Err
}

type file struct {
	Magic   string
	Version int
	Session *Session
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Capture builds a session from the committed markers of idx. Drafts are
// left out.
func Capture(idx *timeline.Index, media Media) (*Session, error) {
	records := idx.Records()
	if len(records) == 0 {
		return nil, timeline.ErrNothingToSave
	}
	for i, r := range records {
		if r.End != nil {
			end := *r.End
			records[i].End = &end
		}
	}
	return &Session{
		Media:   media,
		Records: records,
		Total:   idx.Total(),
	}, nil
}

func Marshal(s *Session) ([]byte, error) {
	if len(s.Records) == 0 {
		return nil, timeline.ErrNothingToSave
	}
	return encMode.Marshal(file{
		Magic:   magic,
		Version: version,
		Session: s,
	})
}

func Unmarshal(data []byte) (*Session, error) {
	var f file
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, &CorruptSessionError{Err: err}
	}
	if f.Magic != magic {
		return nil, &CorruptSessionError{Err: fmt.Errorf("unknown format %q", f.Magic)}
	}
	if f.Version < 1 {
		return nil, &CorruptSessionError{Err: fmt.Errorf("bad version %d", f.Version)}
	}
	if f.Session == nil {
		return nil, &CorruptSessionError{Err: errors.New("no session")}
	}
	return f.Session, nil
}

func (s *Session) UnmarshalCBOR(data []byte) error {
	type Session2 Session
	var s2 Session2
	if err := cbor.Unmarshal(data, &s2); err != nil {
		return err
	}
	if err := (*Session)(&s2).validate(); err != nil {
		return err
	}
	*s = Session(s2)
	return nil
}

func (s *Session) validate() error {
	if s.Total <= 0 {
		return fmt.Errorf("bad duration %v", s.Total)
	}
	for _, r := range s.Records {
		if r.Start < 0 || r.Start > s.Total {
			return fmt.Errorf("record %s starts outside the media", r.ID)
		}
		if r.Moment {
			continue
		}
		if r.End == nil {
			return fmt.Errorf("section %s has no end", r.ID)
		}
		if *r.End < r.Start || *r.End > s.Total {
			return fmt.Errorf("section %s ends outside [start, total]", r.ID)
		}
	}
	return nil
}

// Replay imports every record into idx. Nothing is imported unless every
// record fits the index.
func (s *Session) Replay(idx *timeline.Index) error {
	scratch, err := timeline.NewIndex(idx.Total(), 0)
	if err != nil {
		return err
	}
	for _, r := range s.Records {
		if _, err := scratch.Import(r); err != nil {
			return fmt.Errorf("replay %s: %w", r.ID, err)
		}
	}
	for _, r := range s.Records {
		if _, err := idx.Import(r); err != nil {
			return err
		}
	}
	return nil
}

// Extract renders the session as text notes.
func (s *Session) Extract() (string, error) {
	return timeline.Extract(s.Name, s.Records)
}
