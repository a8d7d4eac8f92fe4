package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/progrium/media-notes/notetaker"
	"github.com/progrium/media-notes/session"
	"github.com/progrium/media-notes/store"
	"github.com/progrium/media-notes/timeline"
	"github.com/stretchr/testify/require"
	"gotest.tools/assert"
)

type fakePlayer struct {
	current timeline.Timestamp
}

func (p *fakePlayer) Play() error                     { return nil }
func (p *fakePlayer) Pause() error                    { return nil }
func (p *fakePlayer) Stop() error                     { return nil }
func (p *fakePlayer) CurrentTime() timeline.Timestamp { return p.current }

func (p *fakePlayer) Seek(t timeline.Timestamp) error {
	p.current = t
	return nil
}

func (p *fakePlayer) TotalDuration() (timeline.Timestamp, error) {
	return timeline.Seconds(600), nil
}

var media = session.Media{Local: true, AudioOnly: true, Source: "file:///tmp/talk.mp3", Name: "talk.mp3"}

func newMain(t *testing.T) (*Main, *fakePlayer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sessions")
	svc := &notetaker.Service{
		Taker: notetaker.New(1000, 0.5),
		Store: &store.FileStore{Dir: dir},
	}
	p := &fakePlayer{}
	svc.Taker.Open(notetaker.Backend{Media: media, Player: p}, nil)
	return &Main{svc: svc}, p, dir
}

func TestAutosave(t *testing.T) {
	m, p, dir := newMain(t)
	p.current = timeline.Seconds(30)
	h, err := m.svc.Taker.BeginDraft()
	require.NoError(t, err)
	require.NoError(t, m.svc.Taker.CommitDraft(h, timeline.Fields{Category: timeline.Notable, Topic: "intro", Moment: true}))
	_, err = m.svc.Taker.BeginDraft()
	require.NoError(t, err)

	require.NoError(t, m.TerminateDaemon(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, autosaveName+session.Ext))
	require.NoError(t, err)
	s, err := session.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, media, s.Media)
	assert.Equal(t, 1, len(s.Records))
	assert.Equal(t, "intro", s.Records[0].Topic)
	assert.Equal(t, timeline.Seconds(600), s.Total)
}

func TestAutosaveNothingToSave(t *testing.T) {
	m, _, dir := newMain(t)
	_, err := m.svc.Taker.BeginDraft()
	require.NoError(t, err)

	require.NoError(t, m.TerminateDaemon(context.Background()))
	_, err = os.Stat(filepath.Join(dir, autosaveName+session.Ext))
	assert.Assert(t, errors.Is(err, fs.ErrNotExist))
}

func TestAutosaveBeforeServe(t *testing.T) {
	m := &Main{}
	require.NoError(t, m.TerminateDaemon(context.Background()))
}
