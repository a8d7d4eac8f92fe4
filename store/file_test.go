package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/assert"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s := &FileStore{Dir: filepath.Join(t.TempDir(), "sessions")}

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, len(names))

	_, err = s.Load(ctx, "lecture")
	assert.Assert(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Save(ctx, "lecture", []byte("one")))
	require.NoError(t, s.Save(ctx, "autosave", []byte("two")))
	require.NoError(t, s.Save(ctx, "lecture", []byte("three")))

	data, err := s.Load(ctx, "lecture")
	require.NoError(t, err)
	assert.Equal(t, "three", string(data))

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.DeepEqual(t, []string{"autosave", "lecture"}, names)

	_, err = os.Stat(filepath.Join(s.Dir, "lecture.dat"))
	require.NoError(t, err)
}

func TestFileStoreIgnoresOtherFiles(t *testing.T) {
	ctx := context.Background()
	s := &FileStore{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, ".half-123"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir, "dir.dat"), 0755))
	require.NoError(t, s.Save(ctx, "a", []byte("a")))

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.DeepEqual(t, []string{"a"}, names)
}

func TestBadNames(t *testing.T) {
	ctx := context.Background()
	s := &FileStore{Dir: t.TempDir()}
	for _, name := range []string{"", ".", "..", "../x", `a\b`} {
		assert.Assert(t, s.Save(ctx, name, []byte("x")) != nil, name)
		_, err := s.Load(ctx, name)
		assert.Assert(t, err != nil, name)
	}
}
