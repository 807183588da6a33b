package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
}

func TestFindLogFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "top.jsonl"))
	touch(t, filepath.Join(root, "a", "nested.jsonl"))
	touch(t, filepath.Join(root, "a", "upper.JSONL"))
	touch(t, filepath.Join(root, "a", "other.json"))
	touch(t, filepath.Join(root, "a", "b", "c", "deep.jsonl"))
	touch(t, filepath.Join(root, "a", "b", "c", "d", "toodeep.jsonl"))

	s := New(zerolog.Nop())
	files := s.FindLogFiles([]string{root})

	var names []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		names = append(names, rel)
	}

	assert.ElementsMatch(t, []string{
		"top.jsonl",
		filepath.Join("a", "nested.jsonl"),
		filepath.Join("a", "upper.JSONL"),
		filepath.Join("a", "b", "c", "deep.jsonl"),
	}, names)
}

func TestFindLogFilesSkipsBadRoot(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "ok.jsonl"))

	s := New(zerolog.Nop())
	files := s.FindLogFiles([]string{filepath.Join(root, "does-not-exist"), root})

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "ok.jsonl"), files[0])
}

func TestFindLogFilesNoRoots(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Empty(t, s.FindLogFiles(nil))
}
