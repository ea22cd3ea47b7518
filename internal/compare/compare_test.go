package compare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestStat(t *testing.T) {
	dir := t.TempDir()

	t.Run("existing file", func(t *testing.T) {
		path := writeFile(t, dir, "a.txt", "hello")

		stat := Stat(path)
		assert.True(t, stat.Exists)
		assert.NotEmpty(t, stat.Hash)
		assert.Equal(t, int64(5), stat.Size)
	})

	t.Run("missing file", func(t *testing.T) {
		stat := Stat(filepath.Join(dir, "nope.txt"))
		assert.False(t, stat.Exists)
		assert.Empty(t, stat.Hash)
	})

	t.Run("directory is treated as missing", func(t *testing.T) {
		stat := Stat(dir)
		assert.False(t, stat.Exists)
	})

	t.Run("same content same hash", func(t *testing.T) {
		p1 := writeFile(t, dir, "one.txt", "content")
		p2 := writeFile(t, dir, "two.txt", "content")

		assert.Equal(t, Stat(p1).Hash, Stat(p2).Hash)
	})
}

func TestNeedsSync(t *testing.T) {
	dir := t.TempDir()

	src := Stat(writeFile(t, dir, "src.txt", "aaa"))
	same := Stat(writeFile(t, dir, "same.txt", "aaa"))
	diff := Stat(writeFile(t, dir, "diff.txt", "bbb"))
	missing := Stat(filepath.Join(dir, "missing.txt"))

	assert.False(t, NeedsSync(src, same))
	assert.True(t, NeedsSync(src, diff))
	assert.True(t, NeedsSync(src, missing))
	assert.False(t, NeedsSync(missing, src))
}

func TestIsExcluded(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		patterns []string
		want     bool
	}{
		{"filename glob", "lib/cache.pyc", []string{"*.pyc"}, true},
		{"segment match", "src/__pycache__/mod.pyc", []string{"__pycache__"}, true},
		{"directory prefix", "build/cache/obj.o", []string{"build/cache"}, true},
		{"exact path", "notes.tmp", []string{"notes.tmp"}, true},
		{"no match", "src/main.py", []string{"*.pyc", "__pycache__"}, false},
		{"prefix is not substring", "buildings/a.txt", []string{"build"}, false},
		{"empty patterns", "anything", nil, false},
		{"git dir", ".git/config", []string{".git"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExcluded(tt.path, tt.patterns))
		})
	}
}
