package source_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depscan/pkg/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func ids(texts []source.Text) []string {
	out := make([]string, 0, len(texts))
	for _, s := range texts {
		out = append(out, s.ID())
	}

	return out
}

func TestBuffer(t *testing.T) {
	t.Parallel()

	b := source.NewBuffer("inline.sc", "import os.pwd\n")

	content, err := b.Content()
	require.NoError(t, err)
	assert.Equal(t, "inline.sc", b.ID())
	assert.Equal(t, "import os.pwd\n", content)
}

func TestFile_ContentErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := source.NewFile(filepath.Join(dir, "missing.scala")).Content()
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.scala")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xfe, 'a'}, 0o600))

	_, err = source.NewFile(bad).Content()
	require.ErrorIs(t, err, source.ErrInvalidEncoding)

	binary := filepath.Join(t.TempDir(), "Blob.scala")
	require.NoError(t, os.WriteFile(binary, []byte("import a.b\x00\x01"), 0o600))

	_, err = source.NewFile(binary).Content()
	require.ErrorIs(t, err, source.ErrBinary)
}

func TestCollect_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	writeFile(t, filepath.Join(root, "src", "b", "Main.scala"), "import os.pwd\n")
	writeFile(t, filepath.Join(root, "src", "a", "Util.java"), "import java.util.List;\n")
	writeFile(t, filepath.Join(root, "src", "a", "script.sc"), "println(1)\n")
	writeFile(t, filepath.Join(root, "README.md"), "# readme\n")
	writeFile(t, filepath.Join(root, ".hidden", "Skip.scala"), "import x.y\n")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "Dep.scala"), "import x.y\n")
	writeFile(t, filepath.Join(root, "src", "Big.scala"), strings.Repeat("a", 2048))

	texts, stats, err := source.Collect(context.Background(), nil, source.CollectOptions{
		Roots:       []string{root},
		Extensions:  []string{"scala", ".SC", "java"},
		MaxFileSize: 1024,
		SkipVendor:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "src", "a", "Util.java"),
		filepath.Join(root, "src", "a", "script.sc"),
		filepath.Join(root, "src", "b", "Main.scala"),
	}, ids(texts))
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, 1, stats.Skipped)
	assert.Contains(t, stats.String(), "3 files")
}

func TestCollect_LanguageFallback(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Main.scala"), "import os.pwd\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "import nothing\n")

	texts, _, err := source.Collect(context.Background(), nil, source.CollectOptions{
		Roots:     []string{root},
		Languages: []string{"scala"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "Main.scala")}, ids(texts))
}

func TestCollect_SingleFileRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "notes.txt")
	writeFile(t, path, "import a.b\n")

	texts, stats, err := source.Collect(context.Background(), nil, source.CollectOptions{Roots: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, ids(texts))
	assert.Equal(t, int64(len("import a.b\n")), stats.Bytes)
}

func TestCollect_OverlappingRootsReturnEachFileOnce(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "src", "Main.scala")
	writeFile(t, path, "import os.pwd\n")

	texts, stats, err := source.Collect(context.Background(), nil, source.CollectOptions{
		Roots:      []string{root, filepath.Join(root, "src"), path},
		Extensions: []string{".scala"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, ids(texts))
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, int64(len("import os.pwd\n")), stats.Bytes)
}

func TestCollect_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := source.Collect(context.Background(), nil, source.CollectOptions{})
	require.ErrorIs(t, err, source.ErrNoRoots)

	_, _, err = source.Collect(context.Background(), nil, source.CollectOptions{
		Roots: []string{filepath.Join(t.TempDir(), "absent")},
	})
	require.Error(t, err)
}

type countingText struct {
	id    string
	reads *int
}

func (c countingText) ID() string { return c.id }

func (c countingText) Content() (string, error) {
	*c.reads++

	return "import a.b\n", nil
}

type failingText struct{ id string }

func (f failingText) ID() string { return f.id }

func (f failingText) Content() (string, error) { return "", os.ErrPermission }

func TestCache_ReadsOnce(t *testing.T) {
	t.Parallel()

	reads := 0
	cache := source.NewCache(0)
	wrapped := cache.Wrap([]source.Text{countingText{id: "a", reads: &reads}})

	for range 3 {
		content, err := wrapped[0].Content()
		require.NoError(t, err)
		assert.Equal(t, "import a.b\n", content)
	}

	assert.Equal(t, 1, reads)
	assert.Equal(t, int64(2), cache.Hits())
	assert.Equal(t, int64(1), cache.Misses())
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, "a", wrapped[0].ID())
}

func TestCache_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	cache := source.NewCache(4)
	wrapped := cache.Wrap([]source.Text{failingText{id: "f"}})

	_, err := wrapped[0].Content()
	require.ErrorIs(t, err, os.ErrPermission)

	_, err = wrapped[0].Content()
	require.ErrorIs(t, err, os.ErrPermission)

	assert.Equal(t, int64(2), cache.Misses())
	assert.Zero(t, cache.Len())
}
