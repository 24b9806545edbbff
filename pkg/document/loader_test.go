package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFolderCreatesMissingFolder(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "does-not-exist")

	docs, err := LoadFromFolder(folder)
	require.NoError(t, err)
	assert.Empty(t, docs)

	info, err := os.Stat(folder)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadFromFolderReadsTextFiles(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(folder, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "nested", "b.txt"), []byte("beta"), 0o644))

	docs, err := LoadFromFolder(folder)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	contents := []string{docs[0].Content, docs[1].Content}
	assert.ElementsMatch(t, []string{"alpha", "beta"}, contents)
	for _, d := range docs {
		assert.NotEmpty(t, d.Metadata.Source)
		assert.Zero(t, d.Metadata.Page)
	}
}

func TestLoadFromFolderSkipsUnsupportedExtensions(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "keep.txt"), []byte("kept"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "skip.docx"), []byte("binary"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "skip.png"), []byte{0x89, 0x50}, 0o644))

	docs, err := LoadFromFolder(folder)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "kept", docs[0].Content)
}

func TestLoadFromFolderToleratesBrokenFiles(t *testing.T) {
	folder := t.TempDir()
	// A broken PDF must not abort the scan of the remaining files.
	require.NoError(t, os.WriteFile(filepath.Join(folder, "broken.pdf"), []byte("not a pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "fine.txt"), []byte("fine"), 0o644))

	docs, err := LoadFromFolder(folder)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "fine", docs[0].Content)
}

func TestLoadFoldersConcatenates(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(a, "a.txt"), []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b, "b.txt"), []byte("two"), 0o644))

	docs, err := LoadFolders([]string{a, b})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestLoadTextNormalizesLineEndings(t *testing.T) {
	folder := t.TempDir()
	path := filepath.Join(folder, "crlf.txt")
	require.NoError(t, os.WriteFile(path, []byte("line1\r\nline2"), 0o644))

	docs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "line1\nline2", docs[0].Content)
}
