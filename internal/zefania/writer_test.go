package zefania

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openscripture/zefbible/internal/bible"
)

func TestFileWriter_Write(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "Bibles")
	w, err := NewFileWriter(dir, zap.NewNop())
	require.NoError(t, err)
	require.DirExists(t, dir)

	version := bible.Version{ID: "1", Abbreviation: "KJV"}
	path, err := w.Write(context.Background(), version, []byte("<XMLBIBLE/>"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "KJV.xml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<XMLBIBLE/>", string(data))
}

func TestFileWriter_SanitizesAbbreviation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewFileWriter(dir, zap.NewNop())
	require.NoError(t, err)

	version := bible.Version{ID: "1", Abbreviation: `K/J\V:19*11?`}
	path, err := w.Write(context.Background(), version, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "KJV1911.xml"), path)
}

func TestFileWriter_EmptyDocument(t *testing.T) {
	t.Parallel()

	w, err := NewFileWriter(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, err = w.Write(context.Background(), bible.Version{Abbreviation: "X"}, nil)
	require.Error(t, err)
}

func TestFileWriter_RequiresDirectory(t *testing.T) {
	t.Parallel()

	_, err := NewFileWriter("  ", zap.NewNop())
	require.Error(t, err)
}

func TestBufferWriter(t *testing.T) {
	t.Parallel()

	w := NewBufferWriter()
	version := bible.Version{ID: "1", Abbreviation: "NIV"}

	name, err := w.Write(context.Background(), version, []byte("doc"))
	require.NoError(t, err)
	require.Equal(t, "NIV.xml", name)

	doc, ok := w.Document("NIV.xml")
	require.True(t, ok)
	require.Equal(t, []byte("doc"), doc)
	require.Equal(t, 1, w.Len())
}
