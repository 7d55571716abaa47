package bible

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersion_ChapterRefs_CanonicalOrder(t *testing.T) {
	t.Parallel()

	version := Version{
		ID: "1",
		Books: []Book{
			{USFM: "GEN", Name: "Genesis", Number: 1, ChapterCount: 3},
			{USFM: "EXO", Name: "Exodus", Number: 2, ChapterCount: 2},
		},
	}

	refs := version.ChapterRefs()
	require.Equal(t, []ChapterRef{
		{BookIndex: 0, USFM: "GEN", Chapter: 1},
		{BookIndex: 0, USFM: "GEN", Chapter: 2},
		{BookIndex: 0, USFM: "GEN", Chapter: 3},
		{BookIndex: 1, USFM: "EXO", Chapter: 1},
		{BookIndex: 1, USFM: "EXO", Chapter: 2},
	}, refs)
	require.Equal(t, 5, version.TotalChapters())
}

func TestVersion_ChapterRefs_Empty(t *testing.T) {
	t.Parallel()

	var version Version
	require.Empty(t, version.ChapterRefs())
	require.Zero(t, version.TotalChapters())
}
