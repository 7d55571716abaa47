package bibledotcom

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openscripture/zefbible/internal/bible"
)

// chapterPage wraps rendered chapter HTML in a page body the way the
// provider embeds it: as a JSON string with <, > and & escaped to \uXXXX.
func chapterPage(t *testing.T, inner string) []byte {
	t.Helper()
	escaped, err := json.Marshal(inner)
	require.NoError(t, err)
	return []byte(`<html><body><script>{"pageProps":{"chapterInfo":{"content":` + string(escaped) + `,"next":null}}}</script></body></html>`)
}

const chapterHTML = `<div class="ChapterContent">` +
	`<span class="verse v1" data-usfm="GEN.1.1"><span class="label">1</span><span class="content">In the beginning God created</span></span> ` +
	`<span class="verse v2" data-usfm="GEN.1.2"><span class="label">2</span><span class="content">And the earth was</span><span class="content">without form</span></span> ` +
	`<span class="verse v3 v4" data-usfm="GEN.1.3+GEN.1.4"><span class="label">3-4</span><span class="content">Bridged verse text</span></span> ` +
	`<span class="verse v5" data-usfm="GEN.1.5"><span class="wj"><span class="content">Nested verse text</span></span></span> ` +
	`<span class="verse v7" data-usfm="GEN.1.7"><span class="label">7</span><span class="content">After the gap</span></span>` +
	`</div>`

func TestClient_FetchChapter(t *testing.T) {
	t.Parallel()

	url := "https://provider.test/bible/1/GEN.1"
	fetcher := &fakeFetcher{responses: map[string]bible.PageResponse{
		url: {StatusCode: http.StatusOK, Body: chapterPage(t, chapterHTML)},
	}}
	client := New(Config{BaseURL: "https://provider.test"}, fetcher, zap.NewNop())

	chapter, err := client.FetchChapter(context.Background(), "1", bible.ChapterRef{BookIndex: 0, USFM: "GEN", Chapter: 1})
	require.NoError(t, err)
	require.Equal(t, 1, chapter.Number)

	require.Equal(t, []bible.Verse{
		{Number: 1, Text: "In the beginning God created"},
		{Number: 2, Text: "And the earth was without form"},
		{Number: 3, Text: "Bridged verse text"},
		{Number: 5, Text: "Nested verse text"},
		{Number: 7, Text: "After the gap"},
	}, chapter.Verses)

	// Verse numbers are strictly increasing and the provider-side gap at 6
	// is preserved, not renumbered.
	for i := 1; i < len(chapter.Verses); i++ {
		require.Greater(t, chapter.Verses[i].Number, chapter.Verses[i-1].Number)
	}
}

func TestClient_FetchChapter_MissingContentFragment(t *testing.T) {
	t.Parallel()

	url := "https://provider.test/bible/1/GEN.2"
	fetcher := &fakeFetcher{responses: map[string]bible.PageResponse{
		url: {StatusCode: http.StatusOK, Body: []byte("<html><body>nothing here</body></html>")},
	}}
	client := New(Config{BaseURL: "https://provider.test"}, fetcher, zap.NewNop())

	_, err := client.FetchChapter(context.Background(), "1", bible.ChapterRef{USFM: "GEN", Chapter: 2})
	var malformed *bible.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestClient_FetchChapter_NoVerses(t *testing.T) {
	t.Parallel()

	url := "https://provider.test/bible/1/GEN.3"
	fetcher := &fakeFetcher{responses: map[string]bible.PageResponse{
		url: {StatusCode: http.StatusOK, Body: chapterPage(t, `<div class="ChapterContent"><p>no verse spans</p></div>`)},
	}}
	client := New(Config{BaseURL: "https://provider.test"}, fetcher, zap.NewNop())

	_, err := client.FetchChapter(context.Background(), "1", bible.ChapterRef{USFM: "GEN", Chapter: 3})
	var malformed *bible.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestClient_FetchChapter_RateLimitedIsTransient(t *testing.T) {
	t.Parallel()

	url := "https://provider.test/bible/1/GEN.4"
	fetcher := &fakeFetcher{responses: map[string]bible.PageResponse{
		url: {StatusCode: http.StatusTooManyRequests},
	}}
	client := New(Config{BaseURL: "https://provider.test"}, fetcher, zap.NewNop())

	_, err := client.FetchChapter(context.Background(), "1", bible.ChapterRef{USFM: "GEN", Chapter: 4})
	var transient *bible.TransientFetchError
	require.ErrorAs(t, err, &transient)
}

func TestMinVerseNumber(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		class    string
		expected int
		ok       bool
	}{
		{"verse v1", 1, true},
		{"verse v12", 12, true},
		{"verse v3 v4 v5", 3, true},
		{"verse", 0, false},
		{"content", 0, false},
	}

	for _, tc := range testCases {
		got, ok := minVerseNumber(tc.class)
		require.Equal(t, tc.ok, ok, tc.class)
		require.Equal(t, tc.expected, got, tc.class)
	}
}
