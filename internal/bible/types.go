// Package bible defines core types shared across subsystems.
package bible

// FetchStatus represents the terminal state of a chapter fetch.
type FetchStatus string

// Chapter fetch states recorded by the fetcher pool.
const (
	FetchStatusPending FetchStatus = "pending"
	FetchStatusSuccess FetchStatus = "success"
	FetchStatusFailed  FetchStatus = "failed"
)

// Version is a Bible edition as described by the content provider.
// It is populated once by the metadata fetch and immutable afterwards.
type Version struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Abbreviation string `json:"abbreviation"`
	Language     string `json:"language"`
	Publisher    string `json:"publisher"`
	Copyright    string `json:"copyright"`
	Books        []Book `json:"books"`
}

// Book is one book of a version, in canonical order.
type Book struct {
	USFM         string `json:"usfm"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Number       int    `json:"number"` // 1-based canonical position
	ChapterCount int    `json:"chapter_count"`
}

// Verse is a single numbered verse.
type Verse struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Chapter holds the fetched verse content of one chapter.
type Chapter struct {
	Number int     `json:"number"`
	Verses []Verse `json:"verses"`
}

// ChapterRef identifies a chapter by its canonical position.
type ChapterRef struct {
	BookIndex int    `json:"book_index"` // index into Version.Books
	USFM      string `json:"usfm"`
	Chapter   int    `json:"chapter"`
}

// ChapterResult records the outcome of fetching a single chapter.
type ChapterResult struct {
	Ref      ChapterRef
	Status   FetchStatus
	Chapter  Chapter
	Attempts int
	Err      error
}

// PageResponse is a raw provider page returned by a PageFetcher.
type PageResponse struct {
	StatusCode int
	Body       []byte
}

// ChapterRefs expands the book list into canonical (book, chapter) order.
func (v Version) ChapterRefs() []ChapterRef {
	refs := make([]ChapterRef, 0, v.TotalChapters())
	for i, book := range v.Books {
		for ch := 1; ch <= book.ChapterCount; ch++ {
			refs = append(refs, ChapterRef{BookIndex: i, USFM: book.USFM, Chapter: ch})
		}
	}
	return refs
}

// TotalChapters returns the number of chapters across all books.
func (v Version) TotalChapters() int {
	total := 0
	for _, book := range v.Books {
		total += book.ChapterCount
	}
	return total
}
