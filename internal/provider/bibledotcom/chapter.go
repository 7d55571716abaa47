package bibledotcom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/openscripture/zefbible/internal/bible"
	"github.com/openscripture/zefbible/internal/metrics"
)

// The chapter page embeds its rendered text as a JSON string field inside a
// script payload; this locates the fragment up to the closing > (">").
var contentPattern = regexp.MustCompile(`"content":".*?\\u003e"`)

const contentPrefix = `"content":"`

// Verse text lives in content spans nested under the verse span.
var contentSpanExpr = xpath.MustCompile(`//span/span[@class="content"]`)

// FetchChapter retrieves and parses the verse content of one chapter.
func (c *Client) FetchChapter(ctx context.Context, versionID string, ref bible.ChapterRef) (bible.Chapter, error) {
	url := fmt.Sprintf("%s/bible/%s/%s.%d", c.cfg.BaseURL, versionID, ref.USFM, ref.Chapter)

	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, url)
	metrics.ObserveFetchDuration("chapter", time.Since(start))
	if err != nil {
		return bible.Chapter{}, &bible.TransientFetchError{URL: url, Err: err}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return bible.Chapter{}, &bible.TransientFetchError{
			URL: url,
			Err: fmt.Errorf("provider returned status %d", resp.StatusCode),
		}
	case resp.StatusCode != http.StatusOK:
		return bible.Chapter{}, &bible.MalformedResponseError{
			URL:    url,
			Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	verses, err := extractVerses(resp.Body)
	if err != nil {
		return bible.Chapter{}, &bible.MalformedResponseError{URL: url, Reason: "extract verses", Err: err}
	}

	c.logger.Debug("fetched chapter",
		zap.String("version_id", versionID),
		zap.String("usfm", ref.USFM),
		zap.Int("chapter", ref.Chapter),
		zap.Int("verses", len(verses)),
	)
	return bible.Chapter{Number: ref.Chapter, Verses: verses}, nil
}

// extractVerses pulls the embedded content fragment out of a chapter page
// and walks its verse spans.
func extractVerses(page []byte) ([]bible.Verse, error) {
	match := contentPattern.Find(page)
	if match == nil {
		return nil, fmt.Errorf("content fragment not found")
	}
	raw := string(match[len(contentPrefix) : len(match)-1])

	decoded, err := decodeFragment(raw)
	if err != nil {
		return nil, fmt.Errorf("decode content fragment: %w", err)
	}

	doc, err := htmlquery.Parse(strings.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("parse content html: %w", err)
	}

	nodes := htmlquery.QuerySelectorAll(doc, contentSpanExpr)
	texts := make(map[int]string)
	lastVerse := 0
	for _, node := range nodes {
		verseNode := findVerseAncestor(node.Parent)
		if verseNode == nil {
			continue
		}
		number, ok := minVerseNumber(htmlquery.SelectAttr(verseNode, "class"))
		if !ok {
			continue
		}
		text := strings.TrimSpace(htmlquery.InnerText(node))
		if text == "" {
			continue
		}
		// Consecutive spans of the same verse are separate text runs joined
		// with a single space.
		if existing, seen := texts[number]; seen && lastVerse == number && existing != "" {
			texts[number] = existing + " " + text
		} else {
			texts[number] += text
		}
		lastVerse = number
	}

	if len(texts) == 0 {
		return nil, fmt.Errorf("no verses found in content fragment")
	}

	numbers := make([]int, 0, len(texts))
	for n := range texts {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	verses := make([]bible.Verse, 0, len(numbers))
	for _, n := range numbers {
		verses = append(verses, bible.Verse{Number: n, Text: texts[n]})
	}
	return verses, nil
}

// decodeFragment interprets the raw fragment as a JSON string literal,
// resolving \uXXXX and friends.
func decodeFragment(raw string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &s); err != nil {
		return "", err
	}
	return s, nil
}

// findVerseAncestor climbs to the nearest element whose class marks a verse
// (class "verse vN", possibly spanning several numbers).
func findVerseAncestor(node *html.Node) *html.Node {
	for node != nil {
		if strings.HasPrefix(htmlquery.SelectAttr(node, "class"), "verse v") {
			return node
		}
		node = node.Parent
	}
	return nil
}

// minVerseNumber parses a verse class attribute. Classes covering a range of
// verses ("verse v1 v2 v3") resolve to the smallest number.
func minVerseNumber(class string) (int, bool) {
	lowest := 0
	for _, field := range strings.Fields(strings.TrimPrefix(class, "verse")) {
		n, err := strconv.Atoi(strings.TrimPrefix(field, "v"))
		if err != nil || n <= 0 {
			continue
		}
		if lowest == 0 || n < lowest {
			lowest = n
		}
	}
	return lowest, lowest > 0
}
