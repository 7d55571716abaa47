// Package bibledotcom implements bible.Provider against the bible.com API
// and chapter pages.
package bibledotcom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openscripture/zefbible/internal/bible"
	"github.com/openscripture/zefbible/internal/metrics"
)

// DefaultBaseURL is the production provider endpoint.
const DefaultBaseURL = "https://www.bible.com"

// Config controls provider behavior.
type Config struct {
	BaseURL string
}

// Client fetches version metadata and chapter content.
type Client struct {
	cfg     Config
	fetcher bible.PageFetcher
	logger  *zap.Logger
}

// New builds a Client.
func New(cfg Config, fetcher bible.PageFetcher, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
	}
}

// versionPayload mirrors the provider's version metadata response.
type versionPayload struct {
	LocalTitle        string `json:"local_title"`
	LocalAbbreviation string `json:"local_abbreviation"`
	Publisher         struct {
		Name string `json:"name"`
	} `json:"publisher"`
	Language struct {
		ISO6393 string `json:"iso_639_3"`
	} `json:"language"`
	CopyrightShort struct {
		Text string `json:"text"`
	} `json:"copyright_short"`
	Books []struct {
		USFM         string `json:"usfm"`
		HumanLong    string `json:"human_long"`
		Abbreviation string `json:"abbreviation"`
		Chapters     []struct {
			Canonical bool `json:"canonical"`
		} `json:"chapters"`
	} `json:"books"`
}

// FetchVersion retrieves version metadata and the canonical book list.
func (c *Client) FetchVersion(ctx context.Context, versionID string) (bible.Version, error) {
	url := fmt.Sprintf("%s/api/bible/version/%s", c.cfg.BaseURL, versionID)

	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, url)
	metrics.ObserveFetchDuration("metadata", time.Since(start))
	if err != nil {
		return bible.Version{}, &bible.TransientFetchError{URL: url, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return bible.Version{}, &bible.NotFoundError{VersionID: versionID}
	case resp.StatusCode >= http.StatusInternalServerError:
		return bible.Version{}, &bible.TransientFetchError{
			URL: url,
			Err: fmt.Errorf("provider returned status %d", resp.StatusCode),
		}
	case resp.StatusCode != http.StatusOK:
		return bible.Version{}, &bible.MalformedResponseError{
			URL:    url,
			Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	var payload versionPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return bible.Version{}, &bible.MalformedResponseError{URL: url, Reason: "decode version payload", Err: err}
	}
	if payload.LocalTitle == "" || len(payload.Books) == 0 {
		return bible.Version{}, &bible.MalformedResponseError{URL: url, Reason: "version payload missing title or books"}
	}

	version := bible.Version{
		ID:           versionID,
		Title:        payload.LocalTitle,
		Abbreviation: payload.LocalAbbreviation,
		Language:     payload.Language.ISO6393,
		Publisher:    payload.Publisher.Name,
		Copyright:    payload.CopyrightShort.Text,
		Books:        make([]bible.Book, 0, len(payload.Books)),
	}

	for i, b := range payload.Books {
		canonical := 0
		for _, ch := range b.Chapters {
			if ch.Canonical {
				canonical++
			}
		}
		version.Books = append(version.Books, bible.Book{
			USFM:         b.USFM,
			Name:         b.HumanLong,
			Abbreviation: strings.ReplaceAll(b.Abbreviation, ".", ""),
			Number:       i + 1,
			ChapterCount: canonical,
		})
	}

	c.logger.Debug("fetched version metadata",
		zap.String("version_id", versionID),
		zap.String("title", version.Title),
		zap.Int("books", len(version.Books)),
	)
	return version, nil
}
