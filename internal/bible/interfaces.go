package bible

import (
	"context"
	"time"
)

// Provider retrieves version metadata and chapter content from a remote
// source. Implementations classify failures using the error types in this
// package so callers can distinguish fatal from retryable conditions.
type Provider interface {
	FetchVersion(ctx context.Context, versionID string) (Version, error)
	FetchChapter(ctx context.Context, versionID string, ref ChapterRef) (Chapter, error)
}

// PageFetcher performs a single HTTP GET and returns the raw response.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (PageResponse, error)
}

// DocumentWriter persists an assembled document and returns its location.
type DocumentWriter interface {
	Write(ctx context.Context, version Version, doc []byte) (string, error)
}

// RetryPolicy decides whether and when a failed fetch is attempted again.
type RetryPolicy interface {
	ShouldRetry(err error, attempts int) bool
	Backoff(attempts int) time.Duration
}

// RateLimiter throttles outbound requests.
type RateLimiter interface {
	Wait(ctx context.Context, url string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
