// Package collyfetcher implements bible.PageFetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/openscripture/zefbible/internal/bible"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs single HTTP GETs through a Colly collector.
type Fetcher struct {
	cfg           Config
	limiter       bible.RateLimiter
	baseCollector *colly.Collector
}

// New builds a Fetcher. The limiter may be nil to disable rate limiting.
func New(cfg Config, limiter bible.RateLimiter) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{
		cfg:           cfg,
		limiter:       limiter,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET and returns the raw response. Non-2xx
// statuses are returned as responses, not errors; transport failures are
// returned as errors for the caller to classify.
func (f *Fetcher) Fetch(ctx context.Context, url string) (bible.PageResponse, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, url); err != nil {
			return bible.PageResponse{}, err
		}
	}

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			collector.SetRequestTimeout(remaining)
		}
	}

	var (
		result   bible.PageResponse
		got      bool
		fetchErr error
	)

	collector.OnResponse(func(r *colly.Response) {
		result = bible.PageResponse{
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
		}
		got = true
	})

	collector.OnError(func(r *colly.Response, err error) {
		// Colly reports HTTP error statuses here with the response attached;
		// surface those as responses so callers see the status code.
		if r != nil && r.StatusCode != 0 {
			result = bible.PageResponse{
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
			}
			got = true
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return bible.PageResponse{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		// Visit returns an error for non-2xx statuses too; if OnError already
		// captured the response, the status code is the answer, not the error.
		if got {
			return result, nil
		}
		if fetchErr != nil {
			return bible.PageResponse{}, fmt.Errorf("colly response failed: %w", fetchErr)
		}
		if err != nil {
			return bible.PageResponse{}, fmt.Errorf("colly visit failed: %w", err)
		}
		return bible.PageResponse{}, fmt.Errorf("no response received for %s", url)
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
