// Package metrics exposes Prometheus collectors for the converter.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	chaptersTotal         *prometheus.CounterVec
	chapterRetriesTotal   prometheus.Counter
	fetchDurationSeconds  *prometheus.HistogramVec
	rateLimitDelaySeconds *prometheus.HistogramVec
	runsTotal             *prometheus.CounterVec
	activeFetches         prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		chaptersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zefbible_chapters_total",
				Help: "Total number of chapter fetches, labeled by terminal status.",
			},
			[]string{"status"},
		)

		chapterRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "zefbible_chapter_retries_total",
				Help: "Total number of chapter fetch retries.",
			},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zefbible_fetch_duration_seconds",
				Help:    "Histogram of provider fetch latencies, labeled by kind.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"kind"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zefbible_rate_limit_delay_seconds",
				Help:    "Histogram of rate limit wait durations, labeled by host.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"host"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zefbible_runs_total",
				Help: "Total number of conversion runs, labeled by outcome.",
			},
			[]string{"status"},
		)

		activeFetches = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "zefbible_active_fetches",
				Help: "Number of chapter fetches currently in flight.",
			},
		)
	})
}

// SanitizeHost sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveChapter increments the chapter counter for the given status.
func ObserveChapter(status string) {
	if chaptersTotal == nil {
		return
	}
	chaptersTotal.WithLabelValues(status).Inc()
}

// ObserveRetry increments the retry counter.
func ObserveRetry() {
	if chapterRetriesTotal == nil {
		return
	}
	chapterRetriesTotal.Inc()
}

// ObserveFetchDuration records the latency of a provider fetch.
func ObserveFetchDuration(kind string, duration time.Duration) {
	if fetchDurationSeconds == nil {
		return
	}
	fetchDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	if rateLimitDelaySeconds == nil {
		return
	}
	rateLimitDelaySeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveRun increments the run counter for the given outcome.
func ObserveRun(status string) {
	if runsTotal == nil {
		return
	}
	runsTotal.WithLabelValues(status).Inc()
}

// IncActiveFetches increments the in-flight fetch gauge.
func IncActiveFetches() {
	if activeFetches == nil {
		return
	}
	activeFetches.Inc()
}

// DecActiveFetches decrements the in-flight fetch gauge.
func DecActiveFetches() {
	if activeFetches == nil {
		return
	}
	activeFetches.Dec()
}
