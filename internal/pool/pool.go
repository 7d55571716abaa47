// Package pool runs chapter fetches through a bounded worker group and
// reassembles results in canonical order.
package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openscripture/zefbible/internal/bible"
	"github.com/openscripture/zefbible/internal/metrics"
	"github.com/openscripture/zefbible/internal/progress"
)

// Config controls pool behavior.
type Config struct {
	// Concurrency bounds the number of chapter fetches in flight.
	Concurrency int
	// RequestTimeout bounds each individual fetch attempt. A fetch that
	// exceeds it is a transient failure for retry purposes.
	RequestTimeout time.Duration
}

// Pool fetches chapters concurrently. Each chapter owns a disjoint result
// slot keyed by its canonical position, so completion order is never
// observable in the output.
type Pool struct {
	provider bible.Provider
	policy   bible.RetryPolicy
	cfg      Config
	logger   *zap.Logger
}

// Result aggregates the outcome of one batch of chapter fetches.
type Result struct {
	// Chapters holds one entry per requested ref, in canonical order.
	Chapters []bible.ChapterResult
	// Failed lists refs whose fetch exhausted retries, in canonical order.
	Failed []bible.ChapterRef
	// Retries counts attempts beyond the first across all chapters.
	Retries int
}

// New constructs a Pool.
func New(provider bible.Provider, policy bible.RetryPolicy, cfg Config, logger *zap.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		provider: provider,
		policy:   policy,
		cfg:      cfg,
		logger:   logger,
	}
}

// FetchAll fetches every referenced chapter. Individual failures are
// recorded in the result, never returned as an error; the only error is
// context cancellation.
func (p *Pool) FetchAll(ctx context.Context, versionID string, refs []bible.ChapterRef) (Result, error) {
	results := make([]bible.ChapterResult, len(refs))
	var retries atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, ref := range refs {
		g.Go(func() error {
			metrics.IncActiveFetches()
			defer metrics.DecActiveFetches()
			results[i] = p.fetchOne(gctx, versionID, ref, &retries)
			return nil
		})
	}
	// Workers never return errors; Wait only observes them via gctx.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{
		Chapters: results,
		Retries:  int(retries.Load()),
	}
	for _, r := range results {
		if r.Status == bible.FetchStatusFailed {
			res.Failed = append(res.Failed, r.Ref)
		}
		metrics.ObserveChapter(string(r.Status))
	}
	return res, nil
}

// fetchOne drives a single chapter through its retry state machine:
// pending, attempting, then retrying until it succeeds, exhausts the retry
// policy, or the context ends.
func (p *Pool) fetchOne(ctx context.Context, versionID string, ref bible.ChapterRef, retries *atomic.Int64) bible.ChapterResult {
	result := bible.ChapterResult{Ref: ref, Status: bible.FetchStatusPending}
	events := progress.FromContext(ctx)
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			result.Status = bible.FetchStatusFailed
			result.Err = err
			return result
		}

		chapter, err := p.fetchAttempt(ctx, versionID, ref)
		result.Attempts++

		if err == nil {
			result.Status = bible.FetchStatusSuccess
			result.Chapter = chapter
			events.Emit(progress.Event{
				Stage:     progress.StageChapterDone,
				VersionID: versionID,
				USFM:      ref.USFM,
				Chapter:   ref.Chapter,
				Attempts:  result.Attempts,
				Verses:    len(chapter.Verses),
				Dur:       time.Since(start),
			})
			return result
		}

		if !p.policy.ShouldRetry(err, result.Attempts) {
			result.Status = bible.FetchStatusFailed
			result.Err = err
			p.logger.Warn("chapter fetch failed",
				zap.String("version_id", versionID),
				zap.String("usfm", ref.USFM),
				zap.Int("chapter", ref.Chapter),
				zap.Int("attempts", result.Attempts),
				zap.Error(err),
			)
			events.Emit(progress.Event{
				Stage:     progress.StageChapterFailed,
				VersionID: versionID,
				USFM:      ref.USFM,
				Chapter:   ref.Chapter,
				Attempts:  result.Attempts,
				Dur:       time.Since(start),
				Note:      err.Error(),
			})
			return result
		}

		retries.Add(1)
		metrics.ObserveRetry()
		p.logger.Debug("retrying chapter fetch",
			zap.String("usfm", ref.USFM),
			zap.Int("chapter", ref.Chapter),
			zap.Int("attempts", result.Attempts),
			zap.Error(err),
		)
		events.Emit(progress.Event{
			Stage:     progress.StageChapterRetry,
			VersionID: versionID,
			USFM:      ref.USFM,
			Chapter:   ref.Chapter,
			Attempts:  result.Attempts,
			Dur:       time.Since(start),
			Note:      err.Error(),
		})

		select {
		case <-time.After(p.policy.Backoff(result.Attempts)):
		case <-ctx.Done():
			result.Status = bible.FetchStatusFailed
			result.Err = ctx.Err()
			return result
		}
	}
}

// fetchAttempt runs one provider call under the per-request timeout,
// classifying a blown deadline as transient so the policy can retry it.
func (p *Pool) fetchAttempt(ctx context.Context, versionID string, ref bible.ChapterRef) (bible.Chapter, error) {
	attemptCtx := ctx
	cancel := func() {}
	if p.cfg.RequestTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
	}
	defer cancel()

	chapter, err := p.provider.FetchChapter(attemptCtx, versionID, ref)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		var transient *bible.TransientFetchError
		if !errors.As(err, &transient) {
			err = &bible.TransientFetchError{Err: err}
		}
	}
	return chapter, err
}
