// Package app wires the provider, fetch pool, and document writer into a
// single conversion workflow.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openscripture/zefbible/internal/bible"
	"github.com/openscripture/zefbible/internal/config"
	"github.com/openscripture/zefbible/internal/metrics"
	"github.com/openscripture/zefbible/internal/pool"
	"github.com/openscripture/zefbible/internal/progress"
	"github.com/openscripture/zefbible/internal/zefania"
)

// App holds the long-lived services a conversion run needs.
type App struct {
	cfg      config.Config
	provider bible.Provider
	pool     *pool.Pool
	writer   bible.DocumentWriter
	clock    bible.Clock
	idGen    bible.IDGenerator
	events   progress.Emitter
	logger   *zap.Logger
}

// Report summarizes one converted version.
type Report struct {
	RunID          string
	VersionID      string
	Title          string
	Abbreviation   string
	Path           string
	Books          int
	Chapters       int
	FailedChapters []bible.ChapterRef
	Retries        int
	Duration       time.Duration
}

// New constructs an App from already-built services. Nil loggers are
// replaced with a no-op logger.
func New(cfg config.Config, provider bible.Provider, p *pool.Pool, writer bible.DocumentWriter, clock bible.Clock, idGen bible.IDGenerator, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:      cfg,
		provider: provider,
		pool:     p,
		writer:   writer,
		clock:    clock,
		idGen:    idGen,
		logger:   logger,
	}
}

// SetEvents attaches a progress emitter. Events carry the run ID and a
// timestamp by the time they reach it.
func (a *App) SetEvents(events progress.Emitter) {
	a.events = events
}

// runEmitter stamps run identity and time onto events on their way to the
// underlying emitter.
type runEmitter struct {
	next  progress.Emitter
	runID [16]byte
	clock bible.Clock
}

func (e runEmitter) Emit(evt progress.Event) {
	evt.RunID = e.runID
	evt.TS = e.clock.Now()
	e.next.Emit(evt)
}

// Convert fetches one version end to end and writes its Zefania document.
// If the fraction of failed chapters exceeds the configured threshold the
// run fails with a *bible.IncompleteDataError and nothing is written.
func (a *App) Convert(ctx context.Context, versionID string) (Report, error) {
	start := a.clock.Now()

	runID, err := a.idGen.NewID()
	if err != nil {
		return Report{}, fmt.Errorf("generate run id: %w", err)
	}
	logger := a.logger.With(zap.String("run_id", runID), zap.String("version_id", versionID))
	logger.Info("Starting conversion")

	events := progress.Emitter(nil)
	if a.events != nil {
		events = runEmitter{next: a.events, runID: progress.RunIDBytes(runID), clock: a.clock}
		ctx = progress.NewContext(ctx, events)
		events.Emit(progress.Event{Stage: progress.StageRunStart, VersionID: versionID})
	}
	emitRunEnd := func(stage progress.Stage, note string) {
		if events == nil {
			return
		}
		events.Emit(progress.Event{
			Stage:     stage,
			VersionID: versionID,
			Dur:       a.clock.Now().Sub(start),
			Note:      note,
		})
	}

	version, err := a.provider.FetchVersion(ctx, versionID)
	if err != nil {
		metrics.ObserveRun("failed")
		emitRunEnd(progress.StageRunError, err.Error())
		return Report{}, fmt.Errorf("fetch version %s: %w", versionID, err)
	}
	refs := version.ChapterRefs()
	logger.Info("Fetched version metadata",
		zap.String("title", version.Title),
		zap.String("abbreviation", version.Abbreviation),
		zap.Int("books", len(version.Books)),
		zap.Int("chapters", len(refs)),
	)

	result, err := a.pool.FetchAll(ctx, versionID, refs)
	if err != nil {
		metrics.ObserveRun("failed")
		emitRunEnd(progress.StageRunError, err.Error())
		return Report{}, fmt.Errorf("fetch chapters: %w", err)
	}

	report := Report{
		RunID:          runID,
		VersionID:      versionID,
		Title:          version.Title,
		Abbreviation:   version.Abbreviation,
		Books:          len(version.Books),
		Chapters:       len(refs),
		FailedChapters: result.Failed,
		Retries:        result.Retries,
	}

	if err := a.checkThreshold(result); err != nil {
		logger.Error("Too many chapters failed; not writing output",
			zap.Int("failed", len(result.Failed)),
			zap.Int("total", len(refs)),
			zap.Float64("threshold", a.cfg.Output.FailureThreshold),
		)
		metrics.ObserveRun("incomplete")
		emitRunEnd(progress.StageRunError, err.Error())
		report.Duration = a.clock.Now().Sub(start)
		return report, err
	}

	doc, err := zefania.Marshal(version, result.Chapters)
	if err != nil {
		metrics.ObserveRun("failed")
		emitRunEnd(progress.StageRunError, err.Error())
		return report, fmt.Errorf("marshal document: %w", err)
	}
	path, err := a.writer.Write(ctx, version, doc)
	if err != nil {
		metrics.ObserveRun("failed")
		emitRunEnd(progress.StageRunError, err.Error())
		return report, fmt.Errorf("write document: %w", err)
	}

	report.Path = path
	report.Duration = a.clock.Now().Sub(start)
	metrics.ObserveRun("success")
	emitRunEnd(progress.StageRunDone, "")
	logger.Info("Conversion complete",
		zap.String("path", path),
		zap.Int("failed_chapters", len(result.Failed)),
		zap.Int("retries", result.Retries),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// ConvertAll converts each version in order. Failed versions do not stop
// the remaining ones; their errors are joined into the returned error.
func (a *App) ConvertAll(ctx context.Context, versionIDs []string) ([]Report, error) {
	reports := make([]Report, 0, len(versionIDs))
	var errs []error
	for _, id := range versionIDs {
		report, err := a.Convert(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				errs = append(errs, err)
				break
			}
			a.logger.Warn("Version conversion failed", zap.String("version_id", id), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

func (a *App) checkThreshold(result pool.Result) error {
	total := len(result.Chapters)
	if total == 0 {
		return nil
	}
	failed := len(result.Failed)
	ratio := float64(failed) / float64(total)
	if ratio > a.cfg.Output.FailureThreshold {
		return &bible.IncompleteDataError{
			Failed:    failed,
			Total:     total,
			Threshold: a.cfg.Output.FailureThreshold,
			Refs:      result.Failed,
		}
	}
	return nil
}
