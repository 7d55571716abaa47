package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/openscripture/zefbible/internal/progress"
)

// LogSink emits structured logs for conversion progress streams. Chapter
// events log at debug level and run milestones at info, so a production
// config surfaces run boundaries without a line per chapter.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("version_id", evt.VersionID),
			zap.Duration("dur", evt.Dur),
		}
		if evt.USFM != "" {
			fields = append(fields,
				zap.String("book", evt.USFM),
				zap.Int("chapter", evt.Chapter),
				zap.Int("attempts", evt.Attempts),
				zap.Int("verses", evt.Verses),
			)
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		switch evt.Stage {
		case progress.StageRunStart, progress.StageRunDone, progress.StageRunError:
			s.logger.Info("progress event", fields...)
		default:
			s.logger.Debug("progress event", fields...)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
