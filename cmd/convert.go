package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openscripture/zefbible/internal/app"
	"github.com/openscripture/zefbible/internal/bible"
	"github.com/openscripture/zefbible/internal/clock/system"
	"github.com/openscripture/zefbible/internal/config"
	collyfetcher "github.com/openscripture/zefbible/internal/fetcher/colly"
	"github.com/openscripture/zefbible/internal/id/uuid"
	"github.com/openscripture/zefbible/internal/logging"
	"github.com/openscripture/zefbible/internal/metrics"
	"github.com/openscripture/zefbible/internal/policy/ratelimit"
	"github.com/openscripture/zefbible/internal/policy/simple"
	"github.com/openscripture/zefbible/internal/pool"
	"github.com/openscripture/zefbible/internal/progress"
	"github.com/openscripture/zefbible/internal/progress/sinks"
	"github.com/openscripture/zefbible/internal/provider/bibledotcom"
	"github.com/openscripture/zefbible/internal/zefania"
)

// convertFlags holds the command-line overrides for the convert command.
// Zero values mean "use the configured value".
type convertFlags struct {
	outputDir     string
	concurrency   int
	failThreshold float64
	timeout       time.Duration
	metricsAddr   string
}

// newConvertCmd creates and configures the 'convert' subcommand.
func newConvertCmd() *cobra.Command {
	var flags convertFlags
	cmd := &cobra.Command{
		Use:   "convert VERSION_ID...",
		Short: "Fetches one or more Bible versions and writes Zefania XML files",
		Long: `Fetches the metadata and every chapter of the given version IDs and
writes one Zefania XML document per version into the output directory.
A version whose failed-chapter ratio exceeds the failure threshold
produces no file and a non-zero exit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvertCommand(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "directory for generated XML files")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "maximum chapter fetches in flight")
	cmd.Flags().Float64Var(&flags.failThreshold, "fail-threshold", -1, "highest tolerated fraction of failed chapters")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "per-request timeout")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "address for the Prometheus endpoint (empty disables it)")

	return cmd
}

func runConvertCommand(cmd *cobra.Command, args []string, flags convertFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(&cfg, cmd, flags)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Warn("Metrics server stopped", zap.Error(serveErr))
			}
		}()
		defer func() { _ = srv.Close() }()
		logger.Info("Serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}

	application, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}

	hub := progress.NewHub(progress.Config{Logger: logger}, sinks.NewLogSink(logger))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if closeErr := hub.Close(closeCtx); closeErr != nil {
			logger.Warn("Progress hub close failed", zap.Error(closeErr))
		}
	}()
	application.SetEvents(hub)

	reports, err := application.ConvertAll(cmd.Context(), args)
	for _, report := range reports {
		logger.Info("Wrote version",
			zap.String("version_id", report.VersionID),
			zap.String("abbreviation", report.Abbreviation),
			zap.String("path", report.Path),
			zap.Int("books", report.Books),
			zap.Int("chapters", report.Chapters),
			zap.Int("failed_chapters", len(report.FailedChapters)),
			zap.Int("retries", report.Retries),
			zap.Duration("duration", report.Duration),
		)
	}
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	logger.Info("Convert command finished", zap.Int("versions", len(reports)))
	return nil
}

// applyFlagOverrides folds explicitly-set flags into the loaded config.
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command, flags convertFlags) {
	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir = flags.outputDir
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Fetch.Concurrency = flags.concurrency
	}
	if cmd.Flags().Changed("fail-threshold") {
		cfg.Output.FailureThreshold = flags.failThreshold
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Fetch.TimeoutSeconds = int(flags.timeout / time.Second)
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}
}

// buildApp assembles the full service graph from configuration.
func buildApp(cfg config.Config, logger *zap.Logger) (*app.App, error) {
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   cfg.Fetch.RatePerHost,
		DefaultBurst: cfg.Fetch.RateBurst,
	})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Provider.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	}, limiter)
	provider := bibledotcom.New(bibledotcom.Config{BaseURL: cfg.Provider.BaseURL}, fetcher, logger)

	var policy bible.RetryPolicy
	if cfg.Fetch.RetryPolicy == "fixed" {
		policy = simple.New(cfg.Fetch.MaxAttempts, cfg.BackoffInitial())
	} else {
		policy = bible.NewExponentialRetryPolicy(cfg.Fetch.MaxAttempts, cfg.BackoffInitial(), cfg.BackoffMax())
	}
	fetchPool := pool.New(provider, policy, pool.Config{
		Concurrency:    cfg.Fetch.Concurrency,
		RequestTimeout: cfg.RequestTimeout(),
	}, logger)

	writer, err := zefania.NewFileWriter(cfg.Output.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("init writer: %w", err)
	}

	return app.New(cfg, provider, fetchPool, writer, system.New(), uuid.New(), logger), nil
}
