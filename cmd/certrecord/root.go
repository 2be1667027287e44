package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/certrecord/internal/adapters/export"
	"github.com/jsamuelsen/certrecord/internal/app"
	"github.com/jsamuelsen/certrecord/internal/domain"
	"github.com/jsamuelsen/certrecord/internal/platform/config"
	"github.com/jsamuelsen/certrecord/internal/platform/logging"
	"github.com/jsamuelsen/certrecord/internal/platform/metrics"
	"github.com/jsamuelsen/certrecord/internal/platform/telemetry"
	"github.com/jsamuelsen/certrecord/internal/ports"
)

// options carries command-line flags. Empty values leave config untouched.
type options struct {
	configDir       string
	profile         string
	format          string
	metricsTextfile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "certrecord",
		Short:         "Build a certification record and print its export",
		Long:          "certrecord builds a certification record from the configured seed, applies the configured mutation steps, then prints the record and its exported mapping.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, stdout, stderr)
		},
	}

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cmd.Flags().StringVar(&opts.configDir, "config-dir", "configs", "directory holding base.yaml and profile files")
	cmd.Flags().StringVar(&opts.profile, "profile", profile, "config profile to load (defaults to $APP_ENVIRONMENT or local)")
	cmd.Flags().StringVar(&opts.format, "format", "", fmt.Sprintf("export format, one of %v (overrides output.format)", export.Formats()))
	cmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file (enables metrics)")

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.AddCommand(newVersionCmd(stdout), newSchemaCmd(stdout))

	return cmd
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "certrecord %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}

func newSchemaCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the json export",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := stdout.Write(export.Schema())
			return err
		},
	}
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Load configuration, apply flag overrides, validate (fail fast)
	cfg, err := config.LoadFrom(opts.configDir, opts.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	applyOverrides(cfg, opts)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 2. Initialize logging (stderr, stdout stays clean for output)
	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, stderr)
	logging.SetDefault(logger)

	runID := uuid.NewString()
	ctx = logging.WithRunID(logging.WithContext(ctx, logger), runID)

	logger.DebugContext(ctx, "starting",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("profile", opts.profile),
	)

	// 3. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// Shut down once: either in the flush step or, on early return, here.
	shutdownTelemetry := sync.OnceValue(func() error { return telProvider.Shutdown(ctx) })
	defer func() {
		if shutdownErr := shutdownTelemetry(); shutdownErr != nil {
			logger.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 4. Select the output encoder
	encoder, err := export.New(cfg.Output.Format)
	if err != nil {
		return fmt.Errorf("selecting encoder: %w", err)
	}

	// 5. Metrics recorder (noop observer if disabled)
	var observer ports.MutationObserver = ports.NoopObserver{}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder, err = metrics.New(prometheus.Labels{
			"app":         cfg.App.Name,
			"environment": cfg.App.Environment,
		})
		if err != nil {
			return fmt.Errorf("creating metrics recorder: %w", err)
		}
		observer = recorder
	}

	// 6. Build the record and apply the mutation script
	record := domain.NewRecord(recordParams(cfg.Record))
	editor := app.NewRecordEditor(record, &app.EditorConfig{
		Observer: observer,
		Tracer:   telProvider.Tracer(),
		Logger:   logger,
	})

	if err := editor.Apply(ctx, scriptSteps(cfg.Steps)); err != nil {
		return fmt.Errorf("applying steps: %w", err)
	}

	// 7. Print the record and its export
	if _, err := fmt.Fprintln(stdout, "Record:", record); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	if _, err := fmt.Fprintln(stdout, "Export:"); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	if err := encoder.Encode(stdout, record.Snapshot()); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	// 8. Flush metrics and spans concurrently
	var g errgroup.Group

	if recorder != nil {
		g.Go(func() error {
			if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
				return err
			}
			logger.DebugContext(ctx, "metrics written", slog.String("path", cfg.Metrics.TextfilePath))
			return nil
		})
	}

	g.Go(shutdownTelemetry)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}

	return nil
}

func applyOverrides(cfg *config.Config, opts options) {
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}

	if opts.metricsTextfile != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.TextfilePath = opts.metricsTextfile
	}
}

func recordParams(rc config.RecordConfig) domain.RecordParams {
	return domain.RecordParams{
		HoldsCNIL:  rc.CNIL,
		HoldsANSSI: rc.ANSSI,
		SkillLevel: rc.PIX,
		Diplomas:   rc.Diplomas,
	}
}

func scriptSteps(scs []config.StepConfig) []app.Step {
	steps := make([]app.Step, 0, len(scs))
	for _, sc := range scs {
		steps = append(steps, app.Step{Op: app.Op(sc.Op), Arg: sc.Arg})
	}
	return steps
}
