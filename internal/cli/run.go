package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sparkify-data/sparkify-etl/internal/config"
	"github.com/sparkify-data/sparkify-etl/internal/db"
	"github.com/sparkify-data/sparkify-etl/internal/files/filesystem"
	"github.com/sparkify-data/sparkify-etl/internal/logging"
	"github.com/sparkify-data/sparkify-etl/internal/progress"
	"github.com/sparkify-data/sparkify-etl/internal/services"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

type runFlagValues struct {
	songData       string
	logData        string
	extension      string
	weekConvention string
	strict         bool
	dryRun         bool
	createSchema   bool
	timeout        time.Duration
	connectRetries int
}

var runFlags runFlagValues

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&runFlags.songData, "song-data", sparkify.DefaultSongDataPath,
		"Root directory of the song metadata files")
	flags.StringVar(&runFlags.logData, "log-data", sparkify.DefaultLogDataPath,
		"Root directory of the activity log files")
	flags.StringVar(&runFlags.extension, "extension", sparkify.DefaultExtension,
		"File extension matched during discovery (case-insensitive)")
	flags.StringVar(&runFlags.weekConvention, "week-convention", "iso",
		"Week and weekday numbering of the time table:\n"+
			"  iso  Monday = 0, ISO 8601 week numbers\n"+
			"  us   Sunday = 0, week 1 starts on the first Sunday")
	flags.BoolVar(&runFlags.strict, "strict", false,
		"Exit with status 13 when any file fails to commit")
	flags.BoolVar(&runFlags.dryRun, "dry-run", false,
		"Parse and transform every file without connecting to the database")
	flags.BoolVar(&runFlags.createSchema, "create-schema", false,
		"Create the analytics tables before loading (no-op when they exist)")
	flags.DurationVar(&runFlags.timeout, "timeout", 0,
		"Upper bound for the whole run, 0 for none\n"+
			"Examples: 30s, 5m, 1h30m")
	flags.IntVar(&runFlags.connectRetries, "connect-retries", sparkify.DefaultConnectRetries,
		"Retries of a transient failure while opening the initial connection.\n"+
			"A connection lost during loading is never retried.")
}

// buildRunConfig merges flags, sparkify.yaml and the environment.
func buildRunConfig(cmd *cobra.Command, projectCfg *config.ProjectConfig, logger sparkify.Logger) (sparkify.RunConfig, error) {
	var pc config.ProjectConfig
	if projectCfg != nil {
		pc = *projectCfg
	}

	cfg := sparkify.RunConfig{
		SongDataPath:   stringSetting(cmd, "song-data", runFlags.songData, pc.SongData),
		LogDataPath:    stringSetting(cmd, "log-data", runFlags.logData, pc.LogData),
		Extension:      stringSetting(cmd, "extension", runFlags.extension, pc.Extension),
		WeekConvention: stringSetting(cmd, "week-convention", runFlags.weekConvention, pc.WeekConvention),
		Strict:         runFlags.strict || pc.Strict,
		DryRun:         runFlags.dryRun,
		CreateSchema:   runFlags.createSchema,
		Timeout:        runFlags.timeout,
		Verbose:        getVerboseFlag(cmd),
	}

	if !cmd.Flags().Changed("timeout") {
		timeout, err := pc.TimeoutDuration()
		if err != nil {
			return cfg, fmt.Errorf("%s: %w: %w", config.ConfigFileName, sparkify.ErrInvalidConfig, err)
		}
		if timeout > 0 {
			cfg.Timeout = timeout
		}
	}

	retries := runFlags.connectRetries
	if !cmd.Flags().Changed("connect-retries") && pc.ConnectRetries != 0 {
		retries = pc.ConnectRetries
	}
	if retries < 0 {
		return cfg, fmt.Errorf("connect retries must not be negative, got %d: %w", retries, sparkify.ErrInvalidConfig)
	}

	if !cfg.DryRun {
		connConfig, err := resolveConnection(projectCfg, logger)
		if err != nil {
			return cfg, err
		}
		connConfig.ConnectRetries = retries
		cfg.Connection = connConfig
	}

	return cfg, nil
}

func runETL(cmd *cobra.Command, _ []string) error {
	verbose := getVerboseFlag(cmd)
	reporter := progress.NewReporter(cmd.OutOrStdout())
	defer reporter.Flush()
	logger := reporter.Logger(logging.NewWriterLogger(cmd.ErrOrStderr(), verbose))

	projectCfg, err := loadProjectConfig(globalFlags.configDir)
	if err != nil {
		return err
	}
	cfg, err := buildRunConfig(cmd, projectCfg, logger)
	if err != nil {
		return err
	}

	pipeline := services.NewPipeline(
		db.NewConnector,
		filesystem.NewOSFileSystem(),
		logger,
		reporter,
	)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	// Handle interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Warn("Received interrupt signal, rolling back the current file...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := pipeline.Run(ctx, cfg); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
