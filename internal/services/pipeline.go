package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sparkify-data/sparkify-etl/internal/calendar"
	"github.com/sparkify-data/sparkify-etl/internal/db"
	"github.com/sparkify-data/sparkify-etl/internal/extract"
	"github.com/sparkify-data/sparkify-etl/internal/files/filesystem"
	"github.com/sparkify-data/sparkify-etl/internal/files/scanner"
	"github.com/sparkify-data/sparkify-etl/internal/store"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// StoreOpener opens the store for one run. The returned release function is
// always non-nil when err is nil and must be called when the run ends.
type StoreOpener func(ctx context.Context, cfg *sparkify.RunConfig) (sparkify.Store, func(), error)

// Pipeline runs the song phase and then the log phase over one store.
// Thread-Safety: NOT safe for concurrent Run calls on the same instance.
type Pipeline struct {
	connectorFactory db.ConnectorFactory
	fs               filesystem.FileSystemProvider
	logger           sparkify.Logger
	progress         sparkify.ProgressReporter
	openStore        StoreOpener
	newRunID         func() string
}

// PipelineOption customizes a Pipeline.
type PipelineOption func(*Pipeline)

// WithStoreOpener replaces the PostgreSQL store, typically with an
// in-memory one in tests.
func WithStoreOpener(opener StoreOpener) PipelineOption {
	return func(p *Pipeline) {
		p.openStore = opener
	}
}

// WithRunID fixes how run ids are generated.
func WithRunID(fn func() string) PipelineOption {
	return func(p *Pipeline) {
		p.newRunID = fn
	}
}

// NewPipeline creates a Pipeline. Panics on nil dependencies.
func NewPipeline(
	connectorFactory db.ConnectorFactory,
	fs filesystem.FileSystemProvider,
	logger sparkify.Logger,
	progress sparkify.ProgressReporter,
	opts ...PipelineOption,
) *Pipeline {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if fs == nil {
		panic("fs cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if progress == nil {
		panic("progress cannot be nil")
	}
	p := &Pipeline{
		connectorFactory: connectorFactory,
		fs:               fs,
		logger:           logger,
		progress:         progress,
		newRunID:         uuid.NewString,
	}
	p.openStore = p.openPostgresStore
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one ETL run. The song phase commits completely before the log
// phase starts, so every play lookup sees the whole catalog.
//
// Per-file failures do not fail the run unless cfg.Strict is set, in which
// case the returned error wraps sparkify.ErrFilesFailed. A connection lost
// mid-run ends the run with an error wrapping sparkify.ErrConnectionFailed.
func (p *Pipeline) Run(ctx context.Context, cfg sparkify.RunConfig) (sparkify.RunSummary, error) {
	start := time.Now()
	summary := sparkify.RunSummary{RunID: p.newRunID()}

	if err := cfg.Validate(); err != nil {
		return summary, err
	}
	conv, err := calendar.ParseWeekConvention(cfg.WeekConvention)
	if err != nil {
		return summary, err
	}
	summary.WeekConvention = conv.String()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	p.logger.Info("Run %s started (week convention: %s)", summary.RunID, conv)

	openStore := p.openStore
	if cfg.DryRun {
		p.logger.Info("Dry run: rows are extracted into memory and discarded")
		openStore = openMemoryStore
	}
	st, release, err := openStore(ctx, &cfg)
	if err != nil {
		return summary, err
	}
	defer release()

	driver := NewBatchDriver(scanner.NewScannerWithFS(cfg.Extension, p.fs), st, p.logger, p.progress)

	phases := []struct {
		root      string
		extractor sparkify.Extractor
	}{
		{cfg.SongDataPath, extract.NewSongExtractor()},
		{cfg.LogDataPath, extract.NewLogExtractor(conv)},
	}
	for _, phase := range phases {
		ps, err := driver.ProcessDirectory(ctx, phase.root, phase.extractor)
		summary.Phases = append(summary.Phases, ps)
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
	}

	summary.Duration = time.Since(start)
	p.progress.RunFinished(summary)

	if failed := summary.Failed(); failed > 0 {
		p.logger.Warn("Run %s finished with %d failed files", summary.RunID, failed)
		if cfg.Strict {
			return summary, fmt.Errorf("%d files did not commit: %w", failed, sparkify.ErrFilesFailed)
		}
		return summary, nil
	}
	p.logger.Info("✓ Run %s completed successfully", summary.RunID)
	return summary, nil
}

// openPostgresStore connects, takes one dedicated connection for the run and
// optionally creates the schema on it.
func (p *Pipeline) openPostgresStore(ctx context.Context, cfg *sparkify.RunConfig) (sparkify.Store, func(), error) {
	connector, err := p.connectorFactory(cfg.Connection, p.logger)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Verbose("Connecting to %s", db.Redacted(cfg.Connection))
	pool, err := connector.Connect(ctx)
	if err != nil {
		closeConnector(connector, p.logger)
		return nil, nil, err
	}

	session, err := db.AcquireSession(ctx, pool)
	if err != nil {
		pool.Close()
		closeConnector(connector, p.logger)
		return nil, nil, err
	}

	release := func() {
		session.Release()
		pool.Close()
		closeConnector(connector, p.logger)
	}

	if cfg.CreateSchema {
		if err := store.CreateSchema(ctx, session); err != nil {
			release()
			return nil, nil, err
		}
		p.logger.Verbose("Schema created")
	}

	return store.NewPostgresStore(session), release, nil
}

func openMemoryStore(context.Context, *sparkify.RunConfig) (sparkify.Store, func(), error) {
	return store.NewMemoryStore(), func() {}, nil
}

func closeConnector(connector sparkify.Connector, logger sparkify.Logger) {
	if c, ok := connector.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Verbose("close connector: %v", err)
		}
	}
}
