package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

// BatchDriver processes every file under a root directory, one unit of work
// per file.
// Thread-Safety: NOT safe for concurrent ProcessDirectory calls on the same
// store; files are processed serially over one connection.
type BatchDriver struct {
	scanner  sparkify.FileScanner
	store    sparkify.Store
	logger   sparkify.Logger
	progress sparkify.ProgressReporter
}

// NewBatchDriver creates a BatchDriver. Panics on nil dependencies.
func NewBatchDriver(
	scanner sparkify.FileScanner,
	store sparkify.Store,
	logger sparkify.Logger,
	progress sparkify.ProgressReporter,
) *BatchDriver {
	if scanner == nil {
		panic("scanner cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if progress == nil {
		panic("progress cannot be nil")
	}
	return &BatchDriver{
		scanner:  scanner,
		store:    store,
		logger:   logger,
		progress: progress,
	}
}

// ProcessDirectory discovers the files under root and runs extractor over
// each of them, committing after every successful file.
//
// Per-file failures (unreadable or unparseable content, malformed records,
// rejected rows) are recorded in the summary and the next file is processed.
// A lost connection or a cancelled context stops the phase and is returned
// together with the partial summary.
func (d *BatchDriver) ProcessDirectory(ctx context.Context, root string, extractor sparkify.Extractor) (sparkify.PhaseSummary, error) {
	start := time.Now()
	summary := sparkify.PhaseSummary{Phase: extractor.Name(), Root: root}

	files, err := d.scanner.Scan(root)
	if err != nil {
		return summary, fmt.Errorf("%s: %w", summary.Phase, err)
	}
	summary.Found = len(files)

	d.logger.Verbose("%s: %d files found in %s", summary.Phase, len(files), root)
	d.progress.PhaseStarted(summary.Phase, root, len(files))

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("%s: stopped before %s: %w", summary.Phase, file.RelativePath, err)
		}

		result, status, err := d.processFile(ctx, file, extractor)
		if err != nil {
			if isFatal(err) {
				summary.Duration = time.Since(start)
				return summary, fmt.Errorf("%s: aborted at %s: %w", summary.Phase, file.RelativePath, err)
			}
			d.logger.Warn("%s %s: %v", status, file.RelativePath, err)
			summary.Failures = append(summary.Failures, sparkify.FileFailure{File: file, Status: status, Err: err})
		} else {
			d.logger.Verbose("committed %s", file.RelativePath)
			summary.Committed++
			summary.Rows.Add(result)
		}

		d.progress.FileProcessed(i+1, len(files), file)
	}

	summary.Duration = time.Since(start)
	d.progress.PhaseFinished(summary)
	return summary, nil
}

// processFile runs one file through read, begin, extract and commit.
// The returned status is meaningful only when err is non-nil.
func (d *BatchDriver) processFile(ctx context.Context, file sparkify.DataFile, extractor sparkify.Extractor) (sparkify.FileResult, sparkify.FileStatus, error) {
	content, err := d.scanner.ReadFile(file.Path)
	if err != nil {
		return sparkify.FileResult{}, sparkify.FileSkipped, &sparkify.ParseError{Path: file.RelativePath, Err: err}
	}

	uow, err := d.store.Begin(ctx)
	if err != nil {
		return sparkify.FileResult{}, sparkify.FileSkipped, err
	}

	result, err := extractor.Extract(ctx, uow, file, content)
	if err != nil {
		status := sparkify.FileRolledBack
		if errors.Is(err, sparkify.ErrParse) {
			// The extractor validates the whole file before writing anything.
			status = sparkify.FileSkipped
		}
		if rbErr := uow.Rollback(ctx); rbErr != nil {
			if isFatal(rbErr) {
				return sparkify.FileResult{}, status, errors.Join(err, rbErr)
			}
			d.logger.Warn("rollback %s: %v", file.RelativePath, rbErr)
		}
		return sparkify.FileResult{}, status, err
	}

	if err := uow.Commit(ctx); err != nil {
		return sparkify.FileResult{}, sparkify.FileRolledBack, fmt.Errorf("commit: %w", err)
	}
	return result, sparkify.FileCommitted, nil
}

// isFatal reports errors that stop the whole run rather than one file.
func isFatal(err error) bool {
	return errors.Is(err, sparkify.ErrConnectionFailed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
