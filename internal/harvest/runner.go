package harvest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/a3tai/formharvest/internal/config"
	"github.com/a3tai/formharvest/internal/logger"
	"github.com/a3tai/formharvest/internal/sink"
	"github.com/a3tai/formharvest/internal/watch"
)

const watchMaxWait = 10 * time.Second

// BatchResult counts what happened to the documents of one batch
type BatchResult struct {
	Pending   int           `json:"pending"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Archived  []string      `json:"archived,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
	Cancelled bool          `json:"cancelled"`
	Saved     bool          `json:"saved"`
	Duration  time.Duration `json:"duration"`
}

// Runner processes the documents waiting in the source folder one at a time
type Runner struct {
	service    *Service
	scanner    *watch.Scanner
	stability  *watch.StabilityChecker
	archiver   *watch.Archiver
	table      sink.Table
	controller *Controller
	log        logger.Logger

	mode         string
	pollInterval time.Duration
	debounce     time.Duration

	batchMu sync.Mutex
	trigger chan struct{}
}

// NewRunner wires a runner from the configuration. The table is opened by
// the caller so it can be shared and saved on shutdown.
func NewRunner(fs afero.Fs, cfg *config.Config, table sink.Table, log logger.Logger) (*Runner, error) {
	scanner, err := watch.NewScanner(fs, cfg.SourceFolder, cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	return &Runner{
		service:      NewService(fs, cfg, log),
		scanner:      scanner,
		stability:    watch.NewStabilityChecker(fs, cfg.StableDelay),
		archiver:     watch.NewArchiver(fs, cfg.BackupFolder),
		table:        table,
		controller:   NewController(),
		log:          log,
		mode:         cfg.Mode,
		pollInterval: cfg.PollInterval,
		debounce:     cfg.StableDelay,
		trigger:      make(chan struct{}, 1),
	}, nil
}

// Service returns the single-document extraction service
func (r *Runner) Service() *Service {
	return r.service
}

// Controller returns the pause and status controller
func (r *Runner) Controller() *Controller {
	return r.controller
}

// Pending lists the documents waiting in the source folder
func (r *Runner) Pending() ([]string, error) {
	return r.scanner.Pending()
}

// Status returns progress including the current table size
func (r *Runner) Status() Status {
	s := r.controller.Status()
	s.Rows = r.table.Len()
	return s
}

// Trigger asks a watching runner to start a batch soon
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// ProcessBatch handles every pending document. Each document is extracted
// and moved to the backup folder, then appended to the table; documents that
// fail either step stay where they are and add no row. The table is saved once at the end. Cancellation
// and pause are honoured between documents.
func (r *Runner) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()

	start := time.Now()
	result := &BatchResult{}

	pending, err := r.scanner.Pending()
	if err != nil {
		return result, err
	}
	result.Pending = len(pending)
	r.controller.update(func(s *Status) { s.Pending = len(pending) })

	for i, path := range pending {
		if err := r.controller.waitResumed(ctx); err != nil {
			result.Cancelled = true
			break
		}
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		r.processOne(ctx, path, result)
		r.controller.update(func(s *Status) { s.Pending = len(pending) - i - 1 })
	}

	var saveErr error
	if result.Processed > 0 {
		// finish the write even when shutting down
		if err := r.table.Save(context.WithoutCancel(ctx)); err != nil {
			saveErr = fmt.Errorf("%w: %w", ErrOutputWrite, err)
			r.log.Error("failed to save table, rows are kept for the next save",
				"file", r.table.Path(), "rows", r.table.Len(), "error", err)
		} else {
			result.Saved = true
		}
	}

	result.Duration = time.Since(start)
	r.controller.update(func(s *Status) {
		s.Batches++
		s.LastBatch = time.Now()
		if saveErr != nil {
			s.LastError = saveErr.Error()
		}
	})

	if result.Processed > 0 || result.Failed > 0 {
		r.log.Info("batch finished",
			"processed", result.Processed,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"output", r.table.Path(),
			"duration", result.Duration)
	}

	return result, saveErr
}

func (r *Runner) processOne(ctx context.Context, path string, result *BatchResult) {
	name := filepath.Base(path)
	log := r.log.With("file", name)

	if err := r.stability.Wait(ctx, path); err != nil {
		result.Skipped++
		r.controller.update(func(s *Status) { s.Skipped++ })
		if errors.Is(err, ErrUnstable) {
			log.Info("document still being written, will retry")
		} else if ctx.Err() == nil {
			log.Warn("cannot check document", "error", err)
		}
		return
	}

	record, err := r.service.ExtractFile(ctx, path)
	if err != nil {
		r.fail(result, name, err)
		log.Error("failed to process document", "error", err)
		return
	}

	// A document that cannot leave the source folder would be read again by
	// the next batch, so it only yields a row once it is archived.
	moved, err := r.archiver.Archive(path)
	if err != nil {
		r.fail(result, name, err)
		log.Error("failed to move document to backup folder", "error", err)
		return
	}
	result.Archived = append(result.Archived, moved)

	r.table.Append(record)
	result.Processed++
	r.controller.update(func(s *Status) {
		s.Processed++
		s.LastFile = name
	})
	log.Info("document processed", "filled", record.Filled(), "labels", len(record.Labels()))
}

func (r *Runner) fail(result *BatchResult, name string, err error) {
	result.Failed++
	result.Errors = append(result.Errors, err.Error())
	r.controller.update(func(s *Status) {
		s.Failed++
		s.LastFile = name
		s.LastError = err.Error()
	})
}

// Run processes once, or keeps processing until ctx is done when the runner
// was configured to watch.
func (r *Runner) Run(ctx context.Context) error {
	if r.mode == config.ModeWatch {
		return r.Watch(ctx)
	}
	if _, err := r.ProcessBatch(ctx); err != nil {
		return err
	}
	return r.saveOnExit()
}

// Watch runs a batch at start, after folder changes and on every poll
// interval. Save failures are logged and retried with the next batch.
func (r *Runner) Watch(ctx context.Context) error {
	watcher := watch.NewWatcher(r.scanner, r.debounce, watchMaxWait, r.log)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(ctx, r.Trigger)
	}()

	var ticker *time.Ticker
	var tick <-chan time.Time
	if r.pollInterval > 0 {
		ticker = time.NewTicker(r.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	r.log.Info("watching for documents", "dir", r.scanner.Dir(), "interval", r.pollInterval)
	r.runBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			return r.saveOnExit()
		case err := <-watchErr:
			if err != nil {
				r.log.Warn("file events unavailable, polling only", "error", err)
			}
			watchErr = nil
		case <-tick:
			r.runBatch(ctx)
		case <-r.trigger:
			r.runBatch(ctx)
		}
	}
}

func (r *Runner) runBatch(ctx context.Context) {
	if r.controller.Paused() {
		return
	}
	if _, err := r.ProcessBatch(ctx); err != nil && !errors.Is(err, ErrOutputWrite) {
		r.log.Error("batch failed", "error", err)
	}
}

func (r *Runner) saveOnExit() error {
	if err := r.table.Save(context.Background()); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	return nil
}
