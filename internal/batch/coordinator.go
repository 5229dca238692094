package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"regsho/internal/model"
)

// DefaultBatchSize is the worker-pool width used when none is configured.
const DefaultBatchSize = 16

// ArchiveReader turns one archive into a PartialResult. Implementations must
// report failures through PartialResult.Err instead of panicking.
type ArchiveReader interface {
	Read(ctx context.Context, path string) model.PartialResult
}

// ReaderFunc adapts a function to ArchiveReader.
type ReaderFunc func(ctx context.Context, path string) model.PartialResult

func (f ReaderFunc) Read(ctx context.Context, path string) model.PartialResult {
	return f(ctx, path)
}

// Failure stages.
const (
	StageArchive = "archive" // reader could not open or parse the archive
	StageWorker  = "worker"  // worker panicked or timed out
)

// Failure records one archive that contributed nothing.
type Failure struct {
	Archive string `json:"archive"`
	Stage   string `json:"stage"`
	Reason  string `json:"reason"`
}

// Result is everything gathered across all batches.
type Result struct {
	Total     int
	Partials  []model.PartialResult
	Succeeded []string
	Failed    []Failure
}

// Observer receives per-archive outcomes, e.g. for metrics. Either method may be nil.
type Observer struct {
	OnResult  func(model.PartialResult)
	OnFailure func(Failure)
}

// Config holds coordinator settings.
type Config struct {
	BatchSize      int           // Max archives processed concurrently (default: 16)
	ArchiveTimeout time.Duration // Per-archive limit, 0 = none
	Heartbeat      time.Duration // Progress log interval, 0 = off
}

// Coordinator runs an ArchiveReader over archives in fixed-size batches.
type Coordinator struct {
	cfg      Config
	reader   ArchiveReader
	observer Observer
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator. A BatchSize below 1 falls back to DefaultBatchSize.
func NewCoordinator(cfg Config, reader ArchiveReader, observer Observer, logger *slog.Logger) *Coordinator {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{cfg: cfg, reader: reader, observer: observer, logger: logger}
}

// Chunks splits items into consecutive slices of at most size elements.
func Chunks(items []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

type outcome struct {
	result  model.PartialResult
	failure *Failure
}

// Run processes every archive once. Each batch finishes completely before the
// next one starts. Failed archives are logged and left out of Partials. When
// ctx is cancelled Run stops before the next batch and returns what it has
// gathered together with ctx.Err().
func (c *Coordinator) Run(ctx context.Context, archives []string) (*Result, error) {
	res := &Result{Total: len(archives)}
	var done, failed atomic.Int64

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	if c.cfg.Heartbeat > 0 {
		go runHeartbeat(hbCtx, c.cfg.Heartbeat, len(archives), &done, &failed, c.logger)
	}

	batches := Chunks(archives, c.cfg.BatchSize)
	for i, chunk := range batches {
		if err := ctx.Err(); err != nil {
			c.logger.Warn("run interrupted, skipping remaining batches", "batch", i+1, "batches", len(batches), "error", err)
			return res, err
		}
		c.logger.Info("batch start", "batch", i+1, "batches", len(batches), "archives", len(chunk))

		outcomes := make([]outcome, len(chunk))
		var g errgroup.Group
		g.SetLimit(c.cfg.BatchSize)
		for j, path := range chunk {
			g.Go(func() error {
				outcomes[j] = c.runOne(ctx, path)
				done.Add(1)
				if outcomes[j].failure != nil {
					failed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		for _, o := range outcomes {
			if o.failure != nil {
				res.Failed = append(res.Failed, *o.failure)
				if c.observer.OnFailure != nil {
					c.observer.OnFailure(*o.failure)
				}
				continue
			}
			res.Partials = append(res.Partials, o.result)
			res.Succeeded = append(res.Succeeded, o.result.Archive)
			if c.observer.OnResult != nil {
				c.observer.OnResult(o.result)
			}
		}
		c.logger.Info("batch done", "batch", i+1, "batches", len(batches), "done", done.Load(), "failed", failed.Load())
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	c.logger.Info("all batches done", "archives", len(archives), "succeeded", len(res.Succeeded), "failed", len(res.Failed))
	if len(res.Failed) > 0 {
		c.logger.Info("failed archives", "count", len(res.Failed), "reasons", joinFailedReasons(res.Failed))
	}
	return res, nil
}

// runOne reads one archive and converts every failure mode into a Failure.
func (c *Coordinator) runOne(ctx context.Context, path string) outcome {
	type readResult struct {
		res model.PartialResult
		err error
	}

	if c.cfg.ArchiveTimeout <= 0 {
		r, err := c.safeRead(ctx, path)
		return c.toOutcome(path, r, err)
	}

	wctx, cancel := context.WithTimeout(ctx, c.cfg.ArchiveTimeout)
	defer cancel()
	ch := make(chan readResult, 1)
	go func() {
		r, err := c.safeRead(wctx, path)
		ch <- readResult{res: r, err: err}
	}()
	select {
	case rr := <-ch:
		if wctx.Err() == nil {
			return c.toOutcome(path, rr.res, rr.err)
		}
	case <-wctx.Done():
	}
	// A result that arrives after the deadline is dropped, never merged.
	err := fmt.Errorf("archive not finished after %s: %w", c.cfg.ArchiveTimeout, wctx.Err())
	return c.toOutcome(path, model.PartialResult{}, err)
}

// safeRead calls the reader and turns a panic into an error.
func (c *Coordinator) safeRead(ctx context.Context, path string) (res model.PartialResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return c.reader.Read(ctx, path), nil
}

func (c *Coordinator) toOutcome(path string, r model.PartialResult, workerErr error) outcome {
	if workerErr != nil {
		c.logger.Error("worker failed", "archive", path, "error", workerErr)
		return outcome{failure: &Failure{Archive: path, Stage: StageWorker, Reason: workerErr.Error()}}
	}
	if r.Err != nil {
		return outcome{failure: &Failure{Archive: path, Stage: StageArchive, Reason: r.Err.Error()}}
	}
	if r.Archive == "" {
		r.Archive = path
	}
	return outcome{result: r}
}
