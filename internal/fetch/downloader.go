package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

// Config holds downloader settings.
type Config struct {
	BaseURL   string
	Dir       string
	Sources   []string
	Workers   int           // Concurrent downloads (default: 1, sequential)
	Retries   int           // Retries per file on transport error, 429, 5xx
	RetryWait time.Duration // Initial backoff between retries (default: 15s)
	Timeout   time.Duration // Per-request timeout (default: 5m)
}

// Stats counts download outcomes.
type Stats struct {
	Downloaded int
	Skipped    int // already on disk
	Missing    int // 4xx, the file was never published
	Failed     int
}

// Job is one file to fetch.
type Job struct {
	Name string
	Path string
}

// Downloader fetches monthly archives into Dir, skipping files already present.
type Downloader struct {
	cfg    Config
	client *resty.Client
	logger *slog.Logger
}

// NewDownloader creates a Downloader. cfg.Dir is required.
func NewDownloader(cfg Config, logger *slog.Logger) (*Downloader, error) {
	if cfg.Dir == "" {
		return nil, errors.New("fetch: download dir is required")
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{cfg: cfg, client: newClient(cfg), logger: logger}, nil
}

// Jobs lists every file for months in [from, to] and all sources.
func (d *Downloader) Jobs(from, to time.Time) []Job {
	var jobs []Job
	for _, m := range Months(from, to) {
		for _, src := range d.cfg.Sources {
			name := FileName(src, m)
			jobs = append(jobs, Job{Name: name, Path: filepath.Join(d.cfg.Dir, name)})
		}
	}
	return jobs
}

type outcome int

const (
	downloaded outcome = iota
	skipped
	missing
	failed
)

// Run downloads every job. Individual file failures are logged and counted;
// only a cancelled context or an unusable download dir returns an error.
func (d *Downloader) Run(ctx context.Context, from, to time.Time) (Stats, error) {
	if err := os.MkdirAll(d.cfg.Dir, 0755); err != nil {
		return Stats{}, fmt.Errorf("create download dir: %w", err)
	}
	jobs := d.Jobs(from, to)
	d.logger.Info("fetch start", "files", len(jobs), "from", from.Format(monthLayout), "to", to.Format(monthLayout), "workers", d.cfg.Workers)

	var mu sync.Mutex
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for _, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o := d.download(gctx, job)
			mu.Lock()
			defer mu.Unlock()
			switch o {
			case downloaded:
				stats.Downloaded++
			case skipped:
				stats.Skipped++
			case missing:
				stats.Missing++
			default:
				stats.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info("fetch done", "downloaded", stats.Downloaded, "skipped", stats.Skipped, "missing", stats.Missing, "failed", stats.Failed)
	return stats, ctx.Err()
}

func (d *Downloader) download(ctx context.Context, job Job) outcome {
	if _, err := os.Stat(job.Path); err == nil {
		d.logger.Info("file already exists", "path", job.Path)
		return skipped
	}

	resp, err := d.client.R().SetContext(ctx).Get("/" + job.Name)
	if err != nil {
		d.logger.Error("download failed", "file", job.Name, "error", err)
		return failed
	}
	code := resp.StatusCode()
	switch {
	case resp.IsSuccess():
	case code >= 400 && code < 500 && code != 429:
		d.logger.Info("file not found", "file", job.Name, "status", code)
		return missing
	default:
		d.logger.Error("download failed", "file", job.Name, "status", resp.Status())
		return failed
	}

	if err := writeAtomic(job.Path, resp.Body()); err != nil {
		d.logger.Error("save failed", "path", job.Path, "error", err)
		return failed
	}
	d.logger.Info("downloaded", "path", job.Path, "bytes", len(resp.Body()))
	return downloaded
}

// writeAtomic writes data to a temp file next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".part-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
