package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"regsho/internal/archive"
	"regsho/internal/batch"
	"regsho/internal/fetch"
	"regsho/internal/metrics"
	"regsho/internal/saver"
	"regsho/internal/slogx"
)

// ProvideConfig loads config from file, environment and flags (for Wire).
func ProvideConfig(opts Options) (*Config, error) {
	return LoadConfig(opts)
}

// ProvideLogger builds the process logger from config (for Wire).
func ProvideLogger(cfg *Config) *slog.Logger {
	return slogx.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

// ProvideRowSaver creates RowSaver from config (for Wire).
// Returns error if OutputFormat is not supported.
func ProvideRowSaver(cfg *Config) (saver.RowSaver, error) {
	rs := saver.NewRowSaver(cfg.OutputFormat)
	if rs == nil {
		return nil, fmt.Errorf("unsupported output format %q (use: %s)", cfg.OutputFormat, strings.Join(saver.Formats, ", "))
	}
	return rs, nil
}

// ProvideMetrics creates a fresh metrics registry for one run (for Wire).
func ProvideMetrics() *metrics.Run {
	return metrics.NewRun()
}

// ProvideReader creates the archive reader extracting under ScratchDir (for Wire).
func ProvideReader(cfg *Config, logger *slog.Logger) *archive.Reader {
	return archive.NewReader(cfg.ScratchDir, cfg.GranularityValue(), logger)
}

// ProvideCoordinator wires the reader into a batch coordinator (for Wire).
func ProvideCoordinator(cfg *Config, reader batch.ArchiveReader, m *metrics.Run, logger *slog.Logger) *batch.Coordinator {
	return batch.NewCoordinator(batch.Config{
		BatchSize:      cfg.BatchSize,
		ArchiveTimeout: cfg.ArchiveTimeout,
		Heartbeat:      cfg.Heartbeat,
	}, reader, m.Observer(), logger)
}

// ProvidePipeline assembles the aggregation pipeline (for Wire).
func ProvidePipeline(cfg *Config, c *batch.Coordinator, rs saver.RowSaver, m *metrics.Run, logger *slog.Logger) *Pipeline {
	return NewPipeline(cfg, c, rs, m, logger)
}

// ProvideDownloader creates the archive downloader from the fetch section.
func ProvideDownloader(cfg *Config, logger *slog.Logger) (*fetch.Downloader, error) {
	retries := DefaultFetchRetries
	if cfg.Fetch.Retries != nil {
		retries = *cfg.Fetch.Retries
	}
	return fetch.NewDownloader(fetch.Config{
		BaseURL: cfg.Fetch.BaseURL,
		Dir:     cfg.Fetch.DownloadDir,
		Sources: cfg.Fetch.Sources,
		Workers: cfg.Fetch.Workers,
		Retries: retries,
		Timeout: cfg.Fetch.Timeout,
	}, logger)
}
