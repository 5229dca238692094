// Command regsho-fetch downloads monthly Reg SHO short sale volume archives
// into the folder regsho reads from. Files already on disk are skipped.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"regsho/internal/app"
	"regsho/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("regsho-fetch", flag.ExitOnError)
	configFile := fs.String("config", os.Getenv("REGSHO_CONFIG"), "YAML config file")
	from := fs.String("from", "", "first month, YYYY-MM (default 2015-01)")
	to := fs.String("to", "", "last month, YYYY-MM (default 2023-12)")
	dir := fs.String("dir", "", "download folder (default: input folder)")
	workers := fs.Int("workers", 0, "concurrent downloads (default 1)")
	retries := fs.Int("retries", 0, "retries per file, 0 disables (default 3)")
	logLevel := fs.String("log-level", "", "debug, info, warn, error")
	_ = fs.Parse(os.Args[1:])

	opts := app.Options{ConfigFile: *configFile}
	o := &opts.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "from":
			o.StartMonth = from
		case "to":
			o.EndMonth = to
		case "dir":
			o.DownloadDir = dir
		case "workers":
			o.FetchWorkers = workers
		case "retries":
			o.FetchRetries = retries
		case "log-level":
			o.LogLevel = logLevel
		}
	})

	cfg, err := app.LoadConfig(opts)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := app.ProvideLogger(cfg)
	slog.SetDefault(logger)

	d, err := app.ProvideDownloader(cfg, logger)
	if err != nil {
		slog.Error("failed to create downloader", "error", err)
		os.Exit(1)
	}
	start, end, err := cfg.FetchRange()
	if err != nil {
		slog.Error("invalid month range", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	stats, err := d.Run(ctx, start, end)
	stop()

	if err != nil {
		slog.Error("fetch stopped", "error", err)
		os.Exit(1)
	}
	if stats.Failed > 0 {
		slog.Error("some archives could not be downloaded", "failed", stats.Failed, "dir", cfg.Fetch.DownloadDir)
		os.Exit(1)
	}
}
