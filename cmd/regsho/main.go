package main

import (
	"context"
	"errors"
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

	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	a, err := InitializeApp(opts)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(a.Logger)

	cfg := a.Config
	slog.Info("consolidating short sale data",
		"input", cfg.InputFolder,
		"output", cfg.OutputPath,
		"format", cfg.OutputFormat,
		"granularity", cfg.Granularity,
		"batch_size", cfg.BatchSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	sum, err := a.Pipeline.Run(ctx)
	stop()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("interrupted, partial output written", "path", cfg.OutputPath)
		} else {
			slog.Error("run failed", "error", err)
		}
		os.Exit(1)
	}
	slog.Info("done",
		"rows", sum.OutputRows,
		"archives", sum.Report.Archives,
		"failed", len(sum.Report.Failed),
		"report", cfg.ReportPath,
	)
}

// parseFlags maps command-line flags onto config overrides. Only flags that
// were given override file and environment values.
func parseFlags(args []string) (app.Options, error) {
	fs := flag.NewFlagSet("regsho", flag.ContinueOnError)
	configFile := fs.String("config", os.Getenv("REGSHO_CONFIG"), "YAML config file")
	in := fs.String("in", "", "folder with Reg SHO *.zip archives (default ./SSVD)")
	out := fs.String("out", "", "output file (default consolidated_daily.csv)")
	format := fs.String("format", "", "output format: csv, parquet, json, xlsx (default from -out extension)")
	batch := fs.Int("batch", 0, "archives processed concurrently per batch (default 16)")
	granularity := fs.String("granularity", "", "daily or monthly (default daily)")
	scratch := fs.String("scratch", "", "scratch directory for extraction (default ./temp_unzip)")
	logLevel := fs.String("log-level", "", "debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return app.Options{}, err
	}

	opts := app.Options{ConfigFile: *configFile}
	o := &opts.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			o.InputFolder = in
		case "out":
			o.OutputPath = out
		case "format":
			o.OutputFormat = format
		case "batch":
			o.BatchSize = batch
		case "granularity":
			o.Granularity = granularity
		case "scratch":
			o.ScratchDir = scratch
		case "log-level":
			o.LogLevel = logLevel
		}
	})
	return opts, nil
}
