package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"regsho/internal/archive"
	"regsho/internal/batch"
	"regsho/internal/metrics"
	"regsho/internal/model"
	"regsho/internal/saver"
)

// Summary describes a finished run.
type Summary struct {
	Report     *batch.Report
	OutputRows int
}

// Pipeline runs one aggregation: list → extract/parse in batches → merge → save.
type Pipeline struct {
	cfg         *Config
	granularity model.Granularity
	coordinator *batch.Coordinator
	saver       saver.RowSaver
	metrics     *metrics.Run
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline creates a Pipeline. m may be nil.
func NewPipeline(cfg *Config, c *batch.Coordinator, rs saver.RowSaver, m *metrics.Run, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:         cfg,
		granularity: cfg.GranularityValue(),
		coordinator: c,
		saver:       rs,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Run aggregates every archive in the input folder and writes the output.
// Per-archive failures are logged and reported but do not fail the run.
// When ctx is cancelled the rows gathered so far are still written and
// ctx.Err() is returned.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	report := batch.NewReport(p.now())
	report.InputFolder = p.cfg.InputFolder
	report.Output = p.cfg.OutputPath
	report.Granularity = string(p.granularity)
	report.BatchSize = p.cfg.BatchSize

	archives, err := ListArchives(p.cfg.InputFolder)
	if err != nil {
		return nil, err
	}
	p.logger.Info("archives found", "count", len(archives), "dir", p.cfg.InputFolder)

	scratch, err := archive.NewScratch(p.cfg.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := scratch.Close(); err != nil {
			p.logger.Warn("could not remove scratch dir", "dir", scratch.Dir, "error", err)
			return
		}
		p.logger.Info("temporary files cleaned up", "dir", scratch.Dir)
	}()

	res, runErr := p.coordinator.Run(ctx, archives)
	report.Apply(res)
	if runErr != nil {
		report.Interrupted = true
		p.logger.Warn("run interrupted, writing partial output", "error", runErr)
	}

	rows := model.Merge(res.Partials).Rows()
	if err := p.saver.Save(rows, p.granularity, p.cfg.OutputPath); err != nil {
		return nil, fmt.Errorf("write output %s: %w", p.cfg.OutputPath, err)
	}
	p.logger.Info("consolidated data saved", "path", p.cfg.OutputPath, "format", p.saver.Extension(), "rows", len(rows))

	// A partial aggregate must not overwrite complete periods in the table.
	if p.cfg.DatabaseURL != "" && runErr == nil {
		if err := loadDatabase(ctx, p.cfg.DatabaseURL, p.granularity, rows, p.logger); err != nil {
			return nil, fmt.Errorf("load database: %w", err)
		}
	}

	report.OutputRows = len(rows)
	report.FinishedAt = p.now()
	p.writeSideFiles(report)

	return &Summary{Report: report, OutputRows: len(rows)}, runErr
}

// writeSideFiles writes the run report and metrics textfile. Failures only warn.
func (p *Pipeline) writeSideFiles(report *batch.Report) {
	if p.cfg.ReportPath != "" {
		if err := batch.WriteReport(p.cfg.ReportPath, report); err != nil {
			p.logger.Warn("could not write run report", "path", p.cfg.ReportPath, "error", err)
		}
	}
	if p.metrics == nil {
		return
	}
	p.metrics.Finish(report.OutputRows, report.StartedAt, report.FinishedAt)
	if p.cfg.MetricsPath != "" {
		if err := p.metrics.WriteTextfile(p.cfg.MetricsPath); err != nil {
			p.logger.Warn("could not write metrics", "path", p.cfg.MetricsPath, "error", err)
		}
	}
}
