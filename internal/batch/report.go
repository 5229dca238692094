package batch

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report summarizes one aggregation run. It is written next to the output.
type Report struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	InputFolder string    `json:"input_folder"`
	Output      string    `json:"output"`
	Granularity string    `json:"granularity"`
	BatchSize   int       `json:"batch_size"`
	Archives    int       `json:"archives"`
	Rows        int       `json:"rows"`
	Skipped     int       `json:"skipped_rows"`
	OutputRows  int       `json:"output_rows"`
	Interrupted bool      `json:"interrupted,omitempty"`
	Succeeded   []string  `json:"succeeded"`
	Failed      []Failure `json:"failed"`
}

// NewReport starts a report with a fresh run id.
func NewReport(now time.Time) *Report {
	return &Report{RunID: uuid.NewString(), StartedAt: now}
}

// Apply copies the coordinator result into the report.
func (r *Report) Apply(res *Result) {
	if res == nil {
		return
	}
	r.Archives = res.Total
	r.Succeeded = append(r.Succeeded[:0], res.Succeeded...)
	r.Failed = append(r.Failed[:0], res.Failed...)
	r.Rows, r.Skipped = 0, 0
	for _, p := range res.Partials {
		r.Rows += p.Rows
		r.Skipped += p.Skipped
	}
}

// WriteReport writes r as indented JSON to path, creating parent directories.
func WriteReport(path string, r *Report) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	slog.Info("report written", "path", path, "run_id", r.RunID, "succeeded", len(r.Succeeded), "failed", len(r.Failed))
	return nil
}

// joinFailedReasons renders up to five failures for a log line.
func joinFailedReasons(failed []Failure) string {
	if len(failed) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range failed {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(filepath.Base(f.Archive))
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failed) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failed)-5))
			break
		}
	}
	return b.String()
}
