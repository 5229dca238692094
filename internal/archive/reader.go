package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"regsho/internal/model"
)

// EntrySuffix selects which archive entries are parsed.
const EntrySuffix = ".txt"

// Reader extracts and parses one archive at a time. It is safe for concurrent
// use: every Read works in its own subdirectory of the scratch dir.
type Reader struct {
	scratch     string
	granularity model.Granularity
	logger      *slog.Logger
}

// NewReader creates a Reader extracting into scratchDir.
func NewReader(scratchDir string, g model.Granularity, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{scratch: scratchDir, granularity: g, logger: logger}
}

// Read processes the archive at path. It never fails: on any extraction or
// I/O error the error is logged, Err is set and Aggregate is empty.
func (r *Reader) Read(ctx context.Context, path string) model.PartialResult {
	res := model.PartialResult{Archive: path, Aggregate: model.NewAggregate()}
	if err := r.read(ctx, path, &res); err != nil {
		r.logger.Error("archive failed", "archive", path, "error", err)
		return model.PartialResult{Archive: path, Aggregate: model.NewAggregate(), Err: err}
	}
	if res.Entries == 0 {
		r.logger.Warn("archive has no text entries", "archive", path)
	}
	r.logger.Info("archive done", "archive", filepath.Base(path), "entries", res.Entries, "rows", res.Rows, "skipped", res.Skipped, "keys", len(res.Aggregate))
	return res
}

func (r *Reader) read(ctx context.Context, path string, res *model.PartialResult) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir, err := os.MkdirTemp(r.scratch, base+"-*")
	if err != nil {
		return fmt.Errorf("create extract dir: %w", err)
	}
	defer os.RemoveAll(dir)

	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, EntrySuffix) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rows, skipped, err := r.readEntry(ctx, f, dir, res.Aggregate)
		if err != nil {
			return fmt.Errorf("entry %s: %w", f.Name, err)
		}
		res.Entries++
		res.Rows += rows
		res.Skipped += skipped
		if skipped > 0 {
			r.logger.Debug("skipped rows", "archive", path, "entry", f.Name, "skipped", skipped)
		}
	}
	return nil
}

// readEntry materializes f under dir, parses it into agg and removes the file.
func (r *Reader) readEntry(ctx context.Context, f *zip.File, dir string, agg model.Aggregate) (rows, skipped int, err error) {
	txtPath := filepath.Join(dir, filepath.Base(f.Name))
	if err := extract(f, txtPath); err != nil {
		return 0, 0, err
	}
	defer os.Remove(txtPath)

	in, err := os.Open(txtPath)
	if err != nil {
		return 0, 0, fmt.Errorf("open extracted file: %w", err)
	}
	defer in.Close()

	return ParseRecords(ctx, in, func(rec model.Record) {
		agg.Add(rec, r.granularity)
	})
}

func extract(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract: %w", err)
	}
	return out.Close()
}
