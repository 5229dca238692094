package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regsho/internal/batch"
	"regsho/internal/model"
)

func TestRunObserver(t *testing.T) {
	r := NewRun()
	obs := r.Observer()
	obs.OnResult(model.PartialResult{Entries: 2, Rows: 100, Skipped: 3})
	obs.OnResult(model.PartialResult{Entries: 1, Rows: 10})
	obs.OnFailure(batch.Failure{Stage: batch.StageArchive})
	obs.OnFailure(batch.Failure{Stage: batch.StageWorker})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.archives.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.archives.WithLabelValues(batch.StageArchive)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.archives.WithLabelValues(batch.StageWorker)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.entries))
	assert.Equal(t, 110.0, testutil.ToFloat64(r.rows))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.skipped))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRun()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Finish(42, start, start.Add(90*time.Second))

	path := filepath.Join(t.TempDir(), "textfile", "regsho.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, "regsho_output_rows 42"), out)
	assert.True(t, strings.Contains(out, "regsho_run_duration_seconds 90"), out)
}
