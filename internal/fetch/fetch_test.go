package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2015-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseMonth("202312")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseMonth("2023-13")
	assert.Error(t, err)
}

func TestMonths(t *testing.T) {
	ms := Months(time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, ms, 4)
	assert.Equal(t, "2023-11", ms[0].Format("2006-01"))
	assert.Equal(t, "2024-02", ms[3].Format("2006-01"))

	assert.Empty(t, Months(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFileName(t *testing.T) {
	m := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "FNRAsh202401.zip", FileName("FNRA", m))
	assert.Equal(t, "FNSQsh202401_3.zip", FileName("FNSQ_3", m))
}

func TestDownloaderJobs(t *testing.T) {
	d, err := NewDownloader(Config{Dir: "data", Sources: []string{"FNRA", "FNSQ_1"}}, nil)
	require.NoError(t, err)
	jobs := d.Jobs(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, jobs, 4)
	assert.Equal(t, "FNRAsh202401.zip", jobs[0].Name)
	assert.Equal(t, filepath.Join("data", "FNSQsh202402_1.zip"), jobs[3].Path)
}

func TestNewDownloaderRequiresDir(t *testing.T) {
	_, err := NewDownloader(Config{}, nil)
	assert.Error(t, err)
}

func TestDownloaderRun(t *testing.T) {
	var hits atomic.Int64
	var flaky atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/FNRAsh202401.zip"):
			w.Write([]byte("zip-bytes"))
		case strings.HasSuffix(r.URL.Path, "/FNYXsh202401.zip"):
			if flaky.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("after-retry"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "FNQCsh202401.zip")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	d, err := NewDownloader(Config{
		BaseURL:   srv.URL + "/equity/regsho/monthly",
		Dir:       dir,
		Sources:   []string{"FNRA", "FNSQ_1", "FNQC", "FNYX"},
		Workers:   2,
		Retries:   2,
		RetryWait: time.Millisecond,
		Timeout:   5 * time.Second,
	}, nil)
	require.NoError(t, err)

	m := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats, err := d.Run(context.Background(), m, m)
	require.NoError(t, err)
	assert.Equal(t, Stats{Downloaded: 2, Skipped: 1, Missing: 1}, stats)

	data, err := os.ReadFile(filepath.Join(dir, "FNRAsh202401.zip"))
	require.NoError(t, err)
	assert.Equal(t, "zip-bytes", string(data))
	data, err = os.ReadFile(filepath.Join(dir, "FNYXsh202401.zip"))
	require.NoError(t, err)
	assert.Equal(t, "after-retry", string(data))
	data, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "existing file is not re-downloaded")

	_, err = os.Stat(filepath.Join(dir, "FNSQsh202401_1.zip"))
	assert.True(t, os.IsNotExist(err), "missing file leaves nothing behind")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".part-")
	}

	before := hits.Load()
	stats, err = d.Run(context.Background(), m, m)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, before+1, hits.Load(), "only the missing file is requested again")
}
