// Package archivetest builds Reg SHO style zip archives for tests.
package archivetest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// Header is the first line of every Reg SHO text file.
const Header = "MarketCenter|Symbol|Date|Time|ShortType|Size|Price|LinkIndicator"

// Entry is one file inside an archive.
type Entry struct {
	Name  string
	Lines []string
}

// TextEntry returns an entry whose content is Header followed by lines.
func TextEntry(name string, lines ...string) Entry {
	return Entry{Name: name, Lines: append([]string{Header}, lines...)}
}

// WriteZip writes entries into dir/name and returns the path.
func WriteZip(t testing.TB, dir, name string, entries ...Entry) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("create entry %s: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(strings.Join(e.Lines, "\n") + "\n")); err != nil {
			t.Fatalf("write entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

// WriteCorrupt writes a file with a .zip name that is not a zip container.
func WriteCorrupt(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("this is not a zip file"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
