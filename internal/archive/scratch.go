package archive

import (
	"fmt"
	"os"
)

// Scratch owns the temporary extraction directory shared by all workers of a run.
type Scratch struct {
	Dir string
}

// NewScratch creates dir (and parents) if needed.
func NewScratch(dir string) (*Scratch, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create scratch dir %s: %w", dir, err)
	}
	return &Scratch{Dir: dir}, nil
}

// Close removes the scratch directory and everything under it. A missing
// directory is not an error.
func (s *Scratch) Close() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("remove scratch dir %s: %w", s.Dir, err)
	}
	return nil
}
