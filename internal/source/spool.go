package source

import (
	"fmt"
	"io"
	"os"
)

// spooled is a corpus copied to a temp file for decoders that need random
// access and a known size.
type spooled struct {
	*os.File
	size int64
}

func spool(r io.Reader, pattern string) (*spooled, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("spool corpus: %w", err)
	}
	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("spool corpus: %w", err)
	}
	return &spooled{File: f, size: size}, nil
}

// Close closes and removes the temp file.
func (s *spooled) Close() error {
	err := s.File.Close()
	os.Remove(s.Name())
	return err
}
