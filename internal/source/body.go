package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when no body exists for an identifier.
var ErrNotFound = errors.New("body not found")

// ErrTooLarge is returned when a body exceeds the configured size limit.
var ErrTooLarge = errors.New("body exceeds size limit")

// BodySource fetches the full markdown of one record by its identifier
// (a relative path such as "ci/merge_trains.md").
type BodySource interface {
	Body(ctx context.Context, identifier string) ([]byte, error)
}

// cleanIdentifier turns an identifier into a slash-separated relative path,
// rejecting anything that would leave the docs root.
func cleanIdentifier(identifier string) (string, error) {
	id := strings.TrimPrefix(strings.TrimSpace(strings.ReplaceAll(identifier, "\\", "/")), "/")
	for _, seg := range strings.Split(id, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid identifier %q", identifier)
		}
	}
	clean := path.Clean(id)
	if id == "" || clean == "." {
		return "", fmt.Errorf("empty identifier")
	}
	return clean, nil
}

// DirSource reads bodies from a local checkout of the docs tree.
type DirSource struct {
	root     string
	maxBytes int64
}

// NewDirSource serves bodies from files under root. maxBytes <= 0 disables
// the size limit.
func NewDirSource(root string, maxBytes int64) *DirSource {
	return &DirSource{root: root, maxBytes: maxBytes}
}

// Body opens identifier inside the root directory. Paths that escape the root
// through ".." or symlinks fail to open.
func (s *DirSource) Body(ctx context.Context, identifier string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenInRoot(s.root, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, identifier)
		}
		return nil, fmt.Errorf("open body %s: %w", identifier, err)
	}
	defer f.Close()

	return readLimited(f, s.maxBytes, identifier)
}

func readLimited(r io.Reader, maxBytes int64, identifier string) ([]byte, error) {
	if maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read body %s: %w", identifier, err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", identifier, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s (%d bytes max)", ErrTooLarge, identifier, maxBytes)
	}
	return data, nil
}
