// Package source reads the corpus and per-record document bodies.
//
// Corpus files are decoded into the plain text layout the catalog extractor
// expects, whatever format they were exported in. Bodies come from a
// BodySource: a local directory tree or an HTTP docs mirror.
package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docshelf/internal/catalog"
)

// Decoder converts a corpus file into corpus text.
type Decoder interface {
	Decode(r io.Reader, filename string) (string, error)
}

// ReadOptions configures corpus decoding.
type ReadOptions struct {
	// Layout is used by decoders that synthesize entries (CSV).
	Layout catalog.Options
	// FallbackPdftotext shells out to pdftotext when the Go PDF reader fails.
	FallbackPdftotext bool
}

// SupportedExtensions lists corpus file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate decoder for a filename.
func ForFile(filename string, opts ReadOptions) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt", ".md", ".markdown":
		return &TextDecoder{}, nil
	case ".csv":
		return &CSVDecoder{Layout: opts.Layout}, nil
	case ".html", ".htm":
		return &HTMLDecoder{}, nil
	case ".pdf":
		return &PDFDecoder{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXDecoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ReadFile decodes the corpus at path with the decoder for its extension.
func ReadFile(path string, opts ReadOptions) (string, error) {
	dec, err := ForFile(path, opts)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	text, err := dec.Decode(f, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("decode corpus %s: %w", filepath.Base(path), err)
	}
	return text, nil
}
