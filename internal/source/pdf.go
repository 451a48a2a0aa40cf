package source

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFDecoder reads a corpus printed to PDF. Pages are joined with newlines.
// When the pure Go reader fails and FallbackPdftotext is set, the poppler
// pdftotext binary is tried on the same file.
type PDFDecoder struct {
	FallbackPdftotext bool
}

func (d *PDFDecoder) Decode(r io.Reader, filename string) (string, error) {
	f, err := spool(r, "docshelf-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages, err := pdfPages(f)
	if err != nil && d.FallbackPdftotext {
		pages, err = pdftotextPages(f.Name())
	}
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", filename, err)
	}

	var b strings.Builder
	for _, p := range pages {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func pdfPages(f *spooled) ([]string, error) {
	rd, err := pdflib.NewReader(f, f.size)
	if err != nil {
		return nil, err
	}
	var pages []string
	for n := range rd.NumPage() {
		p := rd.Page(n + 1)
		if p.V.IsNull() {
			continue
		}
		// Pages with broken content streams are skipped rather than failing
		// the whole corpus.
		if text, err := p.GetPlainText(nil); err == nil {
			pages = append(pages, text)
		}
	}
	return pages, nil
}

// pdftotextPages shells out to pdftotext, which separates pages with form
// feeds.
func pdftotextPages(path string) ([]string, error) {
	out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}
