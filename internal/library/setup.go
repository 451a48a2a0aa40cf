package library

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docshelf/internal/config"
	"github.com/dgallion1/docshelf/internal/source"
)

// OptionsFromConfig maps the service configuration onto library options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		CorpusPath:        cfg.CorpusPath,
		Layout:            cfg.Corpus,
		Shortcodes:        cfg.Shortcodes,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	}
}

// BodySourceFromConfig returns the directory source when DocsRoot is set and
// the HTTP source otherwise. The returned func releases its resources.
func BodySourceFromConfig(cfg config.Config) (source.BodySource, func(), error) {
	switch {
	case cfg.DocsRoot != "":
		return source.NewDirSource(cfg.DocsRoot, cfg.MaxBodyBytes), func() {}, nil
	case cfg.DocsURL != "":
		src := source.NewHTTPSource(cfg.DocsURL, cfg.DocsToken, cfg.FetchTimeout, cfg.MaxBodyBytes)
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("no body source configured: set DOCS_ROOT or DOCS_URL")
	}
}

// NewFromConfig builds a Library with the configured body source. Call the
// returned func on shutdown.
func NewFromConfig(cfg config.Config, log *slog.Logger, opts ...Option) (*Library, func(), error) {
	bodies, closeFn, err := BodySourceFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return New(OptionsFromConfig(cfg), bodies, log, opts...), closeFn, nil
}
