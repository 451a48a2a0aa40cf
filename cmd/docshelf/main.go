package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/docshelf/internal/config"
	"github.com/dgallion1/docshelf/internal/library"
	"github.com/dgallion1/docshelf/internal/pipeline"
)

var CLI struct {
	Config   string `short:"c" help:"YAML file with corpus layout and shortcode labels"`
	Verbose  bool   `short:"v" help:"Enable verbose logging"`
	Corpus   string `help:"Corpus file (.md, .txt, .html, .csv, .pdf, .docx)" env:"CORPUS_PATH"`
	DocsRoot string `help:"Directory holding the full body of every record" env:"DOCS_ROOT"`
	DocsURL  string `help:"Base URL serving the full body of every record" env:"DOCS_URL"`

	Extract struct {
		Out string `short:"o" help:"Write the catalog JSON to this file instead of stdout"`
	} `cmd:"" help:"Extract the catalog from the corpus and print it as JSON"`

	Categories struct{} `cmd:"" help:"List categories with their record counts"`

	Render struct {
		Identifier string `arg:"" help:"Record identifier, e.g. ci/merge_trains.md"`
		Markup     bool   `help:"Print the converted markup instead of HTML"`
	} `cmd:"" help:"Render one record's full document"`

	Export struct {
		Out string `short:"o" help:"Output directory for the generated site" default:"./site"`
	} `cmd:"" help:"Render every record into a static site"`

	Check struct{} `cmd:"" help:"Render every record without writing, reporting the ones that fail"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("docshelf"),
		kong.Description("Catalog and render a documentation summaries corpus."),
	)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Execute command
	switch kctx.Command() {
	case "extract":
		err = runExtract(ctx, cfg, logger, CLI.Extract.Out)
	case "categories":
		err = runCategories(ctx, cfg, logger, os.Stdout)
	case "render <identifier>":
		err = runRender(ctx, cfg, logger, CLI.Render.Identifier, CLI.Render.Markup, os.Stdout)
	case "export":
		err = runExport(ctx, cfg, logger, CLI.Export.Out)
	case "check":
		err = runCheck(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}
	if err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment, then applies the global flags.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("dotenv not loaded", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if CLI.Config != "" {
		if err := cfg.ApplyFile(CLI.Config); err != nil {
			return cfg, err
		}
	}
	if CLI.Corpus != "" {
		cfg.CorpusPath = CLI.Corpus
	}
	if CLI.DocsRoot != "" {
		cfg.DocsRoot, cfg.DocsURL = CLI.DocsRoot, ""
	}
	if CLI.DocsURL != "" && CLI.DocsRoot == "" {
		cfg.DocsURL, cfg.DocsRoot = CLI.DocsURL, ""
	}
	if cfg.CorpusPath == "" {
		return cfg, fmt.Errorf("corpus path is required (--corpus or CORPUS_PATH)")
	}
	return cfg, nil
}

// openLibrary loads the catalog. Commands that never fetch bodies pass
// needBodies=false and run without a docs source.
func openLibrary(ctx context.Context, cfg config.Config, log *slog.Logger, needBodies bool) (*library.Library, func(), error) {
	var (
		lib     *library.Library
		closeFn = func() {}
		err     error
	)
	if needBodies || cfg.DocsRoot != "" || cfg.DocsURL != "" {
		lib, closeFn, err = library.NewFromConfig(cfg, log)
		if err != nil {
			return nil, nil, err
		}
	} else {
		lib = library.New(library.OptionsFromConfig(cfg), nil, log)
	}
	if _, err := lib.Load(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return lib, closeFn, nil
}

func runExtract(ctx context.Context, cfg config.Config, log *slog.Logger, out string) error {
	lib, closeFn, err := openLibrary(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := json.MarshalIndent(map[string]any{
		"version": lib.Version(),
		"records": lib.Catalog().Records(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	data = append(data, '\n')

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	slog.Info("Catalog written", "path", out, "records", lib.Catalog().Len())
	return nil
}

func runCategories(ctx context.Context, cfg config.Config, log *slog.Logger, w io.Writer) error {
	lib, closeFn, err := openLibrary(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer closeFn()

	cat := lib.Catalog()
	for _, c := range cat.Categories() {
		fmt.Fprintf(w, "%-32s %5d  %s\n", c.Name, c.Count, c.Label)
	}
	fmt.Fprintf(w, "%-32s %5d\n", "all", cat.Len())
	return nil
}

func runRender(ctx context.Context, cfg config.Config, log *slog.Logger, identifier string, markup bool, w io.Writer) error {
	lib, closeFn, err := openLibrary(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer closeFn()

	doc, err := lib.Document(ctx, identifier)
	if err != nil {
		return err
	}
	if markup {
		_, err = io.WriteString(w, doc.Markup)
	} else {
		_, err = io.WriteString(w, doc.HTML)
	}
	return err
}

func runExport(ctx context.Context, cfg config.Config, log *slog.Logger, out string) error {
	lib, closeFn, err := openLibrary(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer closeFn()

	job := pipeline.NewJob(out)
	pipeline.NewWorker(lib, nil, log, cfg.MaxConcurrentRender).Process(ctx, job)

	snap := job.Snapshot()
	for _, e := range snap.Progress.Errors {
		slog.Warn("Record skipped", "error", e)
	}
	slog.Info("Export finished",
		"status", snap.Status,
		"out", snap.OutDir,
		"rendered", snap.Progress.Rendered,
		"failed", snap.Progress.Failed,
	)
	if snap.Status == pipeline.StatusFailed {
		return fmt.Errorf("export failed in phase %s", snap.Phase)
	}
	return nil
}

func runCheck(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	lib, closeFn, err := openLibrary(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer closeFn()

	ok, err := pipeline.RenderAll(ctx, lib, lib.Catalog(), cfg.MaxConcurrentRender)
	slog.Info("Check finished", "records", lib.Catalog().Len(), "rendered", ok)
	return err
}
