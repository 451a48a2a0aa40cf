package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docshelf/internal/catalog"
	"github.com/dgallion1/docshelf/internal/shortcode"
)

type Config struct {
	Port string

	// Corpus and bodies
	CorpusPath string
	DocsRoot   string
	DocsURL    string
	DocsToken  string

	// Auth
	DocshelfAPIKey string

	// Worker pool
	WorkerCount         int
	MaxQueueSize        int
	MaxConcurrentRender int

	// Body fetch limits
	MaxBodyBytes int64
	FetchTimeout time.Duration

	// Job state
	JobTTL time.Duration

	WatchCorpus bool
	ExportDir   string

	// PDF
	PDFFallbackPdftotext bool

	// Layout knobs, from the YAML file named by DOCSHELF_CONFIG.
	Corpus     catalog.Options
	Shortcodes shortcode.Options
}

// FileConfig is the YAML document read from DOCSHELF_CONFIG. Empty fields
// keep their defaults.
type FileConfig struct {
	Corpus     catalog.Options   `yaml:"corpus"`
	Shortcodes shortcode.Options `yaml:"shortcodes"`
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the environment and, when DOCSHELF_CONFIG is set, the YAML file
// it names.
func Load() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		CorpusPath: os.Getenv("CORPUS_PATH"),
		DocsRoot:   os.Getenv("DOCS_ROOT"),
		DocsURL:    os.Getenv("DOCS_URL"),
		DocsToken:  os.Getenv("DOCS_TOKEN"),

		DocshelfAPIKey: os.Getenv("DOCSHELF_API_KEY"),

		WorkerCount:         envInt("WORKER_COUNT", 2),
		MaxQueueSize:        envInt("MAX_QUEUE_SIZE", 16),
		MaxConcurrentRender: envInt("MAX_CONCURRENT_RENDER", 8),

		MaxBodyBytes: envInt64("MAX_BODY_BYTES", 5242880), // 5MB
		FetchTimeout: envDuration("FETCH_TIMEOUT", 30*time.Second),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		WatchCorpus: envBool("WATCH_CORPUS", true),
		ExportDir:   envOr("EXPORT_DIR", "./site"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		Corpus:     catalog.DefaultOptions(),
		Shortcodes: shortcode.DefaultOptions(),
	}

	if path := os.Getenv("DOCSHELF_CONFIG"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return cfg, err
		}
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxConcurrentRender <= 0 {
		cfg.MaxConcurrentRender = 8
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5242880
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg, nil
}

// ApplyFile overlays the corpus layout and shortcode labels from a YAML file.
// Environment references in the file are expanded before parsing.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fmt.Errorf("unmarshal config %s: %w", path, err)
	}

	c.Corpus = mergeLayout(c.Corpus, fc.Corpus)
	c.Shortcodes = mergeShortcodes(c.Shortcodes, fc.Shortcodes)
	return nil
}

func mergeLayout(base, over catalog.Options) catalog.Options {
	pick(&base.Delimiter, over.Delimiter)
	pick(&base.HeadingMarker, over.HeadingMarker)
	pick(&base.Suffix, over.Suffix)
	pick(&base.Summary, over.Summary)
	pick(&base.Features, over.Features)
	pick(&base.Nuances, over.Nuances)
	return base
}

func mergeShortcodes(base, over shortcode.Options) shortcode.Options {
	pick(&base.DetailsLabel, over.DetailsLabel)
	pick(&base.HistoryLabel, over.HistoryLabel)
	pick(&base.TabIDPrefix, over.TabIDPrefix)
	pick(&base.ClassPrefix, over.ClassPrefix)
	return base
}

func pick(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if c.CorpusPath == "" {
		return fmt.Errorf("CORPUS_PATH is required")
	}
	if c.DocsRoot == "" && c.DocsURL == "" {
		return fmt.Errorf("one of DOCS_ROOT or DOCS_URL is required")
	}
	if c.DocsRoot != "" && c.DocsURL != "" {
		return fmt.Errorf("DOCS_ROOT and DOCS_URL are mutually exclusive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
