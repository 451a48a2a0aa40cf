package source

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// FrontMatter is the metadata block at the top of a docs page.
type FrontMatter struct {
	Title string         `json:"title,omitempty"`
	Stage string         `json:"stage,omitempty"`
	Group string         `json:"group,omitempty"`
	Info  string         `json:"info,omitempty"`
	Raw   map[string]any `json:"raw,omitempty"`
}

type frontMatterEnvelope struct {
	Title  string         `yaml:"title"`
	Stage  string         `yaml:"stage"`
	Group  string         `yaml:"group"`
	Info   string         `yaml:"info"`
	Custom map[string]any `yaml:",inline"`
}

// SplitFrontMatter separates a YAML (or TOML) frontmatter block from the
// markdown body. Input without frontmatter is returned as the body with an
// empty FrontMatter.
func SplitFrontMatter(src []byte) (FrontMatter, []byte, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	raw := make(map[string]any, len(meta.Custom)+4)
	for k, v := range meta.Custom {
		raw[k] = v
	}
	for k, v := range map[string]string{"title": meta.Title, "stage": meta.Stage, "group": meta.Group, "info": meta.Info} {
		if v != "" {
			raw[k] = v
		}
	}
	if len(raw) == 0 {
		raw = nil
	}

	return FrontMatter{
		Title: meta.Title,
		Stage: meta.Stage,
		Group: meta.Group,
		Info:  meta.Info,
		Raw:   raw,
	}, body, nil
}
