package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"linkpage/internal/models"
)

// YAMLConfig represents the structure of the config.yaml file.
// Lists and per-kind settings that are awkward to express as env vars.
type YAMLConfig struct {
	Sections        []SectionConfig `yaml:"sections"`
	ReservedHandles []string        `yaml:"reserved_handles"`
	Defaults        DefaultsConfig  `yaml:"defaults"`
}

// SectionConfig describes how a section kind is offered in the editor.
type SectionConfig struct {
	Kind        string `yaml:"kind"`
	Label       string `yaml:"label"`
	Description string `yaml:"description,omitempty"`
	Disabled    bool   `yaml:"disabled,omitempty"` // Hidden from "add section"
}

// DefaultsConfig defines default settings.
type DefaultsConfig struct {
	LinkTextColor       string `yaml:"link_text_color"`
	LinkBackgroundColor string `yaml:"link_background_color"`
	DirectoryPageSize   int    `yaml:"directory_page_size"`
}

// CatalogEntry is a section kind offered to users.
type CatalogEntry struct {
	Kind        models.SectionKind `json:"kind"`
	Label       string             `json:"label"`
	Description string             `json:"description,omitempty"`
}

var defaultLabels = map[models.SectionKind]string{
	models.KindLinks:        "Links",
	models.KindPhotoSlider:  "Photo slider",
	models.KindPhotoGrid:    "Photo grid",
	models.KindTestimonials: "Testimonials",
	models.KindVideo:        "Video",
	models.KindMap:          "Map",
	models.KindInfoCard:     "Info card",
}

var defaultReservedHandles = []string{
	"admin", "api", "auth", "directory", "healthz", "login", "logout", "media", "metrics", "static",
}

// Defaults returns the configuration used when no config file exists.
func Defaults() *YAMLConfig {
	cfg := &YAMLConfig{}
	cfg.applyDefaults()
	return cfg
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// A missing file yields Defaults().
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFile(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadYAMLConfigFile loads and validates the YAML configuration at path.
func LoadYAMLConfigFile(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return Defaults(), nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, s := range cfg.Sections {
		if _, err := models.ParseSectionKind(s.Kind); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *YAMLConfig) applyDefaults() {
	if len(c.Sections) == 0 {
		for _, k := range models.SectionKinds() {
			c.Sections = append(c.Sections, SectionConfig{Kind: k.String(), Label: defaultLabels[k]})
		}
	}
	if len(c.ReservedHandles) == 0 {
		c.ReservedHandles = slices.Clone(defaultReservedHandles)
	}
	if c.Defaults.LinkTextColor == "" {
		c.Defaults.LinkTextColor = "#ffffff"
	}
	if c.Defaults.LinkBackgroundColor == "" {
		c.Defaults.LinkBackgroundColor = "#111827"
	}
	if c.Defaults.DirectoryPageSize <= 0 {
		c.Defaults.DirectoryPageSize = 50
	}
}

// Catalog returns the enabled section kinds in configured order.
func (c *YAMLConfig) Catalog() []CatalogEntry {
	if c == nil {
		return Defaults().Catalog()
	}
	var entries []CatalogEntry
	for _, s := range c.Sections {
		if s.Disabled {
			continue
		}
		kind, err := models.ParseSectionKind(s.Kind)
		if err != nil {
			continue
		}
		label := s.Label
		if label == "" {
			label = defaultLabels[kind]
		}
		entries = append(entries, CatalogEntry{Kind: kind, Label: label, Description: s.Description})
	}
	return entries
}

// IsKindEnabled reports whether users may create sections of kind.
func (c *YAMLConfig) IsKindEnabled(kind models.SectionKind) bool {
	for _, e := range c.Catalog() {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// IsReservedHandle reports whether handle is kept back from users.
func (c *YAMLConfig) IsReservedHandle(handle string) bool {
	if c == nil {
		return Defaults().IsReservedHandle(handle)
	}
	handle = strings.ToLower(handle)
	for _, r := range c.ReservedHandles {
		if strings.ToLower(r) == handle {
			return true
		}
	}
	return false
}
