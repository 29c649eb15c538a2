package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format represents the file format of a defaults file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// File holds defaults loaded from a configuration file. Explicit
// command-line flags take precedence over every field here.
type File struct {
	Pool         string `yaml:"pool,omitempty" toml:"pool,omitempty" json:"pool,omitempty"`
	Date         string `yaml:"date,omitempty" toml:"date,omitempty" json:"date,omitempty"`
	ExcludeFile  string `yaml:"exclude_file,omitempty" toml:"exclude_file,omitempty" json:"exclude_file,omitempty"`
	Label        string `yaml:"label,omitempty" toml:"label,omitempty" json:"label,omitempty"`
	BatchSize    int    `yaml:"batch_size,omitempty" toml:"batch_size,omitempty" json:"batch_size,omitempty"`
	NoConfirm    bool   `yaml:"no_confirm,omitempty" toml:"no_confirm,omitempty" json:"no_confirm,omitempty"`
	ShowQueued   bool   `yaml:"show_queued,omitempty" toml:"show_queued,omitempty" json:"show_queued,omitempty"`
	ShowExcluded bool   `yaml:"show_excluded,omitempty" toml:"show_excluded,omitempty" json:"show_excluded,omitempty"`
}

// LoadFile reads and parses a defaults file in YAML, TOML, or JSON.
func LoadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	format := detectFormat(path, content)

	var f File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(content, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(content, &f); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to detect config file format: %s", path)
	}

	return &f, nil
}

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}
	return sniffFormat(content)
}

// sniffFormat attempts to detect the format from content for
// extensionless files.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return FormatJSON
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, " = ") {
			return FormatTOML
		}
		if strings.Contains(line, ":") {
			return FormatYAML
		}
	}

	return FormatUnknown
}
