// Package config provides configuration types and defaults for hlspan.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zjrosen/hlspan/internal/log"
	"github.com/zjrosen/hlspan/internal/templates"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds all configuration options for hlspan.
type Config struct {
	TabWidth    int         `mapstructure:"tab_width" yaml:"tab_width"`
	Separator   string      `mapstructure:"separator" yaml:"separator"` // "lf", "crlf" or an escaped literal
	Bytes       bool        `mapstructure:"bytes" yaml:"bytes"`         // spans are byte offsets, not character indices
	ShowSpan    bool        `mapstructure:"show_span" yaml:"show_span"`
	ShowLine    bool        `mapstructure:"show_line" yaml:"show_line"`
	MaxWidth    int         `mapstructure:"max_width" yaml:"max_width"` // 0 disables truncation
	Color       string      `mapstructure:"color" yaml:"color"`         // "auto" (default), "always" or "never"
	SkipInvalid bool        `mapstructure:"skip_invalid" yaml:"skip_invalid"`
	Theme       ThemeConfig `mapstructure:"theme" yaml:"theme"`
}

// ThemeConfig holds highlight colors and the table border.
type ThemeConfig struct {
	Foreground string `mapstructure:"foreground" yaml:"foreground"` // ANSI number or hex color
	Background string `mapstructure:"background" yaml:"background"`
	Border     string `mapstructure:"border" yaml:"border"` // sharp, rounded, thick, double, ascii, markdown, hidden
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		TabWidth:  4,
		Separator: "lf",
		Color:     ColorAuto,
		Theme: ThemeConfig{
			Foreground: "7",
			Background: "#174525",
			Border:     "sharp",
		},
	}
}

// ParseSeparator turns a configured separator into the literal string.
// Lowercase "lf" and "crlf" are aliases; "LF" or "Crlf" are literal text.
// Values containing a backslash are unescaped like the body of a Go string
// literal, so `\r\n` means CR LF; anything else is used verbatim.
func ParseSeparator(s string) (string, error) {
	switch s {
	case "", "lf":
		return "\n", nil
	case "crlf":
		return "\r\n", nil
	}
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	sep, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return "", fmt.Errorf("separator %q: %w", s, err)
	}
	if sep == "" {
		return "", fmt.Errorf("separator %q is empty", s)
	}
	return sep, nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.TabWidth < 0 {
		return fmt.Errorf("tab_width must be >= 0, got %d", c.TabWidth)
	}
	if c.MaxWidth < 0 {
		return fmt.Errorf("max_width must be >= 0, got %d", c.MaxWidth)
	}
	if _, err := ParseSeparator(c.Separator); err != nil {
		return fmt.Errorf("invalid separator: %w", err)
	}
	switch c.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be %q, %q, or %q, got %q", ColorAuto, ColorAlways, ColorNever, c.Color)
	}
	switch strings.ToLower(c.Theme.Border) {
	case "", "sharp", "normal", "rounded", "thick", "double", "ascii", "markdown", "hidden":
	default:
		return fmt.Errorf("theme.border %q is not a known border", c.Theme.Border)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return templates.ConfigYAML()
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// An existing file is left untouched and reported as an error.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
