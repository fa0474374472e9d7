// Package config handles loading and saving gv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/gv/config.yaml
//   - State:   ~/.local/state/gv/ (debug log of the terminal UI)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/gapview/pkg/dashboard"
	"github.com/vanderheijden86/gapview/pkg/export"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/view"
)

// Export formats.
const (
	FormatSVG = export.FormatSVG
	FormatPNG = export.FormatPNG
)

// DataConfig locates the five source tables.
type DataConfig struct {
	Dir string `yaml:"dir,omitempty"`
	// Sources overrides individual tables: metric name -> path or URL.
	// Relative paths are resolved against Dir.
	Sources map[string]string `yaml:"sources,omitempty"`
}

// DefaultsConfig is the parameter state the dashboard starts with.
type DefaultsConfig struct {
	Year      string `yaml:"year,omitempty"`
	X         string `yaml:"x,omitempty"`
	Y         string `yaml:"y,omitempty"`
	Radius    string `yaml:"radius,omitempty"`
	Bar       string `yaml:"bar,omitempty"`
	Line      string `yaml:"line,omitempty"`
	Select    string `yaml:"select,omitempty"`    // Country selected at startup
	Highlight string `yaml:"highlight,omitempty"` // Region highlighted at startup
}

// StyleConfig holds canvas geometry and colors.
type StyleConfig struct {
	Geometry        view.Geometry `yaml:"geometry"`
	Palette         []string      `yaml:"palette,omitempty"`
	RadiusMin       float64       `yaml:"radius_min,omitempty"`
	RadiusMax       float64       `yaml:"radius_max,omitempty"`
	TrailingColumns int           `yaml:"trailing_columns"`
}

// ExportConfig controls snapshot export.
type ExportConfig struct {
	Dir    string `yaml:"dir,omitempty"`
	Format string `yaml:"format,omitempty"` // svg or png
}

// WatchConfig controls live reload of the data directory.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled,omitempty"`
	DebounceMs int  `yaml:"debounce_ms,omitempty"`
}

// Config is the top-level configuration for gv.
type Config struct {
	Data     DataConfig     `yaml:"data,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Style    StyleConfig    `yaml:"style,omitempty"`
	Export   ExportConfig   `yaml:"export,omitempty"`
	Watch    WatchConfig    `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	p := model.DefaultParams()
	return Config{
		Data: DataConfig{Dir: "data"},
		Defaults: DefaultsConfig{
			Year:   p.Year,
			X:      string(p.X),
			Y:      string(p.Y),
			Radius: string(p.Radius),
			Bar:    string(p.Bar),
			Line:   string(p.Line),
		},
		Style: StyleConfig{
			Geometry:        view.DefaultGeometry(),
			Palette:         append([]string(nil), dashboard.DefaultPalette...),
			RadiusMin:       dashboard.DefaultRadiusRange[0],
			RadiusMax:       dashboard.DefaultRadiusRange[1],
			TrailingColumns: view.DefaultTrailingColumns,
		},
		Export: ExportConfig{Dir: "snapshots", Format: FormatSVG},
		Watch:  WatchConfig{DebounceMs: 200},
	}
}

// ConfigDir returns the XDG config directory for gv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gv")
}

// StateDir returns the XDG state directory for gv.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "gv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "gv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LoadFrom reads config from a specific path. Fields absent from the file
// keep their defaults. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	for k, v := range cfg.Data.Sources {
		cfg.Data.Sources[k] = expandHome(v)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks values the dashboard cannot recover from.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Params(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SourceOverrides(); err != nil {
		errs = append(errs, err)
	}
	g := c.Style.Geometry
	if g.Width <= 0 || g.BarWidth <= 0 || g.Height <= 0 || g.Margin < 0 {
		errs = append(errs, fmt.Errorf("geometry must be positive: %+v", g))
	}
	if len(c.Style.Palette) == 0 {
		errs = append(errs, errors.New("palette is empty"))
	}
	if c.Style.RadiusMin < 0 || c.Style.RadiusMax < c.Style.RadiusMin {
		errs = append(errs, fmt.Errorf("radius range [%v, %v] is invalid", c.Style.RadiusMin, c.Style.RadiusMax))
	}
	switch strings.ToLower(c.Export.Format) {
	case "", FormatSVG, FormatPNG:
	default:
		errs = append(errs, fmt.Errorf("export format %q: want svg or png", c.Export.Format))
	}
	return errors.Join(errs...)
}

// Params converts the startup defaults into a parameter state.
func (c Config) Params() (model.Params, error) {
	p := model.DefaultParams()
	if c.Defaults.Year != "" {
		p.Year = c.Defaults.Year
	}
	fields := []struct {
		name string
		dst  *model.Metric
	}{
		{c.Defaults.X, &p.X},
		{c.Defaults.Y, &p.Y},
		{c.Defaults.Radius, &p.Radius},
		{c.Defaults.Bar, &p.Bar},
		{c.Defaults.Line, &p.Line},
	}
	for _, f := range fields {
		if f.name == "" {
			continue
		}
		m, err := model.ParseMetric(f.name)
		if err != nil {
			return p, fmt.Errorf("defaults: %w", err)
		}
		*f.dst = m
	}
	if c.Defaults.Select != "" {
		p.SelectedCountry = model.Select(c.Defaults.Select)
	}
	if c.Defaults.Highlight != "" {
		p.HighlightedRegion = model.Select(c.Defaults.Highlight)
	}
	return p, nil
}

// SourceOverrides returns the per-metric source overrides.
func (c Config) SourceOverrides() (map[model.Metric]string, error) {
	out := make(map[model.Metric]string, len(c.Data.Sources))
	for name, loc := range c.Data.Sources {
		m, err := model.ParseMetric(name)
		if err != nil {
			return nil, fmt.Errorf("data.sources: %w", err)
		}
		out[m] = loc
	}
	return out, nil
}

// DashboardOptions returns the controller options described by the style
// section.
func (c Config) DashboardOptions() dashboard.Options {
	opts := dashboard.DefaultOptions()
	opts.Geometry = c.Style.Geometry
	if len(c.Style.Palette) > 0 {
		opts.Palette = append([]string(nil), c.Style.Palette...)
	}
	opts.RadiusRange = [2]float64{c.Style.RadiusMin, c.Style.RadiusMax}
	opts.TrailingColumns = c.Style.TrailingColumns
	return opts
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
