// Package hooks runs user commands around gv exports.
// Hooks are configured in .gv/hooks.yaml under the working directory and
// run before a snapshot or SQLite export is written (pre-export) and after
// it succeeds (post-export).
package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HookPhase names the point of an export at which a hook runs.
type HookPhase string

const (
	// PreExport runs before the export is written. Failure cancels it.
	PreExport HookPhase = "pre-export"
	// PostExport runs after the export is written. Failure is reported but the files stay.
	PostExport HookPhase = "post-export"
)

// On-error policies.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// DefaultTimeout applies to hooks without a timeout.
const DefaultTimeout = 30 * time.Second

// ConfigFile is the hooks file path relative to the project directory.
var ConfigFile = filepath.Join(".gv", "hooks.yaml")

// defaultPolicy is the on_error policy of hooks that leave it unset.
var defaultPolicy = map[HookPhase]string{
	PreExport:  OnErrorFail,
	PostExport: OnErrorContinue,
}

// Hook is one command from the hooks file.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"` // Run with sh -c
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"` // Values are expanded against the environment
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// Config is the parsed hooks file.
type Config struct {
	Hooks HooksByPhase `yaml:"hooks" json:"hooks"`
}

// HooksByPhase lists the hooks of each phase in run order.
type HooksByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty" json:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty" json:"post-export,omitempty"`
}

// Phase returns the hooks of one phase, or nil for an unknown phase.
func (c *Config) Phase(p HookPhase) []Hook {
	if c == nil {
		return nil
	}
	switch p {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return len(c.Phase(PreExport)) == 0 && len(c.Phase(PostExport)) == 0
}

// ExportContext describes the export to the hook commands.
type ExportContext struct {
	ExportPath   string    // GV_EXPORT_PATH: output file or directory
	ExportFormat string    // GV_EXPORT_FORMAT: svg, png or sqlite
	RecordCount  int       // GV_RECORD_COUNT: countries in the dataset
	Year         string    // GV_YEAR: dashboard year at export time
	Timestamp    time.Time // GV_TIMESTAMP: RFC3339
}

// ToEnv renders the context as KEY=value pairs for the hook environment.
func (c ExportContext) ToEnv() []string {
	return []string{
		"GV_EXPORT_PATH=" + c.ExportPath,
		"GV_EXPORT_FORMAT=" + c.ExportFormat,
		"GV_RECORD_COUNT=" + strconv.Itoa(c.RecordCount),
		"GV_YEAR=" + c.Year,
		"GV_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Load reads ConfigFile under projectDir, or under the working directory
// when projectDir is empty. A missing file yields an empty config. The
// returned warnings name hooks that were skipped or adjusted.
func Load(projectDir string) (*Config, []string, error) {
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, err
		}
		projectDir = wd
	}
	path := filepath.Join(projectDir, ConfigFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	var warnings []string
	cfg.Hooks.PreExport = cleanPhase(PreExport, cfg.Hooks.PreExport, &warnings)
	cfg.Hooks.PostExport = cleanPhase(PostExport, cfg.Hooks.PostExport, &warnings)
	return &cfg, warnings, nil
}

// cleanPhase drops hooks without a command and fills in names, timeouts
// and on_error policies. Hooks are numbered from 1 in file order.
func cleanPhase(phase HookPhase, hooks []Hook, warnings *[]string) []Hook {
	var kept []Hook
	for i, h := range hooks {
		n := i + 1
		if strings.TrimSpace(h.Command) == "" {
			*warnings = append(*warnings, fmt.Sprintf("%s hook %d has no command; skipped", phase, n))
			continue
		}
		switch h.OnError {
		case OnErrorFail, OnErrorContinue:
		case "":
			h.OnError = defaultPolicy[phase]
		default:
			*warnings = append(*warnings, fmt.Sprintf("%s hook %d: on_error %q is neither %s nor %s; using %s",
				phase, n, h.OnError, OnErrorFail, OnErrorContinue, OnErrorFail))
			h.OnError = OnErrorFail
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, n)
		}
		kept = append(kept, h)
	}
	return kept
}

// UnmarshalYAML reads timeout as a duration ("90s") or a number of seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout"`
		Env     map[string]string `yaml:"env"`
		OnError string            `yaml:"on_error"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	timeout, err := parseTimeout(raw.Timeout)
	if err != nil {
		return err
	}
	*h = Hook{
		Name:    raw.Name,
		Command: raw.Command,
		Timeout: timeout,
		Env:     raw.Env,
		OnError: raw.OnError,
	}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: want a duration such as 90s or a number of seconds", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
