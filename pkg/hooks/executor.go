package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/gapview/pkg/debug"
)

// summaryStderrLimit caps the stderr excerpt per failed hook in Summary.
const summaryStderrLimit = 200

// Result records one hook execution.
type Result struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Error    error
	Duration time.Duration
}

// Executor runs configured hooks for one export.
type Executor struct {
	config  *Config
	context ExportContext
	results []Result
}

// NewExecutor creates an executor for the given hooks and export.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, context: ctx}
}

// RunPreExport runs pre-export hooks in order and stops at the first
// failure whose policy is fail.
func (e *Executor) RunPreExport() error {
	for _, hook := range e.config.Phase(PreExport) {
		r := e.run(hook, PreExport)
		if !r.Success && hook.OnError == OnErrorFail {
			return fmt.Errorf("pre-export hook %q failed: %w", hook.Name, r.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook and reports the failures whose
// policy is fail.
func (e *Executor) RunPostExport() error {
	var errs []error
	for _, hook := range e.config.Phase(PostExport) {
		r := e.run(hook, PostExport)
		if !r.Success && hook.OnError == OnErrorFail {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", hook.Name, r.Error))
		}
	}
	return errors.Join(errs...)
}

// Results returns the executions so far.
func (e *Executor) Results() []Result {
	return e.results
}

func (e *Executor) run(hook Hook, phase HookPhase) Result {
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", hook.Command)
	cmd.Env = append(os.Environ(), e.context.ToEnv()...)
	for k, v := range hook.Env {
		cmd.Env = append(cmd.Env, k+"="+os.ExpandEnv(v))
	}
	// Let a killed shell's children release the pipes promptly.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r := Result{
		Hook:     hook,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %v: %w", timeout, err)
		}
		r.Error = err
	}
	debug.Log("hooks: %s %s success=%v in %v", phase, hook.Name, r.Success, r.Duration)
	e.results = append(e.results, r)
	return r
}

// Summary reports how many hooks succeeded and failed, with a stderr
// excerpt per failure.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	var ok, failed int
	var b strings.Builder
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&b, "\n  %s %s: %v", r.Phase, r.Hook.Name, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "\n    stderr: %s", truncate(r.Stderr, summaryStderrLimit))
		}
	}
	return fmt.Sprintf("Hooks: %d succeeded, %d failed", ok, failed) + b.String()
}

// RunHooks loads the hooks under projectDir and returns an executor, or nil
// when hooks are disabled or none are configured.
func RunHooks(projectDir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	cfg, warnings, err := Load(projectDir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		debug.Log("hooks: %s", w)
	}
	if cfg.Empty() {
		return nil, nil
	}
	return NewExecutor(cfg, ctx), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
