package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/gapview/pkg/config"
	"github.com/vanderheijden86/gapview/pkg/dashboard"
	"github.com/vanderheijden86/gapview/pkg/debug"
	"github.com/vanderheijden86/gapview/pkg/export"
	"github.com/vanderheijden86/gapview/pkg/hooks"
	"github.com/vanderheijden86/gapview/pkg/loader"
	"github.com/vanderheijden86/gapview/pkg/metrics"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/ui"
	"github.com/vanderheijden86/gapview/pkg/version"
	"github.com/vanderheijden86/gapview/pkg/watcher"
	"github.com/vanderheijden86/gapview/pkg/wizard"
)

// cliOptions holds the parsed command line. Empty strings mean "not given".
type cliOptions struct {
	dataDir      string
	configPath   string
	year         string
	x            string
	y            string
	radius       string
	bar          string
	line         string
	selectName   string
	highlight    string
	exportDir    string
	format       string
	exportSQLite string
	cpuProfile   string

	robotState bool
	noHooks    bool
	watch      bool
	configure  bool
	version    bool
	help       bool
}

func newFlagSet(o *cliOptions, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("gv", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.dataDir, "data-dir", "", "Directory holding the five source CSVs (default from config, or ./data)")
	fs.StringVar(&o.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/gv/config.yaml)")
	fs.StringVar(&o.year, "year", "", "Start year")
	fs.StringVar(&o.x, "x", "", "Scatter x metric")
	fs.StringVar(&o.y, "y", "", "Scatter y metric")
	fs.StringVar(&o.radius, "radius", "", "Scatter radius metric")
	fs.StringVar(&o.bar, "bar", "", "Bar metric")
	fs.StringVar(&o.line, "line", "", "Line metric")
	fs.StringVar(&o.selectName, "select", "", "Country selected at startup")
	fs.StringVar(&o.highlight, "highlight", "", "Region highlighted at startup")
	fs.StringVar(&o.exportDir, "export-dir", "", "Write snapshots of every view to this directory and exit")
	fs.StringVar(&o.format, "format", "", "Snapshot format: svg or png")
	fs.StringVar(&o.exportSQLite, "export-sqlite", "", "Export the joined dataset to a SQLite file and exit")
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&o.robotState, "robot-state", false, "Print the dashboard state as JSON and exit")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip export hooks from .gv/hooks.yaml")
	fs.BoolVar(&o.watch, "watch", false, "Reload when the data files change")
	fs.BoolVar(&o.configure, "configure", false, "Run the configuration wizard")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.BoolVar(&o.help, "help", false, "Show help")
	return fs
}

func parseFlags(args []string, out io.Writer) (cliOptions, error) {
	var o cliOptions
	fs := newFlagSet(&o, out)
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "Usage: gv [options]")
	fmt.Fprintln(out, "\nLinked bar, scatter and line views of country development indicators.")
	var o cliOptions
	newFlagSet(&o, out).PrintDefaults()
}

// applyFlags overlays the command line onto the config. Flags win.
func applyFlags(cfg config.Config, o cliOptions) config.Config {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Data.Dir, o.dataDir)
	set(&cfg.Defaults.Year, o.year)
	set(&cfg.Defaults.X, o.x)
	set(&cfg.Defaults.Y, o.y)
	set(&cfg.Defaults.Radius, o.radius)
	set(&cfg.Defaults.Bar, o.bar)
	set(&cfg.Defaults.Line, o.line)
	set(&cfg.Defaults.Select, o.selectName)
	set(&cfg.Defaults.Highlight, o.highlight)
	set(&cfg.Export.Dir, o.exportDir)
	set(&cfg.Export.Format, o.format)
	if o.watch {
		cfg.Watch.Enabled = true
	}
	return cfg
}

func loadConfig(path string) (config.Config, string, error) {
	if path == "" {
		path = config.ConfigPath()
	}
	if path == "" {
		return config.DefaultConfig(), "", nil
	}
	cfg, err := config.LoadFrom(path)
	return cfg, path, err
}

// resolveSources returns every table location for cfg.
func resolveSources(cfg config.Config) (loader.Sources, error) {
	dataDir, err := loader.GetDataDir(cfg.Data.Dir)
	if err != nil {
		return nil, err
	}
	overrides, err := cfg.SourceOverrides()
	if err != nil {
		return nil, err
	}
	src := loader.DefaultSources(dataDir).WithOverrides(dataDir, overrides)
	return src, src.Validate()
}

// newController builds the dashboard from a loaded dataset. A start year
// the data lacks falls back to the latest year.
func newController(ds *model.Dataset, cfg config.Config) (*dashboard.Controller, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	if !ds.HasYear(params.Year) && len(ds.Years) > 0 {
		latest := ds.Years[len(ds.Years)-1]
		debug.Log("gv: year %s not in data, starting at %s", params.Year, latest)
		params.Year = latest
	}
	return dashboard.New(ds, params, cfg.DashboardOptions())
}

type robotOutput struct {
	Version string          `json:"version"`
	State   dashboard.State `json:"state"`
	Metrics metrics.Report  `json:"metrics"`
}

func writeRobotState(w io.Writer, ctrl *dashboard.Controller) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(robotOutput{
		Version: version.Version,
		State:   ctrl.State(),
		Metrics: metrics.Snapshot(),
	})
}

func exportContext(ctrl *dashboard.Controller, path, format string) hooks.ExportContext {
	return hooks.ExportContext{
		ExportPath:   path,
		ExportFormat: format,
		RecordCount:  ctrl.Dataset().Len(),
		Year:         ctrl.Params().Year,
		Timestamp:    time.Now(),
	}
}

// withHooks runs write between the pre- and post-export hooks configured in
// the working directory. A failing pre-export hook cancels the write.
func withHooks(hctx hooks.ExportContext, noHooks bool, write func() error) error {
	executor, err := hooks.RunHooks("", hctx, noHooks)
	if err != nil {
		return err
	}
	if executor != nil {
		if err := executor.RunPreExport(); err != nil {
			fmt.Fprintln(os.Stderr, executor.Summary())
			return err
		}
	}
	if err := write(); err != nil {
		return err
	}
	if executor == nil {
		return nil
	}
	err = executor.RunPostExport()
	fmt.Fprintln(os.Stderr, executor.Summary())
	return err
}

// stopProfile flushes the CPU profile, if one is running. os.Exit skips
// deferred calls, so exit runs it first.
var stopProfile = func() {}

func startCPUProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	stopProfile = func() {
		stopProfile = func() {}
		pprof.StopCPUProfile()
		_ = f.Close()
	}
	return nil
}

func exit(code int) {
	stopProfile()
	os.Exit(code)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	exit(1)
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if opts.cpuProfile != "" {
		if err := startCPUProfile(opts.cpuProfile); err != nil {
			fail("%v", err)
		}
		defer stopProfile()
	}

	if opts.help {
		usage(os.Stdout)
		exit(0)
	}
	if opts.version {
		fmt.Printf("gv %s\n", version.Version)
		exit(0)
	}

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		fail("%v", err)
	}

	if opts.configure {
		if cfgPath == "" {
			fail("cannot determine config path; pass --config")
		}
		if _, err := wizard.New(cfg, cfgPath).Run(); err != nil {
			fail("%v", err)
		}
		exit(0)
	}

	cfg = applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		fail("%v", err)
	}
	debug.Dump("config", cfg)

	src, err := resolveSources(cfg)
	if err != nil {
		fail("%v", err)
	}
	reload := func(ctx context.Context) (*model.Dataset, error) {
		return loader.Load(ctx, src, loader.Options{})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*loader.DefaultFetchTimeout)
	start := time.Now()
	ds, err := reload(ctx)
	cancel()
	if err != nil {
		fail("%v", err)
	}
	debug.LogTiming("initial load", time.Since(start))

	ctrl, err := newController(ds, cfg)
	if err != nil {
		fail("%v", err)
	}

	switch {
	case opts.exportSQLite != "":
		hctx := exportContext(ctrl, opts.exportSQLite, "sqlite")
		err := withHooks(hctx, opts.noHooks, func() error {
			exp := export.NewSQLiteExporter(ds)
			exp.SetVersion(version.Version)
			return exp.Export(opts.exportSQLite)
		})
		if err != nil {
			fail("%v", err)
		}
		fmt.Printf("Exported %d records to %s\n", ds.Len(), opts.exportSQLite)
		return
	case opts.robotState:
		if err := writeRobotState(os.Stdout, ctrl); err != nil {
			fail("%v", err)
		}
		return
	case opts.exportDir != "":
		var paths []string
		hctx := exportContext(ctrl, cfg.Export.Dir, cfg.Export.Format)
		err := withHooks(hctx, opts.noHooks, func() error {
			var err error
			paths, err = export.SaveScenes(cfg.Export.Dir, cfg.Export.Format, ctrl.Scenes())
			return err
		})
		if err != nil {
			fail("%v", err)
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return
	}

	if debug.Enabled() {
		if closeLog := debugLogFile(); closeLog != nil {
			defer closeLog()
		}
	}

	uiOpts := ui.Options{
		ExportDir: cfg.Export.Dir,
		Format:    cfg.Export.Format,
		Reload:    reload,
	}
	if cfg.Watch.Enabled {
		w, err := startWatcher(src, cfg.Watch.DebounceMs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer w.Stop()
			uiOpts.Watcher = w
		}
	}

	if err := runTUIProgram(ui.NewModel(ctrl, uiOpts)); err != nil {
		fail("running gv: %v", err)
	}
}

// debugLogFile redirects debug output away from the alternate screen.
func debugLogFile() func() {
	dir := config.StateDir()
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	debug.SetOutput(f)
	return func() { _ = f.Close() }
}

func startWatcher(src loader.Sources, debounceMs int) (*watcher.Watcher, error) {
	files := src.Files()
	if len(files) == 0 {
		return nil, errors.New("no local data files to watch")
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		paths = append(paths, abs)
	}
	w, err := watcher.NewWatcher(paths,
		watcher.WithDebounceDuration(time.Duration(debounceMs)*time.Millisecond),
		watcher.WithOnError(func(err error) { debug.Log("watcher: %v", err) }),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set GV_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("GV_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
