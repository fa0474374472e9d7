// Package wizard implements gv --configure: an interactive form that edits
// the data location, the startup parameters and the export settings, then
// writes config.yaml.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/gapview/pkg/config"
	"github.com/vanderheijden86/gapview/pkg/model"
)

// answers holds the form fields as the strings and bools huh binds to.
type answers struct {
	DataDir   string
	Year      string
	X         string
	Y         string
	Radius    string
	Bar       string
	Line      string
	Select    string
	ExportDir string
	Format    string
	Trailing  string
	Watch     bool
}

func fromConfig(cfg config.Config) answers {
	return answers{
		DataDir:   cfg.Data.Dir,
		Year:      cfg.Defaults.Year,
		X:         cfg.Defaults.X,
		Y:         cfg.Defaults.Y,
		Radius:    cfg.Defaults.Radius,
		Bar:       cfg.Defaults.Bar,
		Line:      cfg.Defaults.Line,
		Select:    cfg.Defaults.Select,
		ExportDir: cfg.Export.Dir,
		Format:    cfg.Export.Format,
		Trailing:  strconv.Itoa(cfg.Style.TrailingColumns),
		Watch:     cfg.Watch.Enabled,
	}
}

// apply writes the answers over cfg and validates the result.
func (a answers) apply(cfg config.Config) (config.Config, error) {
	trailing, err := validateTrailing(a.Trailing)
	if err != nil {
		return cfg, err
	}
	cfg.Data.Dir = strings.TrimSpace(a.DataDir)
	cfg.Defaults.Year = strings.TrimSpace(a.Year)
	cfg.Defaults.X = a.X
	cfg.Defaults.Y = a.Y
	cfg.Defaults.Radius = a.Radius
	cfg.Defaults.Bar = a.Bar
	cfg.Defaults.Line = a.Line
	cfg.Defaults.Select = strings.TrimSpace(a.Select)
	cfg.Export.Dir = strings.TrimSpace(a.ExportDir)
	cfg.Export.Format = a.Format
	cfg.Style.TrailingColumns = trailing
	cfg.Watch.Enabled = a.Watch

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateYear(s string) error {
	if !model.IsYearLabel(strings.TrimSpace(s)) {
		return fmt.Errorf("year must be four digits")
	}
	return nil
}

func validateTrailing(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("trailing columns must be a non-negative integer")
	}
	return n, nil
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func metricOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(model.AllMetrics))
	for i, m := range model.AllMetrics {
		opts[i] = huh.NewOption(m.Label(), string(m))
	}
	return opts
}

func metricSelect(title string, value *string) *huh.Select[string] {
	return huh.NewSelect[string]().
		Title(title).
		Options(metricOptions()...).
		Value(value)
}

// Wizard edits one config file.
type Wizard struct {
	path string
	cfg  config.Config
	out  io.Writer

	// runForm is replaced in tests.
	runForm func(*huh.Form) error
}

// New creates a wizard that starts from cfg and saves to path.
func New(cfg config.Config, path string) *Wizard {
	return &Wizard{
		path:    path,
		cfg:     cfg,
		out:     os.Stdout,
		runForm: func(f *huh.Form) error { return f.Run() },
	}
}

// isTerminal checks if stdin is connected to a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm falls back to accessible (line-based) prompts without a TTY.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func (w *Wizard) form(a *answers) *huh.Form {
	return newForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Data").
				Description("Where the five CSV tables live."),
			huh.NewInput().
				Title("Data directory").
				Value(&a.DataDir).
				Validate(notEmpty("data directory")),
			huh.NewConfirm().
				Title("Reload when the CSV files change?").
				Value(&a.Watch),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Start year").
				Value(&a.Year).
				Validate(validateYear),
			metricSelect("Scatter x axis", &a.X),
			metricSelect("Scatter y axis", &a.Y),
			metricSelect("Circle radius", &a.Radius),
			metricSelect("Bar chart", &a.Bar),
			metricSelect("Line chart", &a.Line),
			huh.NewInput().
				Title("Country selected at startup (optional)").
				Value(&a.Select),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Snapshot directory").
				Value(&a.ExportDir).
				Validate(notEmpty("snapshot directory")),
			huh.NewSelect[string]().
				Title("Snapshot format").
				Options(
					huh.NewOption("SVG", config.FormatSVG),
					huh.NewOption("PNG", config.FormatPNG),
				).
				Value(&a.Format),
			huh.NewInput().
				Title("Non-year columns at the end of each row").
				Value(&a.Trailing).
				Validate(func(s string) error {
					_, err := validateTrailing(s)
					return err
				}),
		),
	)
}

// Run shows the form, validates the answers and saves the config.
func (w *Wizard) Run() (config.Config, error) {
	w.printBanner()

	a := fromConfig(w.cfg)
	if err := w.runForm(w.form(&a)); err != nil {
		return w.cfg, fmt.Errorf("configure: %w", err)
	}

	cfg, err := a.apply(w.cfg)
	if err != nil {
		return w.cfg, fmt.Errorf("configure: %w", err)
	}
	if err := config.SaveTo(cfg, w.path); err != nil {
		return w.cfg, err
	}
	w.cfg = cfg
	w.printSummary()
	return cfg, nil
}

func (w *Wizard) printBanner() {
	fmt.Fprintln(w.out, "")
	fmt.Fprintln(w.out, "gv configuration")
	fmt.Fprintln(w.out, "────────────────")
	fmt.Fprintf(w.out, "Editing %s. Press Ctrl+C to cancel.\n\n", w.path)
}

func (w *Wizard) printSummary() {
	c := w.cfg
	fmt.Fprintln(w.out, "")
	fmt.Fprintf(w.out, "  Data:     %s (watch: %v)\n", c.Data.Dir, c.Watch.Enabled)
	fmt.Fprintf(w.out, "  Year:     %s\n", c.Defaults.Year)
	fmt.Fprintf(w.out, "  Scatter:  x=%s y=%s r=%s\n", c.Defaults.X, c.Defaults.Y, c.Defaults.Radius)
	fmt.Fprintf(w.out, "  Bar/Line: %s / %s\n", c.Defaults.Bar, c.Defaults.Line)
	fmt.Fprintf(w.out, "  Export:   %s (%s)\n", c.Export.Dir, c.Export.Format)
	fmt.Fprintf(w.out, "Saved %s\n", w.path)
}
