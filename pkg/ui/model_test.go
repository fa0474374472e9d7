package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/gapview/pkg/dashboard"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/testutil"
	"github.com/vanderheijden86/gapview/pkg/view"
)

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	ctrl, err := dashboard.New(testutil.ThreeCountries().Dataset(), model.DefaultParams(), dashboard.DefaultOptions())
	if err != nil {
		t.Fatalf("dashboard.New: %v", err)
	}
	return NewModel(ctrl, opts).WithTheme(TestTheme())
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m Model, ks ...string) Model {
	for _, k := range ks {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func assertStatus(t *testing.T, m Model, wantErr bool, contains string) {
	t.Helper()
	status, isErr := m.Status()
	if isErr != wantErr {
		t.Errorf("status %q: error = %v, want %v", status, isErr, wantErr)
	}
	if !strings.Contains(status, contains) {
		t.Errorf("status %q should contain %q", status, contains)
	}
}

// ============================================================================
// Controls
// ============================================================================

func TestYearKeysStepThroughYears(t *testing.T) {
	m := newTestModel(t, Options{})

	m = press(m, "]")
	if got := m.Controller().Params().Year; got != "2001" {
		t.Fatalf("] -> year %s, want 2001", got)
	}
	assertStatus(t, m, false, "year 2001")

	m = press(m, "]")
	if got := m.Controller().Params().Year; got != "2001" {
		t.Errorf("] at the last year -> %s, want 2001", got)
	}

	m = press(m, "[", "[", "[")
	if got := m.Controller().Params().Year; got != "1999" {
		t.Errorf("[ x3 -> year %s, want 1999", got)
	}
}

func TestMetricKeysCycle(t *testing.T) {
	m := newTestModel(t, Options{})

	m = press(m, "x")
	if got := m.Controller().Params().X; got != model.MetricPopulation {
		t.Errorf("x -> %s, want population (wraps after fertility-rate)", got)
	}
	assertStatus(t, m, false, "x: Population")

	m = press(m, "b")
	if got := m.Controller().Params().Bar; got != model.MetricLifeExpectancy {
		t.Errorf("b -> %s, want life-expectancy", got)
	}

	// Cycling the line metric with nothing selected is not an error.
	m = press(m, "l")
	if got := m.Controller().Params().Line; got != model.MetricChildMortality {
		t.Errorf("l -> %s, want child-mortality", got)
	}
	assertStatus(t, m, false, "line")
}

func TestFocusCycles(t *testing.T) {
	m := newTestModel(t, Options{})
	if m.Focus() != view.KindScatter {
		t.Fatalf("initial focus = %s, want scatter", m.Focus())
	}

	want := []view.Kind{view.KindLine, view.KindBar, view.KindScatter}
	for _, k := range want {
		m = press(m, "tab")
		if m.Focus() != k {
			t.Errorf("tab -> %s, want %s", m.Focus(), k)
		}
	}
	m = press(m, "shift+tab")
	if m.Focus() != view.KindBar {
		t.Errorf("shift+tab -> %s, want bar", m.Focus())
	}
}

// ============================================================================
// Interaction
// ============================================================================

func TestBarClickTogglesHighlight(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, "tab", "tab")

	m = press(m, "enter")
	if got, _ := m.Controller().Params().HighlightedRegion.Get(); got != "A" {
		t.Fatalf("enter on first bar -> highlight %q, want A", got)
	}
	b, _ := m.Controller().BarScene().Mark("B")
	if b.Opacity >= 1 {
		t.Errorf("bar B opacity = %v, should be dimmed", b.Opacity)
	}

	m = press(m, "enter")
	if m.Controller().Params().HighlightedRegion.IsSet() {
		t.Error("second click on the highlighted bar should clear it")
	}

	m = press(m, "right", "enter")
	if got, _ := m.Controller().Params().HighlightedRegion.Get(); got != "B" {
		t.Errorf("right, enter -> highlight %q, want B", got)
	}
	m = press(m, "esc")
	if m.Controller().Params().HighlightedRegion.IsSet() {
		t.Error("esc should clear the highlight")
	}
	assertStatus(t, m, false, "highlight cleared")
}

func TestScatterClickSelectsCountry(t *testing.T) {
	m := newTestModel(t, Options{})

	m = press(m, "right")
	assertStatus(t, m, false, "Beta (A)")

	m = press(m, "enter")
	if got, _ := m.Controller().Params().SelectedCountry.Get(); got != "Beta" {
		t.Fatalf("selected %q, want Beta", got)
	}
	if m.Controller().LineScene() == nil {
		t.Fatal("selecting a country should draw the line view")
	}

	m = press(m, "tab", "right")
	assertStatus(t, m, false, "2000")
	assertStatus(t, m, false, "2,100")
}

func TestCursorWraps(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, "left")
	assertStatus(t, m, false, "Gamma")
	m = press(m, "right")
	assertStatus(t, m, false, "Alpha")
}

func TestSearchSelectsCountry(t *testing.T) {
	m := newTestModel(t, Options{})

	m = press(m, "/", "gam", "enter")
	if got, _ := m.Controller().Params().SelectedCountry.Get(); got != "Gamma" {
		t.Errorf("search gam -> %q, want Gamma", got)
	}
	assertStatus(t, m, false, "selected Gamma")

	m = press(m, "/", "zzz", "enter")
	assertStatus(t, m, true, `no country matches "zzz"`)
	if got, _ := m.Controller().Params().SelectedCountry.Get(); got != "Gamma" {
		t.Errorf("failed search changed the selection to %q", got)
	}

	m = press(m, "/", "x", "esc")
	if got := m.Controller().Params().X; got != model.MetricFertilityRate {
		t.Errorf("keys typed into search leaked to the controls: x = %s", got)
	}
}

func TestFindCountry(t *testing.T) {
	ds := testutil.ThreeCountries().Dataset()
	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"alpha", "Alpha", true},
		{"  BE ", "Beta", true},
		{"mm", "Gamma", true},
		{"a", "Alpha", true},
		{"", "", false},
		{"q", "", false},
	}
	for _, tt := range tests {
		rec, ok := findCountry(ds, tt.query)
		if ok != tt.ok || rec.Country != tt.want {
			t.Errorf("findCountry(%q) = %q, %v; want %q, %v", tt.query, rec.Country, ok, tt.want, tt.ok)
		}
	}
}

func TestCopySeries(t *testing.T) {
	m := newTestModel(t, Options{})
	var copied string
	m.copyFn = func(s string) error {
		copied = s
		return nil
	}

	m = press(m, "c")
	assertStatus(t, m, true, "no country selected")

	if _, err := m.Controller().ClickCountry("Alpha"); err != nil {
		t.Fatal(err)
	}
	m = press(m, "c")
	want := "country,year,gdp\nAlpha,1999,1000\nAlpha,2000,1100\nAlpha,2001,1200\n"
	if copied != want {
		t.Errorf("copied:\n%s\nwant:\n%s", copied, want)
	}
	assertStatus(t, m, false, "copied 3 lines")

	m.copyFn = func(string) error { return errors.New("no clipboard") }
	m = press(m, "c")
	assertStatus(t, m, true, "clipboard: no clipboard")
}

func TestCSVField(t *testing.T) {
	if got := csvField(`Korea, "South"`); got != `"Korea, ""South"""` {
		t.Errorf("csvField = %s", got)
	}
	if got := csvField("Chad"); got != "Chad" {
		t.Errorf("csvField = %s", got)
	}
}

// ============================================================================
// Commands
// ============================================================================

func TestExportWritesSnapshots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	m := newTestModel(t, Options{ExportDir: dir})

	next, cmd := m.Update(keyMsg("e"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("export key should return a command")
	}
	msg, ok := cmd().(ExportedMsg)
	if !ok {
		t.Fatalf("command returned %T, want ExportedMsg", cmd())
	}
	if msg.Err != nil {
		t.Fatalf("export: %v", msg.Err)
	}
	if len(msg.Paths) != 2 {
		t.Errorf("paths = %v, want bar and scatter", msg.Paths)
	}
	for _, p := range msg.Paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}

	m, _ = send(m, msg)
	assertStatus(t, m, false, "exported")
	m, _ = send(m, ExportedMsg{Err: errors.New("disk full")})
	assertStatus(t, m, true, "export: disk full")
}

func TestReload(t *testing.T) {
	full := testutil.ThreeCountries().Dataset()
	smaller := model.NewDataset(full.Records[:1], nil)
	m := newTestModel(t, Options{
		Reload: func(context.Context) (*model.Dataset, error) { return smaller, nil },
	})
	m = press(m, "right", "right")

	m, cmd := send(m, FileChangedMsg{})
	if cmd == nil {
		t.Fatal("file change should start a reload")
	}
	assertStatus(t, m, false, "reloading")

	msg, ok := m.reloadCmd()().(ReloadedMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("reload command = %+v", msg)
	}
	m, _ = send(m, msg)
	assertStatus(t, m, false, "reloaded 1 records")
	if m.Controller().Dataset().Len() != 1 {
		t.Errorf("dataset len = %d, want 1", m.Controller().Dataset().Len())
	}
	if m.cursor[view.KindScatter] != 0 {
		t.Errorf("scatter cursor = %d, should be clamped to 0", m.cursor[view.KindScatter])
	}

	m, _ = send(m, ReloadedMsg{Err: errors.New("parse error")})
	assertStatus(t, m, true, "reload: parse error")
	if m.Controller().Dataset().Len() != 1 {
		t.Error("a failed reload should keep the current dataset")
	}
}

func TestReloadDisabledWithoutLoader(t *testing.T) {
	m := newTestModel(t, Options{})
	if cmd := m.reloadCmd(); cmd != nil {
		t.Error("reloadCmd should be nil without a loader")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, Options{})
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

// ============================================================================
// View
// ============================================================================

func TestViewLayout(t *testing.T) {
	m := newTestModel(t, Options{})
	if got := m.View(); got != "loading…" {
		t.Errorf("view before the first resize = %q", got)
	}

	m, _ = send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	out := m.View()
	for _, want := range []string{"gv", "2000", "select a country", string(glyphCircle)} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines > 40 {
		t.Errorf("view has %d lines, taller than the terminal", lines)
	}

	if _, err := m.Controller().ClickCountry("Alpha"); err != nil {
		t.Fatal(err)
	}
	// Focus the bar pane so the scatter cursor does not cover the selection.
	m = press(m, "tab", "tab")
	out = m.View()
	if strings.Contains(out, "select a country") {
		t.Error("line placeholder should be replaced once a country is selected")
	}
	if !strings.ContainsRune(out, glyphSelected) {
		t.Error("selected country should be drawn as ◉")
	}

	m, _ = send(m, tea.WindowSizeMsg{Width: 20, Height: 6})
	if !strings.Contains(m.View(), "terminal too small") {
		t.Error("tiny terminal should show a notice")
	}
}

func TestViewLinePaneWithoutSeries(t *testing.T) {
	ds := testutil.ThreeCountries().Drop(model.MetricGDP, "aaa").Dataset()
	ctrl, err := dashboard.New(ds, model.DefaultParams(), dashboard.DefaultOptions())
	if err != nil {
		t.Fatalf("dashboard.New: %v", err)
	}
	m := NewModel(ctrl, Options{}).WithTheme(TestTheme())
	m, _ = send(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = press(m, "/", "alpha", "enter")
	assertStatus(t, m, true, "Alpha selected")

	out := m.View()
	if !strings.Contains(out, "no gdp series for Alpha") {
		t.Errorf("line pane should explain the missing series:\n%s", out)
	}
	if ctrl.LineScene() != nil {
		t.Error("line scene should be empty")
	}
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 40})

	m = press(m, "?")
	if !strings.Contains(m.View(), "press any key to close") {
		t.Error("help overlay not shown")
	}

	m = press(m, "x")
	if m.showHelp {
		t.Error("any key should close help")
	}
	if got := m.Controller().Params().X; got != model.MetricFertilityRate {
		t.Errorf("closing help should not trigger the key's action, x = %s", got)
	}
}
