// Package ui is the terminal host of the dashboard: a bubbletea program that
// rasterizes the bar, scatter and line scenes into panes and maps keys to
// controller events.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/gapview/pkg/dashboard"
	"github.com/vanderheijden86/gapview/pkg/debug"
	"github.com/vanderheijden86/gapview/pkg/export"
	"github.com/vanderheijden86/gapview/pkg/metrics"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/view"
	"github.com/vanderheijden86/gapview/pkg/watcher"
)

// reloadTimeout bounds one dataset reload.
const reloadTimeout = 30 * time.Second

// FileChangedMsg is sent when a watched data file changes.
type FileChangedMsg struct{}

// ReloadedMsg carries the result of reloading the dataset.
type ReloadedMsg struct {
	Dataset *model.Dataset
	Err     error
}

// ExportedMsg carries the result of a snapshot export.
type ExportedMsg struct {
	Paths []string
	Err   error
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// Options configures the terminal host.
type Options struct {
	ExportDir string
	Format    string
	// Reload fetches a fresh dataset; nil disables reloading.
	Reload  func(context.Context) (*model.Dataset, error)
	Watcher *watcher.Watcher
}

// focusOrder is the tab order of the panes.
var focusOrder = []view.Kind{view.KindBar, view.KindScatter, view.KindLine}

// Model is the main Bubble Tea model for gv.
type Model struct {
	ctrl  *dashboard.Controller
	opts  Options
	theme Theme
	help  help.Model

	search    textinput.Model
	searching bool

	focus  view.Kind
	cursor map[view.Kind]int

	width, height int
	ready         bool
	showHelp      bool
	helpCache     string
	helpWidth     int

	status    string
	statusErr bool

	// copyFn writes to the system clipboard; replaced in tests.
	copyFn func(string) error
}

// NewModel creates the terminal host for ctrl.
func NewModel(ctrl *dashboard.Controller, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "country name"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	if opts.Format == "" {
		opts.Format = export.FormatSVG
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "snapshots"
	}

	m := Model{
		ctrl:   ctrl,
		opts:   opts,
		theme:  DefaultTheme(lipgloss.DefaultRenderer()),
		help:   help.New(),
		search: ti,
		focus:  view.KindScatter,
		cursor: make(map[view.Kind]int),
		copyFn: clipboard.WriteAll,
	}
	m.placeCursorOnSelection()
	return m
}

// WithTheme sets the theme.
func (m Model) WithTheme(t Theme) Model {
	m.theme = t
	return m
}

// Init starts the file watcher loop when watching is enabled.
func (m Model) Init() tea.Cmd {
	if m.opts.Watcher != nil {
		return WatchFileCmd(m.opts.Watcher)
	}
	return nil
}

// Controller exposes the dashboard state for tests and the CLI.
func (m Model) Controller() *dashboard.Controller {
	return m.ctrl
}

// Status returns the current status line and whether it is an error.
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// Focus returns the focused view.
func (m Model) Focus() view.Kind {
	return m.focus
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
	debug.Log("ui: %v", err)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case FileChangedMsg:
		m.setStatus("data changed, reloading…")
		cmds := []tea.Cmd{m.reloadCmd()}
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}
		return m, tea.Batch(cmds...)

	case ReloadedMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("reload: %w", msg.Err))
			return m, nil
		}
		u, err := m.ctrl.Reload(msg.Dataset)
		if err != nil {
			m.setError(fmt.Errorf("reload: %w", err))
			return m, nil
		}
		m.clampCursors()
		m.setStatus("reloaded %d records (%s)", msg.Dataset.Len(), describe(u))
		return m, nil

	case ExportedMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("export: %w", msg.Err))
			return m, nil
		}
		m.setStatus("exported %s", strings.Join(msg.Paths, ", "))
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.showHelp {
			if key.Matches(msg, keys.Quit) && msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			m.showHelp = false
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, keys.PrevYear):
		m.stepYear(-1)
	case key.Matches(msg, keys.NextYear):
		m.stepYear(1)
	case key.Matches(msg, keys.CycleX):
		m.cycle(dashboard.ControlX)
	case key.Matches(msg, keys.CycleY):
		m.cycle(dashboard.ControlY)
	case key.Matches(msg, keys.CycleR):
		m.cycle(dashboard.ControlRadius)
	case key.Matches(msg, keys.CycleBar):
		m.cycle(dashboard.ControlBar)
	case key.Matches(msg, keys.CycleLine):
		m.cycle(dashboard.ControlLine)
	case key.Matches(msg, keys.Focus):
		step := 1
		if msg.String() == "shift+tab" {
			step = len(focusOrder) - 1
		}
		m.focus = focusOrder[(indexOf(focusOrder, m.focus)+step)%len(focusOrder)]
	case key.Matches(msg, keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, keys.Right):
		m.moveCursor(1)
	case key.Matches(msg, keys.Click):
		m.click()
	case key.Matches(msg, keys.Clear):
		if _, err := m.ctrl.ClearHighlight(); err != nil {
			m.setError(err)
		} else {
			m.setStatus("highlight cleared")
		}
	case key.Matches(msg, keys.Search):
		m.searching = true
		m.search.SetValue("")
		return m, m.search.Focus()
	case key.Matches(msg, keys.Export):
		m.setStatus("exporting…")
		return m, m.exportCmd()
	case key.Matches(msg, keys.Copy):
		m.copySeries()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		query := m.search.Value()
		rec, ok := findCountry(m.ctrl.Dataset(), query)
		if !ok {
			m.setError(fmt.Errorf("no country matches %q", query))
			return m, nil
		}
		m.selectCountry(rec.Country)
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// findCountry matches a query against country names: exact match first,
// then prefix, then substring, all case-insensitive.
func findCountry(ds *model.Dataset, query string) (model.Record, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || ds == nil {
		return model.Record{}, false
	}
	matchers := []func(string) bool{
		func(name string) bool { return name == q },
		func(name string) bool { return strings.HasPrefix(name, q) },
		func(name string) bool { return strings.Contains(name, q) },
	}
	for _, match := range matchers {
		for _, rec := range ds.Records {
			if match(strings.ToLower(rec.Country)) {
				return rec, true
			}
		}
	}
	return model.Record{}, false
}

func (m *Model) stepYear(delta int) {
	years := m.ctrl.Dataset().Years
	if len(years) == 0 {
		return
	}
	i := indexOf(years, m.ctrl.Params().Year)
	next := clamp(i+delta, 0, len(years)-1)
	if i >= 0 && next == i {
		return
	}
	if _, err := m.ctrl.SetYear(years[next]); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("year %s", years[next])
}

func (m *Model) cycle(ctl dashboard.Control) {
	u, err := m.ctrl.CycleMetric(ctl)
	if err != nil {
		m.setError(err)
		return
	}
	label := m.ctrl.Metric(ctl).Label()
	if u.LineErr != nil && !errors.Is(u.LineErr, view.ErrNoSelection) {
		m.setError(fmt.Errorf("%s: %w", label, u.LineErr))
		return
	}
	m.setStatus("%s: %s", ctl, label)
}

// cursorLen returns how many positions the focused view's cursor has.
func (m *Model) cursorLen(k view.Kind) int {
	switch k {
	case view.KindBar:
		return len(m.ctrl.Dataset().Regions)
	case view.KindScatter:
		return m.ctrl.Dataset().Len()
	case view.KindLine:
		if s := m.ctrl.LineScene(); s != nil && len(s.Marks) > 0 {
			return len(s.Marks[0].Points)
		}
	}
	return 0
}

func (m *Model) moveCursor(delta int) {
	n := m.cursorLen(m.focus)
	if n == 0 {
		return
	}
	m.cursor[m.focus] = (m.cursor[m.focus] + delta + n) % n
	m.setStatus("%s", m.describeCursor())
}

func (m *Model) clampCursors() {
	for _, k := range focusOrder {
		n := m.cursorLen(k)
		if m.cursor[k] >= n {
			m.cursor[k] = max(n-1, 0)
		}
	}
}

func (m *Model) placeCursorOnSelection() {
	ds := m.ctrl.Dataset()
	if name, ok := m.ctrl.Params().SelectedCountry.Get(); ok {
		for i, rec := range ds.Records {
			if rec.Country == name {
				m.cursor[view.KindScatter] = i
				break
			}
		}
	}
	if region, ok := m.ctrl.Params().HighlightedRegion.Get(); ok {
		m.cursor[view.KindBar] = max(indexOf(ds.Regions, region), 0)
	}
}

// describeCursor summarizes the mark under the cursor.
func (m *Model) describeCursor() string {
	ds := m.ctrl.Dataset()
	p := m.ctrl.Params()
	i := m.cursor[m.focus]
	switch m.focus {
	case view.KindBar:
		if i >= len(ds.Regions) {
			return ""
		}
		region := ds.Regions[i]
		mark, _ := m.ctrl.BarScene().Mark(region)
		return fmt.Sprintf("%s: mean %s = %s (%d countries)", region, p.Bar, formatValue(mark.Value), countRegion(ds, region))
	case view.KindScatter:
		if i >= ds.Len() {
			return ""
		}
		rec := ds.Records[i]
		return fmt.Sprintf("%s (%s): %s=%s %s=%s %s=%s", rec.Country, rec.Region,
			p.X, formatValue(rec.Number(p.X, p.Year)),
			p.Y, formatValue(rec.Number(p.Y, p.Year)),
			p.Radius, formatValue(rec.Number(p.Radius, p.Year)))
	case view.KindLine:
		s := m.ctrl.LineScene()
		if s == nil || len(s.Marks) == 0 || i >= len(s.Marks[0].Points) {
			return ""
		}
		pt := s.Marks[0].Points[i]
		return fmt.Sprintf("%s %s: %s = %s", s.Title, pt.Label, p.Line, formatValue(pt.Value))
	}
	return ""
}

func countRegion(ds *model.Dataset, region string) int {
	n := 0
	for _, rec := range ds.Records {
		if rec.Region == region {
			n++
		}
	}
	return n
}

func (m *Model) click() {
	ds := m.ctrl.Dataset()
	i := m.cursor[m.focus]
	switch m.focus {
	case view.KindBar:
		if i >= len(ds.Regions) {
			return
		}
		region := ds.Regions[i]
		if m.ctrl.Params().HighlightedRegion.Is(region) {
			if _, err := m.ctrl.ClearHighlight(); err != nil {
				m.setError(err)
				return
			}
			m.setStatus("highlight cleared")
			return
		}
		if _, err := m.ctrl.ClickBar(region); err != nil {
			m.setError(err)
			return
		}
		m.setStatus("highlighted %s", region)
	case view.KindScatter:
		if i >= ds.Len() {
			return
		}
		m.selectCountry(ds.Records[i].Country)
	case view.KindLine:
		m.setStatus("%s", m.describeCursor())
	}
}

func (m *Model) selectCountry(name string) {
	u, err := m.ctrl.ClickCountry(name)
	if err != nil {
		m.setError(err)
		return
	}
	m.placeCursorOnSelection()
	m.cursor[view.KindLine] = 0
	if u.LineErr != nil {
		m.setError(fmt.Errorf("%s selected, line: %w", name, u.LineErr))
		return
	}
	m.setStatus("selected %s", name)
}

// seriesCSV renders the selected country's line series as CSV.
func (m *Model) seriesCSV() (string, error) {
	p := m.ctrl.Params()
	rec, series, err := view.SelectedSeries(m.ctrl.Dataset(), p, m.ctrl.Options().TrailingColumns)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "country,year,%s\n", p.Line)
	for _, sp := range series {
		v := ""
		if !isNaN(sp.Value) {
			v = fmt.Sprintf("%g", sp.Value)
		}
		fmt.Fprintf(&b, "%s,%s,%s\n", csvField(rec.Country), sp.Label, v)
	}
	return b.String(), nil
}

func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func isNaN(v float64) bool { return v != v }

func (m *Model) copySeries() {
	text, err := m.seriesCSV()
	if err != nil {
		m.setError(fmt.Errorf("copy: %w", err))
		return
	}
	if err := m.copyFn(text); err != nil {
		m.setError(fmt.Errorf("clipboard: %w", err))
		return
	}
	m.setStatus("copied %d lines to clipboard", strings.Count(text, "\n")-1)
}

func (m Model) exportCmd() tea.Cmd {
	scenes := m.ctrl.Scenes()
	dir, format := m.opts.ExportDir, m.opts.Format
	return func() tea.Msg {
		paths, err := export.SaveScenes(dir, format, scenes)
		return ExportedMsg{Paths: paths, Err: err}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	reload := m.opts.Reload
	if reload == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		ds, err := reload(ctx)
		return ReloadedMsg{Dataset: ds, Err: err}
	}
}

func describe(u dashboard.Update) string {
	var parts []string
	for _, k := range u.Views() {
		parts = append(parts, string(k))
	}
	if len(parts) == 0 {
		return "no views changed"
	}
	return strings.Join(parts, ", ")
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

// ============================================================================
// View
// ============================================================================

// View renders the dashboard.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if !m.ready {
		return "loading…"
	}
	if m.showHelp {
		return m.helpView()
	}

	header := m.headerView()
	footer := m.footerView()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 8 || m.width < 30 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "terminal too small", footer)
	}

	topHeight := bodyHeight * 11 / 20
	lineHeight := bodyHeight - topHeight
	barWidth := m.width / 3
	scatterWidth := m.width - barWidth

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.pane(view.KindBar, m.ctrl.BarScene(), barWidth, topHeight),
		m.pane(view.KindScatter, m.ctrl.ScatterScene(), scatterWidth, topHeight),
	)
	line := m.pane(view.KindLine, m.ctrl.LineScene(), m.width, lineHeight)

	return lipgloss.JoinVertical(lipgloss.Left, header, top, line, footer)
}

func (m Model) headerView() string {
	p := m.ctrl.Params()
	title := fmt.Sprintf("gv  %s", p.Year)
	controls := fmt.Sprintf("x:%s  y:%s  r:%s  bar:%s  line:%s", p.X, p.Y, p.Radius, p.Bar, p.Line)
	var sel []string
	if v, ok := p.HighlightedRegion.Get(); ok {
		sel = append(sel, "region "+v)
	}
	if v, ok := p.SelectedCountry.Get(); ok {
		sel = append(sel, "country "+v)
	}
	right := strings.Join(sel, "  ")
	line := m.theme.Header.Render(title) + " " + m.theme.Status.Render(controls)
	if right != "" {
		line += "  " + m.theme.PaneTitle.Render(right)
	}
	return truncateStyled(line, m.width)
}

func (m Model) footerView() string {
	var status string
	switch {
	case m.searching:
		status = m.search.View()
	case m.statusErr:
		status = m.theme.Error.Render(truncate(m.status, m.width))
	default:
		status = m.theme.Status.Render(truncate(m.status, m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, m.help.View(keys))
}

// pane draws one view inside a bordered box of the given outer size.
func (m Model) pane(k view.Kind, s *view.Scene, width, height int) string {
	style := m.theme.Pane
	if m.focus == k {
		style = m.theme.FocusedPane
	}
	innerW := max(width-style.GetHorizontalFrameSize(), 1)
	innerH := max(height-style.GetVerticalFrameSize(), 1)

	title := string(k)
	if s != nil && s.Title != "" {
		title = s.Title
	}
	body := m.theme.PaneTitle.Render(truncate(title, innerW))
	canvasRows := innerH - 1

	switch {
	case s == nil:
		hint := "select a country (tab to scatter, enter)"
		if country, ok := m.ctrl.Params().SelectedCountry.Get(); ok {
			hint = fmt.Sprintf("no %s series for %s (l to change metric)", m.ctrl.Params().Line, country)
		}
		body += "\n" + m.theme.MutedText.Render(padRight(truncate(hint, innerW), innerW))
	case canvasRows > 0:
		c := Rasterize(s, innerW, canvasRows)
		if m.focus == k {
			m.drawCursor(c, k, s)
		}
		body += "\n" + c.Render(m.theme)
	}
	return style.Width(innerW).Height(innerH).Render(body)
}

func (m Model) drawCursor(c *Canvas, k view.Kind, s *view.Scene) {
	ds := m.ctrl.Dataset()
	i := m.cursor[k]
	switch k {
	case view.KindBar:
		if i < len(ds.Regions) {
			if mark, ok := s.Mark(ds.Regions[i]); ok {
				c.MarkCursor(mark)
			}
		}
	case view.KindScatter:
		if i < ds.Len() {
			if mark, ok := s.Mark(ds.Records[i].Key()); ok && mark.Opacity > 0 {
				c.MarkCursor(mark)
			}
		}
	case view.KindLine:
		if len(s.Marks) > 0 && i < len(s.Marks[0].Points) {
			c.PointCursor(s.Marks[0].Points[i])
		}
	}
}

func (m *Model) helpView() string {
	if m.helpCache == "" || m.helpWidth != m.width {
		m.helpCache = renderHelp(m.width)
		m.helpWidth = m.width
	}
	footer := m.theme.MutedText.Render("press any key to close")
	return lipgloss.JoinVertical(lipgloss.Left, m.helpCache, footer)
}

// truncateStyled cuts an ANSI-styled line to width cells.
func truncateStyled(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
