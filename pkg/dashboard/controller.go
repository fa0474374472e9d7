// Package dashboard owns the linked-view state: the dataset, the parameter
// state, the scales and the three current scenes. Every interaction is a
// method that validates its input, mutates the state and reruns exactly the
// views that depend on what changed.
package dashboard

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/gapview/pkg/debug"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/view"
)

var (
	// ErrUnknownYear is returned when a year is not a column of the dataset.
	ErrUnknownYear = errors.New("unknown year")
	// ErrUnknownRegion is returned when a clicked region has no bar.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrNoDataset is returned when a nil dataset is supplied.
	ErrNoDataset = errors.New("no dataset")
)

// Control names one metric dropdown.
type Control string

const (
	ControlX      Control = "x"
	ControlY      Control = "y"
	ControlRadius Control = "radius"
	ControlBar    Control = "bar"
	ControlLine   Control = "line"
)

// Controls lists every metric control.
var Controls = []Control{ControlX, ControlY, ControlRadius, ControlBar, ControlLine}

// Options configures a Controller.
type Options struct {
	Geometry        view.Geometry
	Palette         []string
	RadiusRange     [2]float64
	TrailingColumns int
}

// DefaultOptions returns the standard layout and styling.
func DefaultOptions() Options {
	return Options{
		Geometry:        view.DefaultGeometry(),
		Palette:         append([]string(nil), DefaultPalette...),
		RadiusRange:     DefaultRadiusRange,
		TrailingColumns: view.DefaultTrailingColumns,
	}
}

// Update reports which views were rerun and how their marks changed. A nil
// diff means the view was not rerun.
type Update struct {
	Bar     *view.Diff
	Scatter *view.Diff
	Line    *view.Diff
	// LineErr is set when the line view was asked to rerun but could not,
	// for example because no country is selected.
	LineErr error
}

// Views returns the kinds of the views that were rerun.
func (u Update) Views() []view.Kind {
	var kinds []view.Kind
	if u.Bar != nil {
		kinds = append(kinds, view.KindBar)
	}
	if u.Scatter != nil {
		kinds = append(kinds, view.KindScatter)
	}
	if u.Line != nil {
		kinds = append(kinds, view.KindLine)
	}
	return kinds
}

// Controller is the single owner of dashboard state. It is not safe for
// concurrent use; hosts serialize calls through their event loop.
type Controller struct {
	ds     *model.Dataset
	params model.Params
	opts   Options
	scales *Scales

	bar     *view.Scene
	scatter *view.Scene
	line    *view.Scene
}

// New validates params against ds and renders the bar and scatter views,
// plus the line view when a country is already selected.
func New(ds *model.Dataset, params model.Params, opts Options) (*Controller, error) {
	if ds == nil {
		return nil, ErrNoDataset
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := checkYear(ds, params.Year); err != nil {
		return nil, err
	}
	if region, ok := params.HighlightedRegion.Get(); ok && !hasRegion(ds, region) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	if country, ok := params.SelectedCountry.Get(); ok {
		if _, found := ds.FindCountry(country); !found {
			return nil, fmt.Errorf("%w: %q", view.ErrCountryNotFound, country)
		}
	}
	if opts.TrailingColumns < 0 {
		opts.TrailingColumns = 0
	}

	c := &Controller{
		ds:     ds,
		params: params,
		opts:   opts,
		scales: NewScales(opts.Geometry, opts.Palette, opts.RadiusRange),
	}
	c.seedColors()

	c.rerunBar()
	c.rerunScatter()
	if params.SelectedCountry.IsSet() {
		c.rerunLine()
	}
	debug.Log("dashboard: %d records, params %+v", ds.Len(), params)
	return c, nil
}

// seedColors assigns palette slots to the dataset's regions in order, so
// colors do not depend on which view asks first.
func (c *Controller) seedColors() {
	for _, r := range c.ds.Regions {
		c.scales.Color.Map(r)
	}
}

func checkYear(ds *model.Dataset, year string) error {
	if ds.Len() == 0 || ds.HasYear(year) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownYear, year)
}

func hasRegion(ds *model.Dataset, region string) bool {
	for _, r := range ds.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// Params returns the current parameter state.
func (c *Controller) Params() model.Params { return c.params }

// Dataset returns the current dataset.
func (c *Controller) Dataset() *model.Dataset { return c.ds }

// Scales returns the live scales.
func (c *Controller) Scales() *Scales { return c.scales }

// Options returns the controller options.
func (c *Controller) Options() Options { return c.opts }

// BarScene returns the current bar scene.
func (c *Controller) BarScene() *view.Scene { return c.bar }

// ScatterScene returns the current scatter scene.
func (c *Controller) ScatterScene() *view.Scene { return c.scatter }

// LineScene returns the current line scene, nil until a country is selected.
func (c *Controller) LineScene() *view.Scene { return c.line }

// Scenes returns the scenes that have been rendered.
func (c *Controller) Scenes() []*view.Scene {
	scenes := []*view.Scene{c.bar, c.scatter}
	if c.line != nil {
		scenes = append(scenes, c.line)
	}
	return scenes
}

func (c *Controller) rerunBar() *view.Diff {
	next, diff := view.UpdateBar(c.bar, c.ds, c.params, c.opts.Geometry, c.scales.Bar())
	c.bar = next
	return &diff
}

func (c *Controller) rerunScatter() *view.Diff {
	next, diff := view.UpdateScatter(c.scatter, c.ds, c.params, c.opts.Geometry, c.scales.Scatter())
	c.scatter = next
	return &diff
}

func (c *Controller) rerunLine() (*view.Diff, error) {
	next, diff, err := view.UpdateLine(c.line, c.ds, c.params, c.opts.Geometry, c.scales.Line(), c.opts.TrailingColumns)
	if errors.Is(err, view.ErrNoSelection) {
		return nil, err
	}
	if err != nil {
		// The old path belongs to a country or metric that is no longer bound.
		debug.Log("dashboard: line removed: %v", err)
		exit := c.line.Keys()
		c.line = nil
		if len(exit) == 0 {
			return nil, err
		}
		return &view.Diff{Exit: exit}, err
	}
	c.line = next
	return &diff, nil
}

// SetYear changes the year and reruns the scatter and bar views.
func (c *Controller) SetYear(year string) (Update, error) {
	if err := checkYear(c.ds, year); err != nil {
		return Update{}, err
	}
	c.params.Year = year
	return Update{Scatter: c.rerunScatter(), Bar: c.rerunBar()}, nil
}

// Metric returns the metric currently bound to a control.
func (c *Controller) Metric(ctl Control) model.Metric {
	switch ctl {
	case ControlX:
		return c.params.X
	case ControlY:
		return c.params.Y
	case ControlRadius:
		return c.params.Radius
	case ControlBar:
		return c.params.Bar
	case ControlLine:
		return c.params.Line
	}
	return ""
}

// SetMetric binds a metric to a control and reruns the view it feeds.
func (c *Controller) SetMetric(ctl Control, name string) (Update, error) {
	m, err := model.ParseMetric(name)
	if err != nil {
		return Update{}, err
	}
	switch ctl {
	case ControlX:
		c.params.X = m
		return Update{Scatter: c.rerunScatter()}, nil
	case ControlY:
		c.params.Y = m
		return Update{Scatter: c.rerunScatter()}, nil
	case ControlRadius:
		c.params.Radius = m
		return Update{Scatter: c.rerunScatter()}, nil
	case ControlBar:
		c.params.Bar = m
		return Update{Bar: c.rerunBar()}, nil
	case ControlLine:
		c.params.Line = m
		diff, err := c.rerunLine()
		return Update{Line: diff, LineErr: err}, nil
	}
	return Update{}, fmt.Errorf("unknown control %q", ctl)
}

// CycleMetric advances a control to the next metric.
func (c *Controller) CycleMetric(ctl Control) (Update, error) {
	return c.SetMetric(ctl, string(c.Metric(ctl).Next()))
}

// SetXMetric binds the scatter x axis.
func (c *Controller) SetXMetric(name string) (Update, error) { return c.SetMetric(ControlX, name) }

// SetYMetric binds the scatter y axis.
func (c *Controller) SetYMetric(name string) (Update, error) { return c.SetMetric(ControlY, name) }

// SetRadiusMetric binds the scatter circle radius.
func (c *Controller) SetRadiusMetric(name string) (Update, error) {
	return c.SetMetric(ControlRadius, name)
}

// SetBarMetric binds the bar chart value.
func (c *Controller) SetBarMetric(name string) (Update, error) { return c.SetMetric(ControlBar, name) }

// SetLineMetric binds the line chart series.
func (c *Controller) SetLineMetric(name string) (Update, error) { return c.SetMetric(ControlLine, name) }

// ClickBar highlights a region: its bar stays opaque and only its circles
// remain visible in the scatter view.
func (c *Controller) ClickBar(region string) (Update, error) {
	if !hasRegion(c.ds, region) {
		return Update{}, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	c.params.HighlightedRegion = model.Select(region)
	return Update{Bar: c.rerunBar(), Scatter: c.rerunScatter()}, nil
}

// ClearHighlight removes the region highlight.
func (c *Controller) ClearHighlight() (Update, error) {
	c.params.HighlightedRegion = model.Selection{}
	return Update{Bar: c.rerunBar(), Scatter: c.rerunScatter()}, nil
}

// ClickCountry selects a country: its circle is outlined and drawn on top,
// and the line view shows its series.
func (c *Controller) ClickCountry(name string) (Update, error) {
	if _, ok := c.ds.FindCountry(name); !ok {
		return Update{}, fmt.Errorf("%w: %q", view.ErrCountryNotFound, name)
	}
	c.params.SelectedCountry = model.Select(name)
	u := Update{Scatter: c.rerunScatter()}
	u.Line, u.LineErr = c.rerunLine()
	return u, nil
}

// Reload swaps in a new dataset and reruns every view. Selections that no
// longer resolve are cleared, and a year the new data lacks falls back to
// its latest year.
func (c *Controller) Reload(ds *model.Dataset) (Update, error) {
	if ds == nil {
		return Update{}, ErrNoDataset
	}
	c.ds = ds
	c.seedColors()

	if err := checkYear(ds, c.params.Year); err != nil && len(ds.Years) > 0 {
		debug.Log("dashboard: year %s gone after reload, using %s", c.params.Year, ds.Years[len(ds.Years)-1])
		c.params.Year = ds.Years[len(ds.Years)-1]
	}
	if region, ok := c.params.HighlightedRegion.Get(); ok && !hasRegion(ds, region) {
		c.params.HighlightedRegion = model.Selection{}
	}

	var dropped []string
	if country, ok := c.params.SelectedCountry.Get(); ok {
		if _, found := ds.FindCountry(country); !found {
			c.params.SelectedCountry = model.Selection{}
			dropped = c.line.Keys()
			c.line = nil
		}
	}

	u := Update{Bar: c.rerunBar(), Scatter: c.rerunScatter()}
	switch {
	case dropped != nil:
		u.Line = &view.Diff{Exit: dropped}
	case c.params.SelectedCountry.IsSet():
		u.Line, u.LineErr = c.rerunLine()
	}
	return u, nil
}
