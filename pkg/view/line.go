package view

import (
	"fmt"
	"sort"
	"time"

	"github.com/vanderheijden86/gapview/pkg/metrics"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/scale"
)

// DefaultTrailingColumns is the number of metadata columns that trail the
// year columns of every table.
const DefaultTrailingColumns = 5

// Line styling.
const (
	LineStroke      = "blue"
	LineStrokeWidth = 2.0
)

// LineScales are the scales the line view rebinds.
type LineScales struct {
	X *scale.Time
	Y *scale.Linear
}

// SeriesPoint is one dated value of a country's time series.
type SeriesPoint struct {
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

var dateLayouts = []string{"2006", "2006-01", "2006-01-02"}

// ParseDate parses a column label as a date. Only year, year-month and
// full dates are accepted, all in UTC.
func ParseDate(label string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Series returns row's dated values in chronological order. The last
// trailing entries (in key enumeration order) are dropped first; then only
// entries whose label parses as a date are kept.
func Series(row *model.Row, trailing int) []SeriesPoint {
	entries := row.Entries()
	if trailing < 0 {
		trailing = 0
	}
	if trailing >= len(entries) {
		return nil
	}
	entries = entries[:len(entries)-trailing]

	points := make([]SeriesPoint, 0, len(entries))
	for _, e := range entries {
		d, ok := ParseDate(e.Label)
		if !ok {
			continue
		}
		points = append(points, SeriesPoint{Label: e.Label, Date: d, Value: model.ParseNumber(e.Value)})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// SelectedSeries resolves the selected country's series for the line metric.
func SelectedSeries(ds *model.Dataset, p model.Params, trailing int) (model.Record, []SeriesPoint, error) {
	country, ok := p.SelectedCountry.Get()
	if !ok {
		return model.Record{}, nil, ErrNoSelection
	}
	rec, ok := ds.FindCountry(country)
	if !ok {
		return model.Record{}, nil, fmt.Errorf("%w: %q", ErrCountryNotFound, country)
	}
	row := rec.Row(p.Line)
	if row == nil {
		return rec, nil, fmt.Errorf("%w: %s for %q", ErrMissingMetric, p.Line, country)
	}
	return rec, Series(row, trailing), nil
}

// UpdateLine replaces the line scene with a single path for the selected
// country. On error the previous scene is returned unchanged.
func UpdateLine(prev *Scene, ds *model.Dataset, p model.Params, g Geometry, sc LineScales, trailing int) (*Scene, Diff, error) {
	defer metrics.Timer(metrics.LineUpdate)()

	rec, series, err := SelectedSeries(ds, p, trailing)
	if err != nil {
		return prev, Diff{}, err
	}

	values := make([]float64, len(series))
	for i, sp := range series {
		values[i] = sp.Value
	}
	if len(series) > 0 {
		sc.X.SetDomain(series[0].Date, series[len(series)-1].Date)
	} else {
		sc.X.SetDomain(time.Time{}, time.Time{})
	}
	sc.Y.SetDomain(scale.Extent(values))

	path := Mark{
		Key:         "path:" + rec.Key(),
		Shape:       ShapePath,
		Fill:        "none",
		Stroke:      LineStroke,
		StrokeWidth: LineStrokeWidth,
		Opacity:     1,
		Title:       rec.Country,
		Region:      rec.Region,
		Points:      make([]Point, len(series)),
	}
	for i, sp := range series {
		path.Points[i] = Point{X: sc.X.Map(sp.Date), Y: sc.Y.Map(sp.Value), Label: sp.Label, Value: sp.Value}
	}

	next := &Scene{
		Kind:   KindLine,
		Width:  g.Width,
		Height: g.Height,
		Title:  rec.Country,
		Marks:  []Mark{path},
	}
	next.XAxis = timeAxis(AxisBottom, g.Height-g.Margin, sc.X)
	next.YAxis = linearAxis(AxisLeft, g.Margin*2, sc.Y)

	// The previous path is always removed and a fresh one appended.
	return next, Diff{Enter: next.Keys(), Exit: prev.Keys()}, nil
}
