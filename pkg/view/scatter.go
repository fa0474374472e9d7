package view

import (
	"github.com/vanderheijden86/gapview/pkg/metrics"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/scale"
)

// Circle styling.
const (
	ScatterStroke              = "#333333"
	StrokeWidthSelected        = 2.0
	StrokeWidthDefault         = 1.0
	ScatterOpacityHighlighted  = 0.6
	ScatterOpacityOtherRegions = 0.0
)

// ScatterScales are the scales the scatter view rebinds.
type ScatterScales struct {
	X      *scale.Linear
	Y      *scale.Linear
	Radius *scale.Sqrt
	Color  *scale.Ordinal
}

// UpdateScatter rebinds the x, y and radius domains to the extents of the
// selected metrics for the selected year and rebuilds one circle per record.
// Circles of the selected country are drawn last.
func UpdateScatter(prev *Scene, ds *model.Dataset, p model.Params, g Geometry, sc ScatterScales) (*Scene, Diff) {
	defer metrics.Timer(metrics.ScatterUpdate)()

	var records []model.Record
	if ds != nil {
		records = ds.Records
	}
	xs := make([]float64, len(records))
	ys := make([]float64, len(records))
	rs := make([]float64, len(records))
	for i, rec := range records {
		xs[i] = rec.Number(p.X, p.Year)
		ys[i] = rec.Number(p.Y, p.Year)
		rs[i] = rec.Number(p.Radius, p.Year)
	}
	sc.X.SetDomain(scale.Extent(xs))
	sc.Y.SetDomain(scale.Extent(ys))
	sc.Radius.SetDomain(scale.Extent(rs))

	selected, hasSelection := p.SelectedCountry.Get()
	highlighted, hasHighlight := p.HighlightedRegion.Get()

	marks := make([]Mark, 0, len(records))
	var raised []Mark
	for i, rec := range records {
		m := Mark{
			Key:         rec.Key(),
			Shape:       ShapeCircle,
			X:           sc.X.Map(xs[i]),
			Y:           sc.Y.Map(ys[i]),
			R:           sc.Radius.Map(rs[i]),
			Fill:        sc.Color.Map(rec.Region),
			Stroke:      ScatterStroke,
			StrokeWidth: StrokeWidthDefault,
			Opacity:     1,
			Title:       rec.Country,
			Region:      rec.Region,
			Value:       rs[i],
		}
		if hasHighlight {
			m.Opacity = ScatterOpacityOtherRegions
			if rec.Region == highlighted {
				m.Opacity = ScatterOpacityHighlighted
			}
		}
		if hasSelection && rec.Country == selected {
			m.StrokeWidth = StrokeWidthSelected
			raised = append(raised, m)
			continue
		}
		marks = append(marks, m)
	}
	marks = append(marks, raised...)

	next := &Scene{
		Kind:   KindScatter,
		Width:  g.Width,
		Height: g.Height,
		Title:  p.X.Label() + " vs " + p.Y.Label() + ", " + p.Year,
		Marks:  marks,
	}
	next.XAxis = linearAxis(AxisBottom, g.Height-g.Margin, sc.X)
	next.YAxis = linearAxis(AxisLeft, g.Margin*2, sc.Y)
	return next, Reconcile(prev, next)
}
