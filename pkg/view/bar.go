package view

import (
	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/gapview/pkg/metrics"
	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/scale"
)

// Opacities applied when a region is highlighted.
const (
	BarOpacityHighlighted = 1.0
	BarOpacityDimmed      = 0.4
)

// BarScales are the scales the bar view rebinds.
type BarScales struct {
	X     *scale.Band
	Y     *scale.Linear
	Color *scale.Ordinal
}

// RegionMean is one aggregated bar.
type RegionMean struct {
	Region string  `json:"region"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// Aggregate groups records by region in first-appearance order and averages
// the metric's value for year within each group. A NaN value makes its
// region's mean NaN.
func Aggregate(records []model.Record, m model.Metric, year string) []RegionMean {
	var order []string
	groups := make(map[string][]float64)
	for _, rec := range records {
		if _, seen := groups[rec.Region]; !seen {
			order = append(order, rec.Region)
		}
		groups[rec.Region] = append(groups[rec.Region], rec.Number(m, year))
	}

	out := make([]RegionMean, 0, len(order))
	for _, region := range order {
		vals := groups[region]
		out = append(out, RegionMean{Region: region, Mean: stat.Mean(vals, nil), Count: len(vals)})
	}
	return out
}

// UpdateBar rebinds the bar scales and rebuilds the bar scene, one rect per
// region keyed by region name.
func UpdateBar(prev *Scene, ds *model.Dataset, p model.Params, g Geometry, sc BarScales) (*Scene, Diff) {
	defer metrics.Timer(metrics.BarUpdate)()

	var records []model.Record
	if ds != nil {
		records = ds.Records
	}
	means := Aggregate(records, p.Bar, p.Year)

	keys := make([]string, len(means))
	values := make([]float64, len(means))
	for i, rm := range means {
		keys[i] = rm.Region
		values[i] = rm.Mean
	}
	sc.X.SetDomain(keys)
	sc.Y.SetDomain(0, scale.Max(values))

	highlighted, hasHighlight := p.HighlightedRegion.Get()
	next := &Scene{
		Kind:   KindBar,
		Width:  g.BarWidth,
		Height: g.Height,
		Title:  p.Bar.Label() + " by region, " + p.Year,
		Marks:  make([]Mark, 0, len(means)),
	}
	for _, rm := range means {
		x, _ := sc.X.Map(rm.Region)
		y := sc.Y.Map(rm.Mean)
		opacity := 1.0
		if hasHighlight {
			opacity = BarOpacityDimmed
			if rm.Region == highlighted {
				opacity = BarOpacityHighlighted
			}
		}
		next.Marks = append(next.Marks, Mark{
			Key:     rm.Region,
			Shape:   ShapeRect,
			X:       x,
			Y:       y,
			Width:   sc.X.Bandwidth(),
			Height:  g.Height - g.Margin - y,
			Fill:    sc.Color.Map(rm.Region),
			Opacity: opacity,
			Title:   rm.Region,
			Region:  rm.Region,
			Value:   rm.Mean,
		})
	}

	r0, r1 := sc.X.Range()
	next.XAxis = bandAxis(AxisBottom, g.Height-g.Margin, sc.X, r0, r1)
	next.YAxis = linearAxis(AxisLeft, g.Margin*2, sc.Y)
	return next, Reconcile(prev, next)
}
