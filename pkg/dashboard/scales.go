package dashboard

import (
	"github.com/vanderheijden86/gapview/pkg/scale"
	"github.com/vanderheijden86/gapview/pkg/view"
)

// DefaultPalette is the region color range.
var DefaultPalette = []string{"#DD4949", "#39CDA1", "#FD710C", "#A14BE5"}

// DefaultRadiusRange is the circle radius range in pixels.
var DefaultRadiusRange = [2]float64{10, 30}

// Scales holds every scale the views rebind. Ranges are fixed from the
// geometry at construction; domains are recomputed on every update.
type Scales struct {
	X      *scale.Linear
	Y      *scale.Linear
	Radius *scale.Sqrt
	Color  *scale.Ordinal
	BarX   *scale.Band
	BarY   *scale.Linear
	LineX  *scale.Time
	LineY  *scale.Linear
}

// NewScales lays out the ranges: plot areas start at twice the margin on the
// left, end one margin from the right, and y runs bottom-up.
func NewScales(g view.Geometry, palette []string, radius [2]float64) *Scales {
	left := g.Margin * 2
	bottom := g.Height - g.Margin
	top := g.Margin
	return &Scales{
		X:      scale.NewLinear(left, g.Width-g.Margin),
		Y:      scale.NewLinear(bottom, top),
		Radius: scale.NewSqrt(radius[0], radius[1]),
		Color:  scale.NewOrdinal(palette...),
		BarX:   scale.NewBand(left, g.BarWidth-g.Margin),
		BarY:   scale.NewLinear(bottom, top),
		LineX:  scale.NewTime(left, g.Width-g.Margin),
		LineY:  scale.NewLinear(bottom, top),
	}
}

// Bar returns the scales used by the bar view.
func (s *Scales) Bar() view.BarScales {
	return view.BarScales{X: s.BarX, Y: s.BarY, Color: s.Color}
}

// Scatter returns the scales used by the scatter view.
func (s *Scales) Scatter() view.ScatterScales {
	return view.ScatterScales{X: s.X, Y: s.Y, Radius: s.Radius, Color: s.Color}
}

// Line returns the scales used by the line view.
func (s *Scales) Line() view.LineScales {
	return view.LineScales{X: s.LineX, Y: s.LineY}
}
