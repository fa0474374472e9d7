// Package view turns the dataset and the current parameters into scenes:
// flat lists of keyed marks (bars, circles, one line path) with resolved
// pixel geometry and style. Each updater also reports how the new scene
// differs from the previous one, keyed by mark identity, so hosts can animate
// entering, updated and exiting marks.
package view

import (
	"errors"
	"math"
)

// Sentinel errors returned by UpdateLine.
var (
	ErrNoSelection     = errors.New("no country selected")
	ErrCountryNotFound = errors.New("country not found")
	ErrMissingMetric   = errors.New("metric has no row for country")
)

// Geometry is the fixed canvas layout shared by the three views.
type Geometry struct {
	Width    float64 `yaml:"width" json:"width"`
	BarWidth float64 `yaml:"bar_width" json:"bar_width"`
	Height   float64 `yaml:"height" json:"height"`
	Margin   float64 `yaml:"margin" json:"margin"`
}

// DefaultGeometry returns the standard 1000x500 layout with a 500 wide bar
// chart and a margin of 30.
func DefaultGeometry() Geometry {
	return Geometry{Width: 1000, BarWidth: 500, Height: 500, Margin: 30}
}

// Kind identifies a view.
type Kind string

const (
	KindBar     Kind = "bar"
	KindScatter Kind = "scatter"
	KindLine    Kind = "line"
)

// Shape is the geometric primitive of a mark.
type Shape string

const (
	ShapeRect   Shape = "rect"
	ShapeCircle Shape = "circle"
	ShapePath   Shape = "path"
)

// Point is one vertex of a path mark.
type Point struct {
	X, Y  float64
	Label string
	Value float64
}

// Mark is one drawable element. Rects use X, Y, Width and Height; circles
// use X, Y as the center and R; paths use Points.
type Mark struct {
	Key         string
	Shape       Shape
	X, Y        float64
	Width       float64
	Height      float64
	R           float64
	Points      []Point
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
	Title       string
	Region      string
	Value       float64
}

// Finite reports whether the mark's geometry can be drawn.
func (m Mark) Finite() bool {
	switch m.Shape {
	case ShapeRect:
		return finite(m.X, m.Y, m.Width, m.Height)
	case ShapeCircle:
		return finite(m.X, m.Y, m.R)
	case ShapePath:
		for _, p := range m.Points {
			if finite(p.X, p.Y) {
				return true
			}
		}
	}
	return false
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Scene is the full content of one view, marks in draw order.
type Scene struct {
	Kind   Kind
	Width  float64
	Height float64
	Title  string
	Marks  []Mark
	XAxis  Axis
	YAxis  Axis
}

// Mark returns the mark with the given key.
func (s *Scene) Mark(key string) (Mark, bool) {
	if s == nil {
		return Mark{}, false
	}
	for _, m := range s.Marks {
		if m.Key == key {
			return m, true
		}
	}
	return Mark{}, false
}

// Keys returns the mark keys in draw order.
func (s *Scene) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.Marks))
	for i, m := range s.Marks {
		keys[i] = m.Key
	}
	return keys
}

// Diff lists mark keys by reconciliation outcome.
type Diff struct {
	Enter  []string `json:"enter,omitempty"`
	Update []string `json:"update,omitempty"`
	Exit   []string `json:"exit,omitempty"`
}

// Empty reports whether nothing changed membership or was restyled.
func (d Diff) Empty() bool {
	return len(d.Enter) == 0 && len(d.Update) == 0 && len(d.Exit) == 0
}

// Reconcile diffs two scenes by mark key. Keys only in next enter, keys in
// both update, keys only in prev exit. Enter and Update follow next's draw
// order, Exit follows prev's.
func Reconcile(prev, next *Scene) Diff {
	var d Diff
	had := make(map[string]bool)
	if prev != nil {
		for _, m := range prev.Marks {
			had[m.Key] = true
		}
	}
	has := make(map[string]bool)
	if next != nil {
		for _, m := range next.Marks {
			has[m.Key] = true
			if had[m.Key] {
				d.Update = append(d.Update, m.Key)
			} else {
				d.Enter = append(d.Enter, m.Key)
			}
		}
	}
	if prev != nil {
		for _, m := range prev.Marks {
			if !has[m.Key] {
				d.Exit = append(d.Exit, m.Key)
			}
		}
	}
	return d
}
