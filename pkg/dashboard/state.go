package dashboard

import (
	"math"
	"strconv"

	"github.com/vanderheijden86/gapview/pkg/model"
	"github.com/vanderheijden86/gapview/pkg/view"
)

// Float is a float64 that encodes NaN and infinities as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// ParamsState is the JSON form of model.Params.
type ParamsState struct {
	Year              string  `json:"year"`
	X                 string  `json:"x"`
	Y                 string  `json:"y"`
	Radius            string  `json:"radius"`
	Bar               string  `json:"bar"`
	Line              string  `json:"line"`
	SelectedCountry   *string `json:"selected_country"`
	HighlightedRegion *string `json:"highlighted_region"`
}

// BarState is one bar of the bar view.
type BarState struct {
	Region  string `json:"region"`
	Mean    Float  `json:"mean"`
	Count   int    `json:"count"`
	Color   string `json:"color"`
	Opacity Float  `json:"opacity"`
}

// CircleState is one circle of the scatter view, in draw order.
type CircleState struct {
	Key         string `json:"key"`
	Country     string `json:"country"`
	Region      string `json:"region"`
	CX          Float  `json:"cx"`
	CY          Float  `json:"cy"`
	R           Float  `json:"r"`
	StrokeWidth Float  `json:"stroke_width"`
	Opacity     Float  `json:"opacity"`
}

// LinePoint is one vertex of the line view.
type LinePoint struct {
	Label string `json:"label"`
	Value Float  `json:"value"`
}

// LineState is the line view, present when a country is selected.
type LineState struct {
	Country string      `json:"country"`
	Metric  string      `json:"metric"`
	Points  []LinePoint `json:"points"`
}

// State is a machine-readable snapshot of the dashboard.
type State struct {
	Records   int                 `json:"records"`
	Regions   []string            `json:"regions"`
	Years     []string            `json:"years"`
	Params    ParamsState         `json:"params"`
	Bars      []BarState          `json:"bars"`
	Circles   []CircleState       `json:"circles"`
	Line      *LineState          `json:"line,omitempty"`
	Unmatched map[string][]string `json:"unmatched,omitempty"`
}

func optional(s model.Selection) *string {
	if v, ok := s.Get(); ok {
		return &v
	}
	return nil
}

// State returns a snapshot of the current state and scenes.
func (c *Controller) State() State {
	p := c.params
	st := State{
		Records: c.ds.Len(),
		Regions: c.ds.Regions,
		Years:   c.ds.Years,
		Params: ParamsState{
			Year:              p.Year,
			X:                 string(p.X),
			Y:                 string(p.Y),
			Radius:            string(p.Radius),
			Bar:               string(p.Bar),
			Line:              string(p.Line),
			SelectedCountry:   optional(p.SelectedCountry),
			HighlightedRegion: optional(p.HighlightedRegion),
		},
	}

	counts := make(map[string]int)
	for _, rm := range view.Aggregate(c.ds.Records, p.Bar, p.Year) {
		counts[rm.Region] = rm.Count
	}
	for _, m := range c.bar.Marks {
		st.Bars = append(st.Bars, BarState{
			Region:  m.Region,
			Mean:    Float(m.Value),
			Count:   counts[m.Region],
			Color:   m.Fill,
			Opacity: Float(m.Opacity),
		})
	}
	for _, m := range c.scatter.Marks {
		st.Circles = append(st.Circles, CircleState{
			Key:         m.Key,
			Country:     m.Title,
			Region:      m.Region,
			CX:          Float(m.X),
			CY:          Float(m.Y),
			R:           Float(m.R),
			StrokeWidth: Float(m.StrokeWidth),
			Opacity:     Float(m.Opacity),
		})
	}
	if c.line != nil && len(c.line.Marks) > 0 {
		path := c.line.Marks[0]
		ls := &LineState{Country: c.line.Title, Metric: string(p.Line)}
		for _, pt := range path.Points {
			ls.Points = append(ls.Points, LinePoint{Label: pt.Label, Value: Float(pt.Value)})
		}
		st.Line = ls
	}
	if len(c.ds.Unmatched) > 0 {
		st.Unmatched = make(map[string][]string, len(c.ds.Unmatched))
		for m, geos := range c.ds.Unmatched {
			st.Unmatched[string(m)] = geos
		}
	}
	return st
}
