package model

import "fmt"

// DefaultYear is the year selected at startup.
const DefaultYear = "2000"

// Selection is an optional string value, e.g. the clicked country. The zero
// value means nothing has been selected yet.
type Selection struct {
	value string
	set   bool
}

// Select returns a present Selection holding v.
func Select(v string) Selection {
	return Selection{value: v, set: true}
}

// Get returns the selected value and whether one is present.
func (s Selection) Get() (string, bool) {
	return s.value, s.set
}

// IsSet reports whether a value is present.
func (s Selection) IsSet() bool {
	return s.set
}

// Is reports whether the selection is present and equals v.
func (s Selection) Is(v string) bool {
	return s.set && s.value == v
}

func (s Selection) String() string {
	if !s.set {
		return "<none>"
	}
	return s.value
}

// Params is the dashboard parameter state. It is owned by the controller and
// passed by value to the view updaters.
type Params struct {
	Year   string
	X      Metric
	Y      Metric
	Radius Metric
	Bar    Metric
	Line   Metric

	SelectedCountry   Selection
	HighlightedRegion Selection
}

// DefaultParams returns the startup parameter state.
func DefaultParams() Params {
	return Params{
		Year:   DefaultYear,
		X:      MetricFertilityRate,
		Y:      MetricChildMortality,
		Radius: MetricGDP,
		Bar:    MetricChildMortality,
		Line:   MetricGDP,
	}
}

// Validate checks that every metric selector holds a known metric.
func (p Params) Validate() error {
	for name, m := range map[string]Metric{
		"x": p.X, "y": p.Y, "radius": p.Radius, "bar": p.Bar, "line": p.Line,
	} {
		if !m.IsValid() {
			return fmt.Errorf("%s metric: %w %q", name, ErrUnknownMetric, m)
		}
	}
	if p.Year == "" {
		return fmt.Errorf("year is required")
	}
	return nil
}
