package scale

import (
	"math"
	"time"
)

// Time is a linear scale over instants, interpolated in Unix milliseconds.
type Time struct {
	lin    Linear
	d0, d1 time.Time
}

// NewTime returns a time scale with range [r0, r1].
func NewTime(r0, r1 float64) *Time {
	return &Time{lin: Linear{d0: 0, d1: 1, r0: r0, r1: r1}}
}

// SetDomain replaces the domain and returns the scale.
func (s *Time) SetDomain(d0, d1 time.Time) *Time {
	s.d0, s.d1 = d0, d1
	s.lin.SetDomain(float64(d0.UnixMilli()), float64(d1.UnixMilli()))
	return s
}

// Domain returns the current domain.
func (s *Time) Domain() (time.Time, time.Time) { return s.d0, s.d1 }

// Range returns the output range.
func (s *Time) Range() (float64, float64) { return s.lin.Range() }

// Map returns the range value for t.
func (s *Time) Map(t time.Time) float64 {
	return s.lin.Map(float64(t.UnixMilli()))
}

// YearTicks returns roughly count January-first instants inside the domain.
func (s *Time) YearTicks(count int) []time.Time {
	y0 := float64(s.d0.Year())
	if s.d0.After(time.Date(s.d0.Year(), 1, 1, 0, 0, 0, 0, s.d0.Location())) {
		y0++
	}
	y1 := float64(s.d1.Year())
	var out []time.Time
	for _, y := range Ticks(y0, y1, count) {
		if y != math.Trunc(y) {
			continue
		}
		out = append(out, time.Date(int(y), 1, 1, 0, 0, 0, 0, time.UTC))
	}
	return out
}
