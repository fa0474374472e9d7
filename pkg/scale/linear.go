package scale

import "math"

// Linear is a continuous scale with a linear mapping.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear returns a linear scale with range [r0, r1] and domain [0, 1].
func NewLinear(r0, r1 float64) *Linear {
	return &Linear{d0: 0, d1: 1, r0: r0, r1: r1}
}

// SetDomain replaces the domain and returns the scale.
func (s *Linear) SetDomain(d0, d1 float64) *Linear {
	s.d0, s.d1 = d0, d1
	return s
}

// Domain returns the current domain.
func (s *Linear) Domain() (float64, float64) { return s.d0, s.d1 }

// Range returns the output range.
func (s *Linear) Range() (float64, float64) { return s.r0, s.r1 }

// Map returns the range value for v.
func (s *Linear) Map(v float64) float64 {
	return interpolate(s.r0, s.r1, normalize(s.d0, s.d1, v))
}

// Invert returns the domain value for a range value.
func (s *Linear) Invert(y float64) float64 {
	return interpolate(s.d0, s.d1, normalize(s.r0, s.r1, y))
}

// Ticks returns roughly count human-friendly values inside the domain.
func (s *Linear) Ticks(count int) []float64 {
	return Ticks(s.d0, s.d1, count)
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickSpec returns the integer bounds and increment of the tick sequence.
// A negative increment means the ticks are i/-inc rather than i*inc, which
// keeps fractional steps exact.
func tickSpec(start, stop, count float64) (i1, i2, inc float64) {
	step := (stop - start) / math.Max(0, count)
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power < 0 {
		inc = math.Pow(10, -power) / factor
		i1 = math.Round(start * inc)
		i2 = math.Round(stop * inc)
		if i1/inc < start {
			i1++
		}
		if i2/inc > stop {
			i2--
		}
		inc = -inc
	} else {
		inc = math.Pow(10, power) * factor
		i1 = math.Round(start / inc)
		i2 = math.Round(stop / inc)
		if i1*inc < start {
			i1++
		}
		if i2*inc > stop {
			i2--
		}
	}
	if i2 < i1 && 0.5 <= count && count < 2 {
		return tickSpec(start, stop, count*2)
	}
	return i1, i2, inc
}

// TickStep returns the spacing of the values Ticks would return, or 0 when
// there are none.
func TickStep(start, stop float64, count int) float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) || math.IsInf(start, 0) || math.IsInf(stop, 0) || start == stop {
		return 0
	}
	if stop < start {
		start, stop = stop, start
	}
	_, _, inc := tickSpec(start, stop, float64(count))
	if inc < 0 {
		return 1 / -inc
	}
	return inc
}

// Ticks returns roughly count evenly spaced round values in [start, stop],
// using steps of 1, 2 or 5 times a power of ten. The result is in the same
// direction as the arguments. NaN bounds yield no ticks.
func Ticks(start, stop float64, count int) []float64 {
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) || math.IsInf(start, 0) || math.IsInf(stop, 0) {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	i1, i2, inc := tickSpec(start, stop, float64(count))
	if !(i2 >= i1) {
		return nil
	}
	n := int(i2-i1) + 1
	ticks := make([]float64, n)
	for i := 0; i < n; i++ {
		k := i1 + float64(i)
		if inc < 0 {
			ticks[i] = k / -inc
		} else {
			ticks[i] = k * inc
		}
	}
	if reverse {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}
