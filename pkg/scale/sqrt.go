package scale

import "math"

// Sqrt is a power scale with exponent 0.5, used for circle radii so that
// area grows linearly with the value.
type Sqrt struct {
	lin Linear
	d0  float64
	d1  float64
}

// NewSqrt returns a sqrt scale with range [r0, r1] and domain [0, 1].
func NewSqrt(r0, r1 float64) *Sqrt {
	return &Sqrt{lin: Linear{d0: 0, d1: 1, r0: r0, r1: r1}, d0: 0, d1: 1}
}

func signedSqrt(x float64) float64 {
	if x < 0 {
		return -math.Sqrt(-x)
	}
	return math.Sqrt(x)
}

// SetDomain replaces the domain and returns the scale.
func (s *Sqrt) SetDomain(d0, d1 float64) *Sqrt {
	s.d0, s.d1 = d0, d1
	s.lin.SetDomain(signedSqrt(d0), signedSqrt(d1))
	return s
}

// Domain returns the current (untransformed) domain.
func (s *Sqrt) Domain() (float64, float64) { return s.d0, s.d1 }

// Range returns the output range.
func (s *Sqrt) Range() (float64, float64) { return s.lin.Range() }

// Map returns the range value for v.
func (s *Sqrt) Map(v float64) float64 {
	return s.lin.Map(signedSqrt(v))
}
