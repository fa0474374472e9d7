package scale

import (
	"math"
	"testing"
	"time"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// ============================================================================
// Extent
// ============================================================================

func TestExtent(t *testing.T) {
	tests := []struct {
		name   string
		in     []float64
		lo, hi float64
		nan    bool
	}{
		{"clean", []float64{3, -1, 7, 2}, -1, 7, false},
		{"single", []float64{5}, 5, 5, false},
		{"empty", nil, 0, 0, true},
		{"nan propagates", []float64{1, math.NaN(), 9}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := Extent(tt.in)
			if tt.nan {
				if !math.IsNaN(lo) || !math.IsNaN(hi) {
					t.Errorf("Extent(%v) = [%v, %v], want [NaN, NaN]", tt.in, lo, hi)
				}
				return
			}
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("Extent(%v) = [%v, %v], want [%v, %v]", tt.in, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

// ============================================================================
// Linear
// ============================================================================

func TestLinearMap(t *testing.T) {
	s := NewLinear(60, 970).SetDomain(0, 10)
	cases := map[float64]float64{0: 60, 10: 970, 5: 515, -10: -850}
	for in, want := range cases {
		if got := s.Map(in); !approx(got, want) {
			t.Errorf("Map(%v) = %v, want %v", in, got, want)
		}
	}
	if got := s.Invert(515); !approx(got, 5) {
		t.Errorf("Invert(515) = %v, want 5", got)
	}
}

func TestLinearInvertedRange(t *testing.T) {
	s := NewLinear(470, 30).SetDomain(0, 100)
	if got := s.Map(0); got != 470 {
		t.Errorf("Map(0) = %v, want 470", got)
	}
	if got := s.Map(100); got != 30 {
		t.Errorf("Map(100) = %v, want 30", got)
	}
}

func TestLinearDegenerateAndNaN(t *testing.T) {
	s := NewLinear(0, 100).SetDomain(4, 4)
	if got := s.Map(4); got != 50 {
		t.Errorf("degenerate domain Map = %v, want midpoint 50", got)
	}
	if got := s.Map(1000); got != 50 {
		t.Errorf("degenerate domain Map(1000) = %v, want 50", got)
	}

	s.SetDomain(math.NaN(), math.NaN())
	if got := s.Map(4); !math.IsNaN(got) {
		t.Errorf("NaN domain Map = %v, want NaN", got)
	}

	s.SetDomain(0, 10)
	if got := s.Map(math.NaN()); !math.IsNaN(got) {
		t.Errorf("Map(NaN) = %v, want NaN", got)
	}
}

func TestTicks(t *testing.T) {
	tests := []struct {
		start, stop float64
		count       int
		want        []float64
	}{
		{0, 1, 10, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}},
		{0, 10, 5, []float64{0, 2, 4, 6, 8, 10}},
		{1, 9, 2, []float64{5}},
		{-3, 17, 4, []float64{0, 5, 10, 15}},
		{10, 0, 5, []float64{10, 8, 6, 4, 2, 0}},
		{2, 2, 5, []float64{2}},
	}
	for _, tt := range tests {
		got := Ticks(tt.start, tt.stop, tt.count)
		if len(got) != len(tt.want) {
			t.Errorf("Ticks(%v, %v, %d) = %v, want %v", tt.start, tt.stop, tt.count, got, tt.want)
			continue
		}
		for i := range got {
			if !approx(got[i], tt.want[i]) {
				t.Errorf("Ticks(%v, %v, %d) = %v, want %v", tt.start, tt.stop, tt.count, got, tt.want)
				break
			}
		}
	}
	if got := Ticks(math.NaN(), 1, 5); got != nil {
		t.Errorf("NaN ticks = %v, want nil", got)
	}
}

func TestTickStep(t *testing.T) {
	if got := TickStep(0, 1, 10); got != 0.1 {
		t.Errorf("TickStep(0, 1, 10) = %v, want 0.1", got)
	}
	if got := TickStep(10, 0, 5); got != 2 {
		t.Errorf("TickStep(10, 0, 5) = %v, want 2", got)
	}
	if got := TickStep(3, 3, 5); got != 0 {
		t.Errorf("degenerate TickStep = %v, want 0", got)
	}
}

// ============================================================================
// Band
// ============================================================================

func TestBandGeometry(t *testing.T) {
	b := NewBand(60, 470).SetDomain([]string{"A", "B"})

	step := 410 / 2.1
	if !approx(b.Step(), step) {
		t.Errorf("Step = %v, want %v", b.Step(), step)
	}
	if !approx(b.Bandwidth(), step*0.9) {
		t.Errorf("Bandwidth = %v, want %v", b.Bandwidth(), step*0.9)
	}
	start := 60 + (410-step*1.9)*0.5
	if x, ok := b.Map("A"); !ok || !approx(x, start) {
		t.Errorf("Map(A) = %v, %v; want %v", x, ok, start)
	}
	if x, ok := b.Map("B"); !ok || !approx(x, start+step) {
		t.Errorf("Map(B) = %v, %v; want %v", x, ok, start+step)
	}
	if _, ok := b.Map("C"); ok {
		t.Error("Map(C) should report unknown key")
	}

	// Bands stay inside the range and symmetric padding leaves equal margins.
	xa, _ := b.Map("A")
	xb, _ := b.Map("B")
	left := xa - 60
	right := 470 - (xb + b.Bandwidth())
	if !approx(left, right) {
		t.Errorf("outer margins differ: left %v right %v", left, right)
	}
}

func TestBandDuplicateKeys(t *testing.T) {
	b := NewBand(0, 100).SetDomain([]string{"x", "y", "x"})
	if got := b.Domain(); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Domain = %v, want [x y]", got)
	}
}

func TestBandReversedRange(t *testing.T) {
	b := NewBand(100, 0).SetPadding(0).SetDomain([]string{"a", "b"})
	if x, _ := b.Map("a"); !approx(x, 50) {
		t.Errorf("Map(a) = %v, want 50", x)
	}
	if x, _ := b.Map("b"); !approx(x, 0) {
		t.Errorf("Map(b) = %v, want 0", x)
	}
}

// ============================================================================
// Ordinal, Sqrt, Time
// ============================================================================

func TestOrdinalImplicitDomain(t *testing.T) {
	o := NewOrdinal("#DD4949", "#39CDA1", "#FD710C", "#A14BE5")
	if got := o.Map("asia"); got != "#DD4949" {
		t.Errorf("Map(asia) = %s", got)
	}
	if got := o.Map("europe"); got != "#39CDA1" {
		t.Errorf("Map(europe) = %s", got)
	}
	if got := o.Map("asia"); got != "#DD4949" {
		t.Errorf("second Map(asia) = %s, assignment changed", got)
	}
	for _, k := range []string{"africa", "americas", "oceania"} {
		o.Map(k)
	}
	if got := o.Map("oceania"); got != "#DD4949" {
		t.Errorf("fifth key should cycle to the first color, got %s", got)
	}
	if got := NewOrdinal().Map("x"); got != "" {
		t.Errorf("empty palette Map = %q", got)
	}
}

func TestSqrt(t *testing.T) {
	s := NewSqrt(10, 30).SetDomain(0, 100)
	if got := s.Map(25); !approx(got, 20) {
		t.Errorf("Map(25) = %v, want 20", got)
	}
	if got := s.Map(100); !approx(got, 30) {
		t.Errorf("Map(100) = %v, want 30", got)
	}
	if got := s.Map(math.NaN()); !math.IsNaN(got) {
		t.Errorf("Map(NaN) = %v, want NaN", got)
	}
	if d0, d1 := s.Domain(); d0 != 0 || d1 != 100 {
		t.Errorf("Domain = [%v, %v]", d0, d1)
	}
}

func TestTimeScale(t *testing.T) {
	d0 := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewTime(60, 970).SetDomain(d0, d1)
	if got := s.Map(d0); got != 60 {
		t.Errorf("Map(d0) = %v", got)
	}
	if got := s.Map(d1); got != 970 {
		t.Errorf("Map(d1) = %v", got)
	}
	mid := d0.Add(d1.Sub(d0) / 2)
	if got := s.Map(mid); !approx(got, 515) {
		t.Errorf("Map(mid) = %v, want 515", got)
	}

	ticks := s.YearTicks(4)
	if len(ticks) == 0 || ticks[0].Year() != 1990 || ticks[len(ticks)-1].Year() != 2010 {
		t.Errorf("YearTicks = %v", ticks)
	}
}
