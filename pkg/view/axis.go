package view

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/vanderheijden86/gapview/pkg/scale"
)

// DefaultTickCount is the approximate number of ticks on continuous axes.
const DefaultTickCount = 10

// Orientation places an axis.
type Orientation string

const (
	AxisBottom Orientation = "bottom"
	AxisLeft   Orientation = "left"
)

// Tick is one labelled position along an axis.
type Tick struct {
	Pos   float64
	Label string
}

// Axis is a resolved axis: Offset is the y of a bottom axis or the x of a
// left axis, From and To the extent of the axis line.
type Axis struct {
	Orient Orientation
	Offset float64
	From   float64
	To     float64
	Ticks  []Tick
}

func linearAxis(o Orientation, offset float64, s *scale.Linear) Axis {
	r0, r1 := s.Range()
	a := Axis{Orient: o, Offset: offset, From: r0, To: r1}
	d0, d1 := s.Domain()
	step := scale.TickStep(d0, d1, DefaultTickCount)
	for _, v := range s.Ticks(DefaultTickCount) {
		a.Ticks = append(a.Ticks, Tick{Pos: s.Map(v), Label: FormatTick(v, step)})
	}
	return a
}

func bandAxis(o Orientation, offset float64, b *scale.Band, r0, r1 float64) Axis {
	a := Axis{Orient: o, Offset: offset, From: r0, To: r1}
	for _, k := range b.Domain() {
		x, _ := b.Map(k)
		a.Ticks = append(a.Ticks, Tick{Pos: x + b.Bandwidth()/2, Label: k})
	}
	return a
}

func timeAxis(o Orientation, offset float64, s *scale.Time) Axis {
	r0, r1 := s.Range()
	a := Axis{Orient: o, Offset: offset, From: r0, To: r1}
	for _, t := range s.YearTicks(DefaultTickCount) {
		a.Ticks = append(a.Ticks, Tick{Pos: s.Map(t), Label: strconv.Itoa(t.Year())})
	}
	return a
}

// FormatTick formats v with the precision implied by the tick step and
// groups thousands with commas.
func FormatTick(v, step float64) string {
	prec := 0
	if step > 0 && step < 1 {
		if _, frac, ok := strings.Cut(strconv.FormatFloat(step, 'f', -1, 64), "."); ok {
			prec = min(len(frac), 9)
		}
	}
	return humanize.FormatFloat("#,###."+strings.Repeat("#", prec), v)
}
