package scale

import "math"

// DefaultPadding is the inner and outer padding of bar chart bands.
const DefaultPadding = 0.1

// Band divides a continuous range into uniform bands, one per category.
type Band struct {
	keys         []string
	index        map[string]int
	r0, r1       float64
	paddingInner float64
	paddingOuter float64
	align        float64

	step      float64
	bandwidth float64
	starts    []float64
}

// NewBand returns a band scale over range [r0, r1] with DefaultPadding and
// centered alignment. The domain is empty until SetDomain is called.
func NewBand(r0, r1 float64) *Band {
	b := &Band{
		r0:           r0,
		r1:           r1,
		paddingInner: DefaultPadding,
		paddingOuter: DefaultPadding,
		align:        0.5,
		index:        map[string]int{},
	}
	b.rescale()
	return b
}

// SetPadding sets inner and outer padding (clamped to [0, 1]).
func (b *Band) SetPadding(p float64) *Band {
	b.paddingInner = math.Min(1, math.Max(0, p))
	b.paddingOuter = b.paddingInner
	b.rescale()
	return b
}

// SetDomain replaces the categories. Duplicate keys keep their first slot.
func (b *Band) SetDomain(keys []string) *Band {
	b.keys = b.keys[:0]
	b.index = make(map[string]int, len(keys))
	for _, k := range keys {
		if _, dup := b.index[k]; dup {
			continue
		}
		b.index[k] = len(b.keys)
		b.keys = append(b.keys, k)
	}
	b.rescale()
	return b
}

// Domain returns a copy of the categories.
func (b *Band) Domain() []string {
	return append([]string(nil), b.keys...)
}

func (b *Band) rescale() {
	n := float64(len(b.keys))
	reverse := b.r1 < b.r0
	start, stop := b.r0, b.r1
	if reverse {
		start, stop = stop, start
	}
	b.step = (stop - start) / math.Max(1, n-b.paddingInner+b.paddingOuter*2)
	start += (stop - start - b.step*(n-b.paddingInner)) * b.align
	b.bandwidth = b.step * (1 - b.paddingInner)

	b.starts = make([]float64, len(b.keys))
	for i := range b.starts {
		b.starts[i] = start + b.step*float64(i)
	}
	if reverse {
		for i, j := 0, len(b.starts)-1; i < j; i, j = i+1, j-1 {
			b.starts[i], b.starts[j] = b.starts[j], b.starts[i]
		}
	}
}

// Map returns the start of key's band and whether key is in the domain.
func (b *Band) Map(key string) (float64, bool) {
	i, ok := b.index[key]
	if !ok {
		return math.NaN(), false
	}
	return b.starts[i], true
}

// Range returns the output range.
func (b *Band) Range() (float64, float64) { return b.r0, b.r1 }

// Bandwidth returns the width of each band.
func (b *Band) Bandwidth() float64 { return b.bandwidth }

// Step returns the distance between the starts of adjacent bands.
func (b *Band) Step() float64 { return b.step }
