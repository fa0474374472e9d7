package scale

// Ordinal maps categories to a cycled palette. The domain is implicit: a key
// seen for the first time is appended, so once a key has a value it keeps it
// for the lifetime of the scale.
type Ordinal struct {
	keys    []string
	index   map[string]int
	palette []string
}

// NewOrdinal returns an ordinal scale over the given palette.
func NewOrdinal(palette ...string) *Ordinal {
	return &Ordinal{palette: append([]string(nil), palette...), index: map[string]int{}}
}

// Map returns the palette entry for key, assigning the next slot to keys not
// yet in the domain. An empty palette yields "".
func (o *Ordinal) Map(key string) string {
	i, ok := o.index[key]
	if !ok {
		i = len(o.keys)
		o.index[key] = i
		o.keys = append(o.keys, key)
	}
	if len(o.palette) == 0 {
		return ""
	}
	return o.palette[i%len(o.palette)]
}

// Domain returns the keys in assignment order.
func (o *Ordinal) Domain() []string {
	return append([]string(nil), o.keys...)
}

// Palette returns a copy of the range.
func (o *Ordinal) Palette() []string {
	return append([]string(nil), o.palette...)
}
