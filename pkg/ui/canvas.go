package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/gapview/pkg/view"
)

// Glyphs used by the rasterizer.
const (
	glyphBar         = '█'
	glyphBarDimmed   = '░'
	glyphCircle      = '●'
	glyphSelected    = '◉'
	glyphPath        = '•'
	glyphAxisH       = '─'
	glyphAxisV       = '│'
	glyphAxisCorner  = '└'
	glyphTickH       = '┬'
	glyphTickV       = '┤'
	glyphCursor      = '▲'
	glyphCursorPoint = '◆'
)

type cell struct {
	r     rune
	color string // scene color; empty means default foreground
	muted bool
	focus bool
}

// Canvas is a character grid a scene is rasterized into. Pixel coordinates
// are scaled independently on each axis to fit the grid.
type Canvas struct {
	cols, rows int
	sx, sy     float64
	cells      [][]cell
}

// NewCanvas allocates a blank grid for a scene of the given pixel size.
func NewCanvas(cols, rows int, width, height float64) *Canvas {
	cols = max(cols, 1)
	rows = max(rows, 1)
	c := &Canvas{cols: cols, rows: rows}
	if width > 0 {
		c.sx = float64(cols) / width
	}
	if height > 0 {
		c.sy = float64(rows) / height
	}
	c.cells = make([][]cell, rows)
	for i := range c.cells {
		c.cells[i] = make([]cell, cols)
		for j := range c.cells[i] {
			c.cells[i][j].r = ' '
		}
	}
	return c
}

// Rasterize draws scene into a cols x rows grid. Marks with non-finite
// geometry and fully transparent marks are skipped.
func Rasterize(s *view.Scene, cols, rows int) *Canvas {
	c := NewCanvas(cols, rows, s.Width, s.Height)
	c.axis(s.XAxis)
	c.axis(s.YAxis)
	for _, m := range s.Marks {
		if !m.Finite() || m.Opacity <= 0 {
			continue
		}
		switch m.Shape {
		case view.ShapeRect:
			c.rect(m)
		case view.ShapeCircle:
			r := glyphCircle
			if m.StrokeWidth >= view.StrokeWidthSelected {
				r = glyphSelected
			}
			col, row := c.cell(m.X, m.Y)
			c.set(col, row, cell{r: r, color: m.Fill})
		case view.ShapePath:
			c.path(m)
		}
	}
	return c
}

// Size returns the grid dimensions.
func (c *Canvas) Size() (cols, rows int) {
	return c.cols, c.rows
}

func (c *Canvas) cell(x, y float64) (int, int) {
	col := int(math.Floor(x * c.sx))
	row := int(math.Floor(y * c.sy))
	return clamp(col, 0, c.cols-1), clamp(row, 0, c.rows-1)
}

// edge maps an exclusive far corner to grid coordinates, clamped to the
// grid size rather than the last cell.
func (c *Canvas) edge(x, y float64) (int, int) {
	col := int(math.Floor(x * c.sx))
	row := int(math.Floor(y * c.sy))
	return clamp(col, 0, c.cols), clamp(row, 0, c.rows)
}

func (c *Canvas) set(col, row int, v cell) {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		return
	}
	c.cells[row][col] = v
}

func (c *Canvas) at(col, row int) cell {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		return cell{}
	}
	return c.cells[row][col]
}

func (c *Canvas) rect(m view.Mark) {
	r := glyphBar
	if m.Opacity < 1 {
		r = glyphBarDimmed
	}
	c0, r0 := c.cell(m.X, m.Y)
	c1, r1 := c.edge(m.X+m.Width, m.Y+m.Height)
	// Rects at least a pixel wide stay visible.
	if c1 == c0 && m.Width > 0 {
		c1 = c0 + 1
	}
	for row := r0; row < max(r1, r0+1); row++ {
		for col := c0; col < c1; col++ {
			c.set(col, row, cell{r: r, color: m.Fill})
		}
	}
}

func (c *Canvas) path(m view.Mark) {
	var prev *view.Point
	for i := range m.Points {
		p := &m.Points[i]
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			prev = nil
			continue
		}
		if prev != nil {
			x0, y0 := c.cell(prev.X, prev.Y)
			x1, y1 := c.cell(p.X, p.Y)
			c.line(x0, y0, x1, y1, cell{r: glyphPath, color: m.Stroke})
		} else {
			col, row := c.cell(p.X, p.Y)
			c.set(col, row, cell{r: glyphPath, color: m.Stroke})
		}
		prev = p
	}
	if prev != nil && m.Title != "" {
		col, row := c.cell(prev.X, prev.Y)
		c.text(col+1, row, m.Title, m.Stroke, false)
	}
}

// line draws a Bresenham segment between two cells.
func (c *Canvas) line(x0, y0, x1, y1 int, v cell) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, v)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// text writes s starting at col, clipped at the right edge. Wide runes take
// two cells.
func (c *Canvas) text(col, row int, s, color string, muted bool) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if col+w > c.cols {
			return
		}
		c.set(col, row, cell{r: r, color: color, muted: muted})
		for k := 1; k < w; k++ {
			c.set(col+k, row, cell{r: 0})
		}
		col += w
	}
}

// free reports whether the in-grid cells of [col0, col1) on row are blank.
func (c *Canvas) free(col0, col1, row int) bool {
	for col := max(col0, 0); col < min(col1, c.cols); col++ {
		if c.at(col, row).r != ' ' {
			return false
		}
	}
	return true
}

func (c *Canvas) axis(a view.Axis) {
	switch a.Orient {
	case view.AxisBottom:
		col0, row := c.cell(a.From, a.Offset)
		col1, _ := c.cell(a.To, a.Offset)
		for col := min(col0, col1); col <= max(col0, col1); col++ {
			c.set(col, row, cell{r: glyphAxisH, muted: true})
		}
		for _, t := range a.Ticks {
			if math.IsNaN(t.Pos) {
				continue
			}
			col, _ := c.cell(t.Pos, a.Offset)
			c.set(col, row, cell{r: glyphTickH, muted: true})
			label := truncate(t.Label, max(c.cols/4, 4))
			w := runewidth.StringWidth(label)
			start := clamp(col-w/2, 0, max(c.cols-w, 0))
			// Skip labels that would collide with one already placed.
			if row+1 < c.rows && c.free(start-1, start+w+1, row+1) {
				c.text(start, row+1, label, "", true)
			}
		}
	case view.AxisLeft:
		col, row0 := c.cell(a.Offset, a.From)
		_, row1 := c.cell(a.Offset, a.To)
		for row := min(row0, row1); row <= max(row0, row1); row++ {
			c.set(col, row, cell{r: glyphAxisV, muted: true})
		}
		c.set(col, max(row0, row1), cell{r: glyphAxisCorner, muted: true})
		for _, t := range a.Ticks {
			if math.IsNaN(t.Pos) {
				continue
			}
			_, row := c.cell(a.Offset, t.Pos)
			c.set(col, row, cell{r: glyphTickV, muted: true})
			label := truncate(t.Label, col)
			w := runewidth.StringWidth(label)
			if col-w >= 0 && c.free(col-w, col, row) {
				c.text(col-w, row, label, "", true)
			}
		}
	}
}

// MarkCursor overlays a cursor glyph below (rects) or on (other shapes) the
// given mark.
func (c *Canvas) MarkCursor(m view.Mark) {
	switch m.Shape {
	case view.ShapeRect:
		if !m.Finite() {
			return
		}
		col, row := c.cell(m.X+m.Width/2, m.Y+m.Height)
		c.set(col, row, cell{r: glyphCursor, focus: true})
	default:
		if math.IsNaN(m.X) || math.IsNaN(m.Y) {
			return
		}
		col, row := c.cell(m.X, m.Y)
		c.set(col, row, cell{r: glyphCursorPoint, focus: true})
	}
}

// PointCursor overlays a cursor on a path vertex.
func (c *Canvas) PointCursor(p view.Point) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return
	}
	col, row := c.cell(p.X, p.Y)
	c.set(col, row, cell{r: glyphCursorPoint, focus: true})
}

// String renders the grid without colors.
func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			if v.r != 0 {
				b.WriteRune(v.r)
			}
		}
	}
	return b.String()
}

// Render renders the grid with theme colors, one style call per run of
// equally styled cells.
func (c *Canvas) Render(theme Theme) string {
	lines := make([]string, len(c.cells))
	for i, row := range c.cells {
		var b strings.Builder
		var run strings.Builder
		var cur cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(c.style(theme, cur).Render(run.String()))
			run.Reset()
		}
		for j, v := range row {
			if v.r == 0 {
				continue
			}
			if j == 0 || !sameStyle(v, cur) {
				flush()
				cur = v
			}
			run.WriteRune(v.r)
		}
		flush()
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

func sameStyle(a, b cell) bool {
	return a.color == b.color && a.muted == b.muted && a.focus == b.focus
}

func (c *Canvas) style(theme Theme, v cell) lipgloss.Style {
	switch {
	case v.focus:
		return theme.Cursor
	case v.muted:
		return theme.MutedText
	}
	if col, ok := MarkColor(v.color); ok {
		return theme.Renderer.NewStyle().Foreground(col)
	}
	return theme.Base
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
