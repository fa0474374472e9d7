// Package export writes dashboard scenes and datasets to files: SVG and PNG
// snapshots of the three views, and a SQLite database of the joined records.
package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vanderheijden86/gapview/pkg/metrics"
	"github.com/vanderheijden86/gapview/pkg/view"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

// Snapshot formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

var (
	colorBackdrop = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorAxis     = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
)

const tickSize = 6

// ResolveFormat returns the snapshot format for path. An explicit format
// wins; otherwise it is inferred from the extension, defaulting to svg.
func ResolveFormat(path, format string) (string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png":
			format = FormatPNG
		default:
			format = FormatSVG
		}
	}
	if format != FormatSVG && format != FormatPNG {
		return "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	return format, nil
}

// SaveSnapshot renders one scene to path.
func SaveSnapshot(path, format string, s *view.Scene) error {
	if s == nil {
		return fmt.Errorf("no scene to export")
	}
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	format, err := ResolveFormat(path, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		err = WritePNG(&buf, s)
	default:
		err = WriteSVG(&buf, s)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", s.Kind, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// SaveScenes writes every non-nil scene to dir as <kind>.<format> and returns
// the written paths in scene order.
func SaveScenes(dir, format string, scenes []*view.Scene) ([]string, error) {
	if format == "" {
		format = FormatSVG
	}
	format, err := ResolveFormat("", format)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, s := range scenes {
		if s == nil {
			continue
		}
		path := filepath.Join(dir, string(s.Kind)+"."+format)
		if err := SaveSnapshot(path, format, s); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenes to export")
	}
	return paths, nil
}

// --- SVG -------------------------------------------------------------------

// WriteSVG renders s as an SVG document. Marks with non-finite geometry are
// skipped; a path is split into polylines at NaN points.
func WriteSVG(w io.Writer, s *view.Scene) error {
	defer metrics.Timer(metrics.SnapshotRender)()

	width, height := px(s.Width), px(s.Height)
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Title(s.Title)
	canvas.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	for _, m := range s.Marks {
		if !m.Finite() {
			continue
		}
		switch m.Shape {
		case view.ShapeRect:
			canvas.Rect(px(m.X), px(m.Y), px(m.Width), px(m.Height), markStyle(m))
		case view.ShapeCircle:
			canvas.Circle(px(m.X), px(m.Y), px(m.R), markStyle(m))
		case view.ShapePath:
			for _, run := range finiteRuns(m.Points) {
				xs := make([]int, len(run))
				ys := make([]int, len(run))
				for i, p := range run {
					xs[i], ys[i] = px(p.X), px(p.Y)
				}
				canvas.Polyline(xs, ys, markStyle(m))
			}
			if last, ok := lastFinite(m.Points); ok && m.Title != "" {
				canvas.Text(px(last.X)+4, px(last.Y), m.Title,
					fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
			}
		}
	}

	axisSVG(canvas, s.XAxis)
	axisSVG(canvas, s.YAxis)
	canvas.Text(width/2, 16, s.Title,
		fmt.Sprintf("fill:%s;font-size:14px;font-family:monospace;text-anchor:middle", css(colorText)))
	canvas.End()
	return nil
}

func axisSVG(canvas *svg.SVG, a view.Axis) {
	line := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorAxis))
	label := fmt.Sprintf("fill:%s;font-size:10px;font-family:monospace", css(colorSubtle))
	off := px(a.Offset)
	switch a.Orient {
	case view.AxisBottom:
		canvas.Line(px(a.From), off, px(a.To), off, line)
		for _, t := range a.Ticks {
			if !finite(t.Pos) {
				continue
			}
			x := px(t.Pos)
			canvas.Line(x, off, x, off+tickSize, line)
			canvas.Text(x, off+tickSize+10, t.Label, label+";text-anchor:middle")
		}
	case view.AxisLeft:
		canvas.Line(off, px(a.From), off, px(a.To), line)
		for _, t := range a.Ticks {
			if !finite(t.Pos) {
				continue
			}
			y := px(t.Pos)
			canvas.Line(off-tickSize, y, off, y, line)
			canvas.Text(off-tickSize-2, y+3, t.Label, label+";text-anchor:end")
		}
	}
}

func markStyle(m view.Mark) string {
	parts := []string{"fill:" + cssName(m.Fill)}
	if m.Stroke != "" {
		parts = append(parts, "stroke:"+cssName(m.Stroke))
	}
	if m.StrokeWidth > 0 {
		parts = append(parts, "stroke-width:"+strconv.FormatFloat(m.StrokeWidth, 'f', -1, 64))
	}
	parts = append(parts, "opacity:"+strconv.FormatFloat(m.Opacity, 'f', -1, 64))
	return strings.Join(parts, ";")
}

// --- PNG -------------------------------------------------------------------

// WritePNG rasterizes s with the same layout as WriteSVG.
func WritePNG(w io.Writer, s *view.Scene) error {
	defer metrics.Timer(metrics.SnapshotRender)()

	dc := gg.NewContext(px(s.Width), px(s.Height))
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for _, m := range s.Marks {
		if !m.Finite() {
			continue
		}
		fill, hasFill := parseColor(m.Fill, m.Opacity)
		stroke, hasStroke := parseColor(m.Stroke, m.Opacity)
		switch m.Shape {
		case view.ShapeRect:
			dc.DrawRectangle(m.X, m.Y, m.Width, m.Height)
			paint(dc, fill, hasFill, stroke, hasStroke, m.StrokeWidth)
		case view.ShapeCircle:
			dc.DrawCircle(m.X, m.Y, m.R)
			paint(dc, fill, hasFill, stroke, hasStroke, m.StrokeWidth)
		case view.ShapePath:
			for _, run := range finiteRuns(m.Points) {
				dc.NewSubPath()
				for i, p := range run {
					if i == 0 {
						dc.MoveTo(p.X, p.Y)
						continue
					}
					dc.LineTo(p.X, p.Y)
				}
			}
			paint(dc, color.RGBA{}, false, stroke, hasStroke, m.StrokeWidth)
			if last, ok := lastFinite(m.Points); ok && m.Title != "" {
				dc.SetColor(colorText)
				dc.DrawStringAnchored(m.Title, last.X+4, last.Y, 0, 0.5)
			}
		}
	}

	axisPNG(dc, s.XAxis)
	axisPNG(dc, s.YAxis)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(s.Title, s.Width/2, 14, 0.5, 0.5)

	return dc.EncodePNG(w)
}

func paint(dc *gg.Context, fill color.Color, hasFill bool, stroke color.Color, hasStroke bool, width float64) {
	if hasFill {
		dc.SetColor(fill)
		if hasStroke {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if hasStroke {
		dc.SetColor(stroke)
		dc.SetLineWidth(math.Max(width, 1))
		dc.Stroke()
	}
	dc.ClearPath()
}

func axisPNG(dc *gg.Context, a view.Axis) {
	dc.SetLineWidth(1)
	switch a.Orient {
	case view.AxisBottom:
		dc.SetColor(colorAxis)
		dc.DrawLine(a.From, a.Offset, a.To, a.Offset)
		dc.Stroke()
		for _, t := range a.Ticks {
			if !finite(t.Pos) {
				continue
			}
			dc.SetColor(colorAxis)
			dc.DrawLine(t.Pos, a.Offset, t.Pos, a.Offset+tickSize)
			dc.Stroke()
			dc.SetColor(colorSubtle)
			dc.DrawStringAnchored(t.Label, t.Pos, a.Offset+tickSize+8, 0.5, 0.5)
		}
	case view.AxisLeft:
		dc.SetColor(colorAxis)
		dc.DrawLine(a.Offset, a.From, a.Offset, a.To)
		dc.Stroke()
		for _, t := range a.Ticks {
			if !finite(t.Pos) {
				continue
			}
			dc.SetColor(colorAxis)
			dc.DrawLine(a.Offset-tickSize, t.Pos, a.Offset, t.Pos)
			dc.Stroke()
			dc.SetColor(colorSubtle)
			dc.DrawStringAnchored(t.Label, a.Offset-tickSize-2, t.Pos, 1, 0.5)
		}
	}
}

// --- helpers ---------------------------------------------------------------

// finiteRuns splits points into maximal runs of finite coordinates.
func finiteRuns(points []view.Point) [][]view.Point {
	var runs [][]view.Point
	var cur []view.Point
	for _, p := range points {
		if finite(p.X) && finite(p.Y) {
			cur = append(cur, p)
			continue
		}
		if len(cur) > 0 {
			runs = append(runs, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

func lastFinite(points []view.Point) (view.Point, bool) {
	for i := len(points) - 1; i >= 0; i-- {
		if finite(points[i].X) && finite(points[i].Y) {
			return points[i], true
		}
	}
	return view.Point{}, false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func px(v float64) int {
	return int(math.Round(v))
}

var namedColors = map[string]color.RGBA{
	"black": {0x00, 0x00, 0x00, 0xff},
	"white": {0xff, 0xff, 0xff, 0xff},
	"blue":  {0x00, 0x00, 0xff, 0xff},
	"red":   {0xff, 0x00, 0x00, 0xff},
	"green": {0x00, 0x80, 0x00, 0xff},
	"gray":  {0x80, 0x80, 0x80, 0xff},
}

// parseColor resolves a CSS hex (#rgb or #rrggbb) or a basic named color and
// applies the opacity. "none" and unknown values report false.
func parseColor(s string, opacity float64) (color.NRGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	var c color.RGBA
	switch {
	case s == "" || s == "none":
		return color.NRGBA{}, false
	case strings.HasPrefix(s, "#"):
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return color.NRGBA{}, false
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, false
		}
		c = color.RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 0xff}
	default:
		named, ok := namedColors[s]
		if !ok {
			return color.NRGBA{}, false
		}
		c = named
	}
	opacity = math.Max(0, math.Min(1, opacity))
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(opacity * 255))}, true
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// cssName passes named colors through and normalizes hex colors.
func cssName(s string) string {
	if s == "" {
		return "none"
	}
	return strings.ToLower(s)
}
