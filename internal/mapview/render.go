package mapview

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"layered/internal/geom"
)

var markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true)

// Redraw renders the visible layers onto a w x h braille canvas and clears the dirty
// flag. The frame is a pure function of the surface state, so redrawing without a
// state change yields the same output.
func (s *Surface) Redraw(w, h int) string {
	s.dirty = false
	if w <= 0 || h <= 0 {
		return ""
	}
	br := newBrailleBuf(w, h)
	b, ok := s.frame()
	palette := []lipgloss.Style{lipgloss.NewStyle()}
	if ok {
		for _, name := range s.order {
			if s.hidden[name] {
				continue
			}
			l, err := s.src.Get(name)
			if err != nil {
				continue
			}
			fill := len(palette)
			palette = append(palette, inkStyle(l.Style.Color, l.Style.Opacity))
			edge := fill
			if l.Style.Border != "" {
				edge = len(palette)
				palette = append(palette, inkStyle(l.Style.Border, 1))
			}
			r := &layerPainter{s: s, br: br, b: b, w: w, h: h, style: l.Style, fill: fill, edge: edge}
			for _, f := range l.Features {
				if !geom.Empty(f.Geometry) {
					r.paint(f.Geometry)
				}
			}
		}
	}

	lines := make([]string, h)
	for y := 0; y < h; y++ {
		var sb strings.Builder
		run := make([]rune, 0, w)
		cur := 0
		flush := func() {
			if len(run) == 0 {
				return
			}
			if cur == 0 {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(palette[cur].Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < w; x++ {
			ink := br.ink[y][x]
			if br.m[y][x] == 0 {
				ink = 0
			}
			if ink != cur {
				flush()
				cur = ink
			}
			run = append(run, br.glyph(x, y))
		}
		flush()
		lines[y] = sb.String()
	}

	if s.hasMarker && ok {
		mx, my := s.toMicro(s.marker, b, w, h)
		cx, cy := mx/2, my/4
		if cy >= 0 && cy < h && cx >= 0 && cx < w {
			lines[cy] = overlayCell(br, palette, cy, cx, markerStyle.Render("◯"))
		}
	}
	return strings.Join(lines, "\n")
}

// overlayCell re-renders row y with cell x replaced by an already styled glyph.
func overlayCell(br *brailleBuf, palette []lipgloss.Style, y, x int, glyph string) string {
	var sb strings.Builder
	for cx := 0; cx < br.w; cx++ {
		if cx == x {
			sb.WriteString(glyph)
			continue
		}
		ink := br.ink[y][cx]
		if br.m[y][cx] == 0 || ink == 0 {
			sb.WriteRune(br.glyph(cx, y))
			continue
		}
		sb.WriteString(palette[ink].Render(string(br.glyph(cx, y))))
	}
	return sb.String()
}

func inkStyle(color string, opacity float64) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	if opacity < 0.5 {
		st = st.Faint(true)
	}
	return st
}

type layerPainter struct {
	s          *Surface
	br         *brailleBuf
	b          orb.Bound
	w, h       int
	style      geom.Style
	fill, edge int
}

func (r *layerPainter) micro(p orb.Point) (int, int) { return r.s.toMicro(p, r.b, r.w, r.h) }

func (r *layerPainter) paint(g orb.Geometry) {
	switch v := g.(type) {
	case orb.Point:
		r.point(v)
	case orb.MultiPoint:
		for _, p := range v {
			r.point(p)
		}
	case orb.LineString:
		r.line(v)
	case orb.MultiLineString:
		for _, ls := range v {
			r.line(ls)
		}
	case orb.Ring:
		r.polygon(orb.Polygon{v})
	case orb.Polygon:
		r.polygon(v)
	case orb.MultiPolygon:
		for _, p := range v {
			r.polygon(p)
		}
	case orb.Bound:
		r.polygon(v.ToPolygon())
	case orb.Collection:
		for _, c := range v {
			r.paint(c)
		}
	}
}

func (r *layerPainter) point(p orb.Point) {
	mx, my := r.micro(p)
	rad := int(r.style.Size+0.5) - 1
	if rad <= 0 {
		r.br.setPixel(mx, my, r.fill)
		return
	}
	r.br.disc(mx, my, rad, r.fill)
}

func (r *layerPainter) line(ls orb.LineString) {
	for i := 1; i < len(ls); i++ {
		x0, y0 := r.micro(ls[i-1])
		x1, y1 := r.micro(ls[i])
		r.br.drawLine(x0, y0, x1, y1, r.fill)
	}
	if len(ls) == 1 {
		r.point(ls[0])
	}
}

// polygon fills with the even-odd rule over all rings, so holes stay empty, then
// draws the ring edges. Translucent layers are filled with a checker dither.
func (r *layerPainter) polygon(poly orb.Polygon) {
	rings := make([][][2]int, 0, len(poly))
	for _, ring := range poly {
		pts := make([][2]int, 0, len(ring))
		for _, p := range ring {
			x, y := r.micro(p)
			pts = append(pts, [2]int{x, y})
		}
		if len(pts) >= 3 {
			rings = append(rings, pts)
		}
	}
	if len(rings) == 0 {
		return
	}
	dither := r.style.Opacity < 0.5
	hMic := r.h * 4
	wMic := r.w * 2
	for yMic := 0; yMic < hMic; yMic++ {
		var xs []int
		for _, ring := range rings {
			for i := 0; i < len(ring); i++ {
				a := ring[i]
				c := ring[(i+1)%len(ring)]
				if a[1] == c[1] {
					continue
				}
				if (yMic >= a[1] && yMic < c[1]) || (yMic >= c[1] && yMic < a[1]) {
					t := float64(yMic-a[1]) / float64(c[1]-a[1])
					xs = append(xs, int(float64(a[0])+t*float64(c[0]-a[0])))
				}
			}
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for xMic := max(0, xs[i]); xMic <= xs[i+1] && xMic < wMic; xMic++ {
				if dither && (xMic+yMic)%2 == 1 {
					continue
				}
				r.br.setPixel(xMic, yMic, r.fill)
			}
		}
	}
	for _, ring := range rings {
		for i := 0; i < len(ring); i++ {
			a := ring[i]
			c := ring[(i+1)%len(ring)]
			r.br.drawLine(a[0], a[1], c[0], c[1], r.edge)
		}
	}
}
