package mapview

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	maxZoom = 64.0
	minZoom = 0.05
)

// Zoom multiplies the zoom factor around the view center.
func (s *Surface) Zoom(factor float64) {
	z := s.zoom * factor
	if z > maxZoom || z < minZoom {
		return
	}
	s.zoom = z
	s.dirty = true
}

// ZoomLevel returns the current zoom factor.
func (s *Surface) ZoomLevel() float64 { return s.zoom }

// Pan shifts the view by whole cells.
func (s *Surface) Pan(dx, dy int) {
	s.offsetX += dx
	s.offsetY += dy
	s.dirty = true
}

// ResetView restores zoom 1 and no pan.
func (s *Surface) ResetView() {
	s.zoom = 1.0
	s.offsetX, s.offsetY = 0, 0
	s.dirty = true
}

// frame is the bound mapped onto the canvas: the layer bounds, padded when a side
// has zero extent (a single point, a horizontal line).
func (s *Surface) frame() (orb.Bound, bool) {
	if !s.hasBounds {
		return orb.Bound{}, false
	}
	b := s.bounds
	if b.Max[0]-b.Min[0] <= 0 {
		b.Min[0] -= 0.01
		b.Max[0] += 0.01
	}
	if b.Max[1]-b.Min[1] <= 0 {
		b.Min[1] -= 0.01
		b.Max[1] += 0.01
	}
	return b, true
}

// toMicro maps lon/lat into the 2x4-per-cell braille microgrid of a w x h canvas.
func (s *Surface) toMicro(p orb.Point, b orb.Bound, w, h int) (int, int) {
	nx := (p[0] - b.Min[0]) / (b.Max[0] - b.Min[0])
	ny := (p[1] - b.Min[1]) / (b.Max[1] - b.Min[1])
	zx := 0.5 + (nx-0.5)*s.zoom
	zy := 0.5 + (ny-0.5)*s.zoom
	wMic := w * 2
	hMic := h * 4
	sx := int(math.Round(zx*float64(wMic-1))) + s.offsetX*2
	sy := int(math.Round((1.0-zy)*float64(hMic-1))) + s.offsetY*4
	return sx, sy
}

// fromMicro is the inverse of toMicro for fractional micro coordinates.
func (s *Surface) fromMicro(mx, my float64, b orb.Bound, w, h int) orb.Point {
	wMic := float64(w*2 - 1)
	hMic := float64(h*4 - 1)
	zx := (mx - float64(s.offsetX*2)) / wMic
	zy := 1.0 - (my-float64(s.offsetY*4))/hMic
	nx := 0.5 + (zx-0.5)/s.zoom
	ny := 0.5 + (zy-0.5)/s.zoom
	return orb.Point{
		b.Min[0] + nx*(b.Max[0]-b.Min[0]),
		b.Min[1] + ny*(b.Max[1]-b.Min[1]),
	}
}

// CellToLonLat converts the center of a canvas cell back to lon/lat.
func (s *Surface) CellToLonLat(cx, cy, w, h int) (orb.Point, bool) {
	b, ok := s.frame()
	if !ok || w <= 1 || h <= 1 {
		return orb.Point{}, false
	}
	return s.fromMicro(float64(cx*2)+0.5, float64(cy*4)+1.5, b, w, h), true
}

// CellSize returns the extent of one canvas cell in map units.
func (s *Surface) CellSize(w, h int) (dx, dy float64) {
	b, ok := s.frame()
	if !ok || w <= 1 || h <= 1 {
		return 0, 0
	}
	a := s.fromMicro(0, 0, b, w, h)
	c := s.fromMicro(2, 4, b, w, h)
	return math.Abs(c[0] - a[0]), math.Abs(c[1] - a[1])
}

// ViewBound returns the map area currently visible on a w x h canvas.
func (s *Surface) ViewBound(w, h int) (orb.Bound, bool) {
	b, ok := s.frame()
	if !ok || w <= 1 || h <= 1 {
		return orb.Bound{}, false
	}
	tl := s.fromMicro(0, 0, b, w, h)
	br := s.fromMicro(float64(w*2-1), float64(h*4-1), b, w, h)
	return orb.Bound{
		Min: orb.Point{math.Min(tl[0], br[0]), math.Min(tl[1], br[1])},
		Max: orb.Point{math.Max(tl[0], br[0]), math.Max(tl[1], br[1])},
	}, true
}
