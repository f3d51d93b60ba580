package sdlio

import (
	"math"

	"eyesync/engine"
)

// screenPoint is a position in window pixels, origin top left, y down.
type screenPoint struct {
	X, Y float32
}

// projection maps centered engine coordinates to window pixels.
type projection struct {
	w, h float64
}

func (p projection) point(pt engine.Point) screenPoint {
	return screenPoint{X: float32(p.w/2 + pt.X), Y: float32(p.h/2 - pt.Y)}
}

// toEngine maps a window pixel back to centered engine coordinates.
func (p projection) toEngine(x, y float32) engine.Point {
	return engine.Point{X: float64(x) - p.w/2, Y: p.h/2 - float64(y)}
}

// resized follows the renderer output size. Non-positive sizes keep p.
func (p projection) resized(w, h int32) projection {
	if w <= 0 || h <= 0 {
		return p
	}
	return projection{w: float64(w), h: float64(h)}
}

// screenSegment is a one pixel line.
type screenSegment struct {
	From, To screenPoint
}

// thickLine approximates a line of the given width with parallel one pixel
// lines offset along the normal.
func thickLine(p projection, l engine.Line) []screenSegment {
	from, to := p.point(l.From), p.point(l.To)
	width := math.Max(1, math.Round(l.Width))
	dx, dy := float64(to.X-from.X), float64(to.Y-from.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil
	}
	nx, ny := -dy/length, dx/length
	segs := make([]screenSegment, 0, int(width))
	for i := 0; i < int(width); i++ {
		off := float64(i) - (width-1)/2
		ox, oy := float32(nx*off), float32(ny*off)
		segs = append(segs, screenSegment{
			From: screenPoint{from.X + ox, from.Y + oy},
			To:   screenPoint{to.X + ox, to.Y + oy},
		})
	}
	return segs
}

// circleSpans fills a circle with horizontal spans, one per pixel row.
func circleSpans(p projection, c engine.Circle) []screenSegment {
	center := p.point(c.Center)
	r := c.Radius
	if r <= 0 {
		return nil
	}
	rows := int(math.Ceil(r))
	spans := make([]screenSegment, 0, 2*rows+1)
	for dy := -rows; dy <= rows; dy++ {
		fy := float64(dy)
		if math.Abs(fy) > r {
			continue
		}
		half := float32(math.Sqrt(r*r - fy*fy))
		y := center.Y + float32(dy)
		spans = append(spans, screenSegment{
			From: screenPoint{center.X - half, y},
			To:   screenPoint{center.X + half, y},
		})
	}
	return spans
}

// rectBox is the top left corner and size of a rectangle in window pixels.
type rectBox struct {
	X, Y, W, H float32
}

func (p projection) rect(r engine.Rect) rectBox {
	tl := p.point(engine.Point{X: r.Center.X - r.W/2, Y: r.Center.Y + r.H/2})
	return rectBox{X: tl.X, Y: tl.Y, W: float32(r.W), H: float32(r.H)}
}

// outline returns nested one pixel boxes drawing an inward border of the
// given width.
func outline(b rectBox, width float64) []rectBox {
	n := int(math.Max(1, math.Round(width)))
	boxes := make([]rectBox, 0, n)
	for i := 0; i < n; i++ {
		f := float32(i)
		if b.W-2*f <= 0 || b.H-2*f <= 0 {
			break
		}
		boxes = append(boxes, rectBox{X: b.X + f, Y: b.Y + f, W: b.W - 2*f, H: b.H - 2*f})
	}
	return boxes
}

// fitBox centers a w x h box on pt, scaled to the given height when height > 0
// or by scale otherwise.
func fitBox(p projection, pt engine.Point, w, h float32, height, scale float64) rectBox {
	k := float32(1)
	switch {
	case height > 0 && h > 0:
		k = float32(height) / h
	case scale > 0:
		k = float32(scale)
	}
	c := p.point(pt)
	return rectBox{X: c.X - w*k/2, Y: c.Y - h*k/2, W: w * k, H: h * k}
}
