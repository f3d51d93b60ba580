package console

import (
	"math"

	"eyesync/engine"
)

// grid maps engine pixel coordinates onto terminal cells. The configured
// display size is stretched over whatever the terminal offers.
type grid struct {
	cols, rows int
	w, h       float64
}

func (g grid) cellW() float64 { return g.w / float64(g.cols) }
func (g grid) cellH() float64 { return g.h / float64(g.rows) }

func (g grid) cell(p engine.Point) (int, int) {
	col := int(math.Floor((p.X + g.w/2) / g.cellW()))
	row := int(math.Floor((g.h/2 - p.Y) / g.cellH()))
	return col, row
}

// point is the engine position of the center of a cell.
func (g grid) point(col, row int) engine.Point {
	return engine.Point{
		X: (float64(col)+0.5)*g.cellW() - g.w/2,
		Y: g.h/2 - (float64(row)+0.5)*g.cellH(),
	}
}

func (g grid) inside(col, row int) bool {
	return col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// lineCells walks the segment in steps of half a cell.
func (g grid) lineCells(l engine.Line) [][2]int {
	dx, dy := l.To.X-l.From.X, l.To.Y-l.From.Y
	step := math.Min(g.cellW(), g.cellH()) / 2
	n := int(math.Ceil(math.Hypot(dx, dy)/step)) + 1
	seen := make(map[[2]int]bool)
	var cells [][2]int
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		col, row := g.cell(engine.Point{X: l.From.X + t*dx, Y: l.From.Y + t*dy})
		c := [2]int{col, row}
		if g.inside(col, row) && !seen[c] {
			seen[c] = true
			cells = append(cells, c)
		}
	}
	return cells
}

func (g grid) circleCells(c engine.Circle) [][2]int {
	var cells [][2]int
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			p := g.point(col, row)
			if math.Hypot(p.X-c.Center.X, p.Y-c.Center.Y) <= c.Radius {
				cells = append(cells, [2]int{col, row})
			}
		}
	}
	return cells
}

// rectCells splits the cells under r into fill and outline. The outline is at
// least one cell thick so that thin borders stay visible.
func (g grid) rectCells(r engine.Rect) (fill, outline [][2]int) {
	halfW, halfH := r.W/2, r.H/2
	bw := math.Max(r.LineWidth, g.cellW())
	bh := math.Max(r.LineWidth, g.cellH())
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			p := g.point(col, row)
			dx, dy := math.Abs(p.X-r.Center.X), math.Abs(p.Y-r.Center.Y)
			if dx > halfW || dy > halfH {
				continue
			}
			c := [2]int{col, row}
			if r.LineWidth > 0 && (dx > halfW-bw || dy > halfH-bh) {
				outline = append(outline, c)
			} else {
				fill = append(fill, c)
			}
		}
	}
	return fill, outline
}
