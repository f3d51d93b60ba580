package engine

// NoDataText is shown when the tracker has lost the eyes for a while.
const NoDataText = "EYES NOT DETECTED"

// Style holds the colors and geometry of everything the engine draws itself.
type Style struct {
	Background   Color
	Fixation     Color
	FixationSize float64
	Cue          Color
	Text         Color
}

// DrawFixation draws a cross of s.FixationSize pixels at the screen center.
func DrawFixation(c Canvas, s Style) {
	half := s.FixationSize / 2
	c.Draw(Line{From: Point{-half, 0}, To: Point{half, 0}, Width: 3, Color: s.Fixation})
	c.Draw(Line{From: Point{0, -half}, To: Point{0, half}, Width: 3, Color: s.Fixation})
}

// DrawRedirectCue draws the outlined square and the four arrows pointing back to
// the center that ask the participant to look at the fixation again.
func DrawRedirectCue(c Canvas, s Style) {
	size := s.FixationSize
	c.Draw(Rect{W: 6 * size, H: 6 * size, Line: s.Cue, LineWidth: 3})

	// Left arrow; the other three are rotations of it.
	arrow := [3][2]Point{
		{{-5 * size, 0}, {-4 * size, 0}},
		{{-4.5 * size, -size / 2}, {-4 * size, 0}},
		{{-4.5 * size, size / 2}, {-4 * size, 0}},
	}
	rotations := []func(Point) Point{
		func(p Point) Point { return p },
		func(p Point) Point { return Point{-p.X, p.Y} },
		func(p Point) Point { return Point{p.Y, -p.X} },
		func(p Point) Point { return Point{p.Y, p.X} },
	}
	for _, rot := range rotations {
		for _, seg := range arrow {
			c.Draw(Line{From: rot(seg[0]), To: rot(seg[1]), Width: 3, Color: s.Cue})
		}
	}
}

// DrawNoData draws the lost-tracking warning at fixation height.
func DrawNoData(c Canvas, s Style) {
	c.Draw(Text{Content: NoDataText, Height: s.FixationSize, Color: s.Cue})
}
