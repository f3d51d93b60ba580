package engine

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Point is a screen position in pixels from the center, y up.
type Point struct {
	X, Y float64
}

type Color struct {
	R, G, B, A uint8
}

var (
	Black = Color{0, 0, 0, 255}
	White = Color{255, 255, 255, 255}
	Grey  = Color{128, 128, 128, 255}
	Red   = Color{255, 0, 0, 255}
)

// ParseColor reads "r,g,b" or "r,g,b,a". Alpha defaults to opaque.
func ParseColor(s string) (Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("color %q: want r,g,b[,a]", s)
	}
	v := [4]uint8{0, 0, 0, 255}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		v[i] = uint8(n)
	}
	return Color{v[0], v[1], v[2], v[3]}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}

func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// Shape is one of Line, Circle, Rect, Text or Image.
type Shape interface {
	shape()
}

type Line struct {
	From, To Point
	Width    float64
	Color    Color
}

type Circle struct {
	Center Point
	Radius float64
	Fill   Color
}

// Rect is centered on Center. A zero LineWidth draws no outline; a zero Fill
// alpha draws no fill.
type Rect struct {
	Center    Point
	W, H      float64
	Fill      Color
	Line      Color
	LineWidth float64
}

// Text is drawn centered on Pos with a glyph height in pixels.
type Text struct {
	Pos     Point
	Content string
	Height  float64
	Color   Color
}

// Image draws the picture file at Path centered on Center. Scale 0 means 1.
type Image struct {
	Center Point
	Path   string
	Scale  float64
}

func (Line) shape()   {}
func (Circle) shape() {}
func (Rect) shape()   {}
func (Text) shape()   {}
func (Image) shape()  {}
