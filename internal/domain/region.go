package domain

import (
	"fmt"
	"image"
)

// Point is a position in the logical "points" coordinate space the UI is laid out in
type Point struct {
	X int `yaml:"x" mapstructure:"x" json:"x"`
	Y int `yaml:"y" mapstructure:"y" json:"y"`
}

// String returns the point as "x,y"
func (p Point) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Region is a rectangular screen area described by two corner points and the
// factor converting points to raster pixels
type Region struct {
	Name  string
	A     Point
	B     Point
	Scale int
}

// Normalized returns the region with A as the top-left and B as the bottom-right corner
func (r Region) Normalized() Region {
	n := r
	n.A.X, n.B.X = min(r.A.X, r.B.X), max(r.A.X, r.B.X)
	n.A.Y, n.B.Y = min(r.A.Y, r.B.Y), max(r.A.Y, r.B.Y)
	return n
}

// PixelRect returns the normalized region in raster pixel space.
// A non-positive scale is treated as 1.
func (r Region) PixelRect() image.Rectangle {
	n := r.Normalized()
	scale := r.Scale
	if scale < 1 {
		scale = 1
	}
	return image.Rect(n.A.X*scale, n.A.Y*scale, n.B.X*scale, n.B.Y*scale)
}

// Empty reports whether the region covers no pixels
func (r Region) Empty() bool {
	return r.PixelRect().Empty()
}

// String returns a short description used in logs
func (r Region) String() string {
	n := r.Normalized()
	return fmt.Sprintf("%s[%s..%s x%d]", r.Name, n.A, n.B, r.Scale)
}
