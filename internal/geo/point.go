// Package geo holds the planar geometry shared by area lookup and map drawing.
// Geographic points use X for longitude and Y for latitude.
package geo

import "math"

// Point is a position in either geographic or projected (screen) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a shorthand constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Scale returns p * s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Distance returns the Euclidean distance from p to q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Bounds is an axis-aligned bounding box. The zero value is empty.
type Bounds struct {
	Min   Point
	Max   Point
	valid bool
}

// Empty reports whether no point has been added yet.
func (b Bounds) Empty() bool {
	return !b.valid
}

// Extend grows the box to include p.
func (b Bounds) Extend(p Point) Bounds {
	if !b.valid {
		return Bounds{Min: p, Max: p, valid: true}
	}
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	return b
}

// Union returns the box covering both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if o.Empty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Contains reports whether p lies inside or on the edge of the box.
func (b Bounds) Contains(p Point) bool {
	return b.valid &&
		p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 {
	return b.Max.X - b.Min.X
}

// Height returns the vertical extent.
func (b Bounds) Height() float64 {
	return b.Max.Y - b.Min.Y
}
