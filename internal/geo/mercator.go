package geo

import "math"

// DefaultFill leaves a 5% margin around a fitted map.
const DefaultFill = 0.95

// Mercator is a spherical Mercator projection from degrees to screen units with the
// y axis pointing down. The zero value is not usable; start from NewMercator.
type Mercator struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// NewMercator returns the unit projection (scale 1, no translation) that Fit
// measures bounds with.
func NewMercator() *Mercator {
	return &Mercator{Scale: 1}
}

func mercatorRaw(p Point) Point {
	lambda := p.X * math.Pi / 180
	phi := p.Y * math.Pi / 180
	return Point{X: lambda, Y: math.Log(math.Tan((math.Pi/2 + phi) / 2))}
}

// Project maps a lon/lat point to screen space.
func (m *Mercator) Project(p Point) Point {
	r := mercatorRaw(p)
	return Point{
		X: m.TranslateX + m.Scale*r.X,
		Y: m.TranslateY - m.Scale*r.Y,
	}
}

// ProjectedBounds returns the unit-projection bounds of the given polygons.
func ProjectedBounds(polys []Polygon) Bounds {
	unit := NewMercator()
	var b Bounds
	for _, p := range polys {
		for _, v := range p.Outer {
			b = b.Extend(unit.Project(v))
		}
	}
	return b
}

// Fit sets scale and translation so that unit-projected bounds fill `fill` of a
// width x height area, centered, with the aspect ratio kept.
func (m *Mercator) Fit(b Bounds, width, height, fill float64) {
	if b.Empty() || width <= 0 || height <= 0 {
		return
	}
	s := math.Max(b.Width()/width, b.Height()/height)
	if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		s = 1
	} else {
		s = fill / s
	}
	m.Scale = s
	m.TranslateX = (width - s*(b.Max.X+b.Min.X)) / 2
	m.TranslateY = (height - s*(b.Max.Y+b.Min.Y)) / 2
}
