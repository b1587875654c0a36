package geo

import "math"

// Ring is a closed sequence of vertices. A repeated closing vertex is allowed.
type Ring []Point

// SignedArea returns the signed area using the shoelace formula.
// Positive for counterclockwise winding, negative for clockwise.
func (r Ring) SignedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += r[i].X * r[j].Y
		area -= r[j].X * r[i].Y
	}
	return area / 2
}

// Area returns the unsigned area of the ring.
func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

// Centroid returns the area centroid, or the vertex average for degenerate rings.
func (r Ring) Centroid() Point {
	n := len(r)
	if n == 0 {
		return Point{}
	}
	a := r.SignedArea()
	if n < 3 || math.Abs(a) < 1e-12 {
		sum := Point{}
		for _, v := range r {
			sum = sum.Add(v)
		}
		return sum.Scale(1.0 / float64(n))
	}
	cx, cy := 0.0, 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := r[i].X*r[j].Y - r[j].X*r[i].Y
		cx += (r[i].X + r[j].X) * cross
		cy += (r[i].Y + r[j].Y) * cross
	}
	f := 1.0 / (6.0 * a)
	return Point{cx * f, cy * f}
}

// Bounds returns the bounding box of the ring.
func (r Ring) Bounds() Bounds {
	var b Bounds
	for _, v := range r {
		b = b.Extend(v)
	}
	return b
}

// Contains returns true if the point is inside the ring using ray casting.
func (r Ring) Contains(pt Point) bool {
	n := len(r)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi := r[i]
		vj := r[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Map returns a new ring with f applied to every vertex.
func (r Ring) Map(f func(Point) Point) Ring {
	out := make(Ring, len(r))
	for i, v := range r {
		out[i] = f(v)
	}
	return out
}

// Polygon is an outer ring with optional holes.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// Contains reports whether pt is inside the outer ring and outside every hole.
func (p Polygon) Contains(pt Point) bool {
	if !p.Outer.Contains(pt) {
		return false
	}
	for _, h := range p.Holes {
		if h.Contains(pt) {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of the outer ring.
func (p Polygon) Bounds() Bounds {
	return p.Outer.Bounds()
}

// Area returns the outer area minus the holes.
func (p Polygon) Area() float64 {
	a := p.Outer.Area()
	for _, h := range p.Holes {
		a -= h.Area()
	}
	return a
}

// Rings returns the outer ring followed by the holes.
func (p Polygon) Rings() []Ring {
	return append([]Ring{p.Outer}, p.Holes...)
}

// Centroid returns the area-weighted centroid of a set of polygons, which is where
// a label for a multi-part area is placed.
func Centroid(polys []Polygon) Point {
	var total float64
	var acc Point
	for _, p := range polys {
		a := p.Outer.Area()
		if a == 0 {
			continue
		}
		acc = acc.Add(p.Outer.Centroid().Scale(a))
		total += a
	}
	if total == 0 {
		if len(polys) == 0 {
			return Point{}
		}
		return polys[0].Outer.Centroid()
	}
	return acc.Scale(1 / total)
}

// BoundsOf returns the box covering every polygon.
func BoundsOf(polys []Polygon) Bounds {
	var b Bounds
	for _, p := range polys {
		b = b.Union(p.Bounds())
	}
	return b
}
