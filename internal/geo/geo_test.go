package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-6

func square(x0, y0, size float64) Ring {
	return Ring{Pt(x0, y0), Pt(x0+size, y0), Pt(x0+size, y0+size), Pt(x0, y0+size), Pt(x0, y0)}
}

func TestRingArea(t *testing.T) {
	r := square(0, 0, 10)
	assert.InDelta(t, 100, r.Area(), tolerance)
	assert.Greater(t, r.SignedArea(), 0.0)
}

func TestRingCentroid(t *testing.T) {
	c := square(2, 4, 10).Centroid()
	assert.InDelta(t, 7, c.X, tolerance)
	assert.InDelta(t, 9, c.Y, tolerance)
}

func TestRingCentroidDegenerate(t *testing.T) {
	c := Ring{Pt(0, 0), Pt(2, 2)}.Centroid()
	assert.InDelta(t, 1, c.X, tolerance)
	assert.InDelta(t, 1, c.Y, tolerance)
	assert.Equal(t, Point{}, Ring{}.Centroid())
}

func TestRingContains(t *testing.T) {
	r := square(0, 0, 10)
	assert.True(t, r.Contains(Pt(5, 5)))
	assert.False(t, r.Contains(Pt(15, 5)))
	assert.False(t, r.Contains(Pt(-1, -1)))
	assert.False(t, Ring{Pt(0, 0), Pt(1, 1)}.Contains(Pt(0.5, 0.5)))
}

func TestPolygonHoles(t *testing.T) {
	p := Polygon{Outer: square(0, 0, 10), Holes: []Ring{square(4, 4, 2)}}
	assert.True(t, p.Contains(Pt(1, 1)))
	assert.False(t, p.Contains(Pt(5, 5)))
	assert.InDelta(t, 96, p.Area(), tolerance)
	assert.Len(t, p.Rings(), 2)
}

func TestCentroidWeighted(t *testing.T) {
	big := Polygon{Outer: square(0, 0, 10)}
	small := Polygon{Outer: square(20, 0, 1)}
	c := Centroid([]Polygon{big, small})
	// 100*(5,5) + 1*(20.5,0.5) over 101
	assert.InDelta(t, (500+20.5)/101, c.X, tolerance)
	assert.InDelta(t, (500+0.5)/101, c.Y, tolerance)
	assert.Equal(t, Point{}, Centroid(nil))
}

func TestBounds(t *testing.T) {
	var b Bounds
	assert.True(t, b.Empty())
	assert.False(t, b.Contains(Pt(0, 0)))

	b = b.Extend(Pt(1, 2)).Extend(Pt(-3, 5))
	assert.Equal(t, Pt(-3, 2), b.Min)
	assert.Equal(t, Pt(1, 5), b.Max)
	assert.True(t, b.Contains(Pt(0, 3)))
	assert.InDelta(t, 4, b.Width(), tolerance)
	assert.InDelta(t, 3, b.Height(), tolerance)

	u := b.Union(Bounds{})
	assert.Equal(t, b, u)
}

func TestMercatorFitCentersAndKeepsMargin(t *testing.T) {
	// A box around Chicago.
	polys := []Polygon{{Outer: Ring{
		Pt(-87.94, 41.64), Pt(-87.52, 41.64), Pt(-87.52, 42.02), Pt(-87.94, 42.02), Pt(-87.94, 41.64),
	}}}
	width, height := 800.0, 600.0

	m := NewMercator()
	m.Fit(ProjectedBounds(polys), width, height, DefaultFill)

	var screen Bounds
	for _, v := range polys[0].Outer {
		screen = screen.Extend(m.Project(v))
	}

	// One dimension fills 95% of the area, the other fits inside it.
	fillX := screen.Width() / width
	fillY := screen.Height() / height
	assert.InDelta(t, DefaultFill, math.Max(fillX, fillY), 1e-9)
	assert.LessOrEqual(t, math.Min(fillX, fillY), DefaultFill+1e-9)

	// Centered.
	assert.InDelta(t, width/2, (screen.Min.X+screen.Max.X)/2, 1e-6)
	assert.InDelta(t, height/2, (screen.Min.Y+screen.Max.Y)/2, 1e-6)

	// North is up.
	north := m.Project(Pt(-87.7, 42.0))
	south := m.Project(Pt(-87.7, 41.7))
	assert.Less(t, north.Y, south.Y)
}

func TestMercatorFitDegenerate(t *testing.T) {
	m := NewMercator()
	b := Bounds{}.Extend(Pt(1, 1))
	m.Fit(b, 100, 100, DefaultFill)
	require.Equal(t, 1.0, m.Scale)
	assert.InDelta(t, 49, m.TranslateX, tolerance)

	before := *m
	m.Fit(Bounds{}, 100, 100, DefaultFill)
	assert.Equal(t, before, *m)
}
