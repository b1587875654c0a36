package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandEvenSlots(t *testing.T) {
	b := NewBand([]string{"a", "b", "c", "d"}, 0, 100, 0, false)
	assert.InDelta(t, 25, b.Bandwidth(), 1e-9)
	for i, label := range []string{"a", "b", "c", "d"} {
		v, ok := b.Map(label)
		require.True(t, ok)
		assert.InDelta(t, float64(i)*25, v, 1e-9)
	}
	_, ok := b.Map("z")
	assert.False(t, ok)
}

func TestBandPaddingAndRounding(t *testing.T) {
	// Matches a d3 band with rangeRound([0, 280]) and padding(0.1) over 3 labels:
	// step = floor(280/3.1) = 90, bandwidth = 81, start = round((280-90*2.9)/2) = 10.
	b := NewBand([]string{"x", "y", "z"}, 0, 280, 0.1, true)
	assert.Equal(t, 90.0, b.Step())
	assert.Equal(t, 81.0, b.Bandwidth())
	v, _ := b.Map("x")
	assert.Equal(t, 10.0, v)
	v, _ = b.Map("z")
	assert.Equal(t, 190.0, v)
}

func TestBandReversedRange(t *testing.T) {
	b := NewBand([]string{"a", "b"}, 100, 0, 0, false)
	a, _ := b.Map("a")
	bb, _ := b.Map("b")
	assert.InDelta(t, 50, a, 1e-9)
	assert.InDelta(t, 0, bb, 1e-9)
}

func TestBandEmptyDomain(t *testing.T) {
	b := NewBand(nil, 0, 100, 0.1, true)
	assert.Empty(t, b.Domain())
	_, ok := b.Map("a")
	assert.False(t, ok)
}

func TestLinearMap(t *testing.T) {
	l := NewLinear(0, 50, 0, 300, false)
	assert.InDelta(t, 150, l.Map(25), 1e-9)
	assert.InDelta(t, 300, l.Map(50), 1e-9)

	inverted := NewLinear(0, 10, 200, 0, true)
	assert.Equal(t, 200.0, inverted.Map(0))
	assert.Equal(t, 0.0, inverted.Map(10))
	assert.Equal(t, 130.0, inverted.Map(3.5))
}

func TestLinearDegenerateDomain(t *testing.T) {
	l := NewLinear(0, 0, 0, 300, true)
	assert.Equal(t, 0.0, l.Map(0))
	assert.Equal(t, []float64{0}, l.Ticks(5))
}

func TestLinearTicks(t *testing.T) {
	assert.Equal(t, []float64{0, 20, 40, 60, 80, 100}, NewLinear(0, 100, 0, 1, false).Ticks(5))
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 10, 12}, NewLinear(0, 13, 0, 1, false).Ticks(5))
	assert.Equal(t, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}, NewLinear(0, 1, 0, 1, false).Ticks(5))
	assert.Nil(t, NewLinear(0, 1, 0, 1, false).Ticks(0))
}

func TestQuantizePartitions(t *testing.T) {
	colors := []string{"c0", "c1", "c2", "c3", "c4"}
	q := NewQuantize(0, 100, colors)

	assert.Equal(t, []float64{20, 40, 60, 80}, q.Thresholds())
	assert.Equal(t, "c0", q.Color(0))
	assert.Equal(t, "c0", q.Color(19.9))
	assert.Equal(t, "c1", q.Color(20))
	assert.Equal(t, "c4", q.Color(100))
	assert.Equal(t, "c4", q.Color(1000))
	assert.Equal(t, "c0", q.Color(-5))

	// Extents cover the domain without gaps and only touch at the boundaries.
	prevHi := 0.0
	for i := range colors {
		lo, hi := q.InvertExtent(i)
		assert.Equal(t, prevHi, lo)
		assert.Greater(t, hi, lo)
		prevHi = hi
	}
	assert.Equal(t, 100.0, prevHi)

	lo, hi := q.InvertExtent(7)
	assert.True(t, math.IsNaN(lo) && math.IsNaN(hi))
}

func TestQuantizeEveryValueInOwnExtent(t *testing.T) {
	q := NewQuantize(0, 37, []string{"a", "b", "c", "d", "e"})
	for x := 0.0; x <= 37; x++ {
		i := q.Index(x)
		lo, hi := q.InvertExtent(i)
		assert.True(t, x >= lo && x <= hi, "x=%v bucket=%d [%v,%v]", x, i, lo, hi)
	}
}

func TestQuantizeDegenerate(t *testing.T) {
	q := NewQuantize(0, 0, []string{"a", "b", "c", "d", "e"})
	assert.Equal(t, "a", q.Color(0))
	lo, hi := q.InvertExtent(0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 0.0, hi)

	empty := NewQuantize(0, 10, nil)
	assert.Equal(t, "", empty.Color(3))
}
