package scale

import (
	"math"
	"sort"
)

// Quantize splits a continuous domain into len(colors) equal buckets.
type Quantize struct {
	x0, x1     float64
	colors     []string
	thresholds []float64
}

// NewQuantize builds a quantize scale over [x0, x1].
func NewQuantize(x0, x1 float64, colors []string) *Quantize {
	q := &Quantize{x0: x0, x1: x1, colors: append([]string(nil), colors...)}
	n := len(q.colors) - 1
	if n < 0 {
		n = 0
	}
	q.thresholds = make([]float64, n)
	for i := 0; i < n; i++ {
		q.thresholds[i] = (float64(i+1)*x1 - float64(i-n)*x0) / float64(n+1)
	}
	return q
}

// Index returns the bucket index for x. Values on a threshold go to the upper
// bucket, values outside the domain are clamped, and a zero-width domain maps
// everything to the first bucket.
func (q *Quantize) Index(x float64) int {
	if len(q.colors) == 0 {
		return -1
	}
	if q.x0 == q.x1 {
		return 0
	}
	return sort.Search(len(q.thresholds), func(i int) bool { return q.thresholds[i] > x })
}

// Color returns the color for x.
func (q *Quantize) Color(x float64) string {
	i := q.Index(x)
	if i < 0 {
		return ""
	}
	return q.colors[i]
}

// Colors returns the output range.
func (q *Quantize) Colors() []string {
	return append([]string(nil), q.colors...)
}

// Thresholds returns the bucket boundaries inside the domain.
func (q *Quantize) Thresholds() []float64 {
	return append([]float64(nil), q.thresholds...)
}

// InvertExtent returns the [lo, hi] domain extent of bucket i.
func (q *Quantize) InvertExtent(i int) (float64, float64) {
	n := len(q.thresholds)
	switch {
	case i < 0 || i > n:
		return math.NaN(), math.NaN()
	case n == 0:
		return q.x0, q.x1
	case i == 0:
		return q.x0, q.thresholds[0]
	case i == n:
		return q.thresholds[n-1], q.x1
	}
	return q.thresholds[i-1], q.thresholds[i]
}
