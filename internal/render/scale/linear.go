package scale

import "math"

// Linear maps a continuous domain onto a continuous range.
type Linear struct {
	D0, D1 float64
	R0, R1 float64
	Round  bool
}

// NewLinear builds a linear scale from [d0, d1] to [r0, r1].
func NewLinear(d0, d1, r0, r1 float64, round bool) *Linear {
	return &Linear{D0: d0, D1: d1, R0: r0, R1: r1, Round: round}
}

// Map returns the range value for x. A zero-width domain maps everything to R0.
func (l *Linear) Map(x float64) float64 {
	span := l.D1 - l.D0
	var t float64
	if span != 0 {
		t = (x - l.D0) / span
	}
	v := l.R0 + t*(l.R1-l.R0)
	if l.Round {
		v = math.Round(v)
	}
	return v
}

// Ticks returns roughly count evenly spaced, human friendly values inside the domain.
func (l *Linear) Ticks(count int) []float64 {
	start, stop := l.D0, l.D1
	if count <= 0 {
		return nil
	}
	if start == stop {
		return []float64{start}
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}

	inc := tickIncrement(start, stop, count)
	if inc == 0 || math.IsInf(inc, 0) || math.IsNaN(inc) {
		return nil
	}

	var ticks []float64
	if inc > 0 {
		r0 := math.Ceil(start / inc)
		r1 := math.Floor(stop / inc)
		for i := r0; i <= r1; i++ {
			ticks = append(ticks, i*inc)
		}
	} else {
		inc = -inc
		r0 := math.Ceil(start * inc)
		r1 := math.Floor(stop * inc)
		for i := r0; i <= r1; i++ {
			ticks = append(ticks, i/inc)
		}
	}

	if reverse {
		for i, j := 0, len(ticks)-1; i < j; i, j = i+1, j-1 {
			ticks[i], ticks[j] = ticks[j], ticks[i]
		}
	}
	return ticks
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// tickIncrement returns a positive step of 1, 2 or 5 times a power of ten, or the
// negated inverse of such a step when it is below one.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / float64(count)
	power := math.Floor(math.Log10(step))
	errRatio := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case errRatio >= e10:
		factor = 10
	case errRatio >= e5:
		factor = 5
	case errRatio >= e2:
		factor = 2
	}

	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}
