// Package scale maps data values onto screen coordinates and colors.
package scale

import "math"

// Band positions categorical labels in equal slots along a range.
// Inner and outer padding are the same fraction of a step; slots are centered.
type Band struct {
	domain    []string
	index     map[string]int
	r0, r1    float64
	padding   float64
	round     bool
	step      float64
	bandwidth float64
	start     float64
}

// NewBand builds a band scale over domain, mapped into [r0, r1].
func NewBand(domain []string, r0, r1, padding float64, round bool) *Band {
	b := &Band{
		domain:  append([]string(nil), domain...),
		index:   make(map[string]int, len(domain)),
		r0:      r0,
		r1:      r1,
		padding: math.Max(0, math.Min(1, padding)),
		round:   round,
	}
	for i, d := range b.domain {
		if _, dup := b.index[d]; !dup {
			b.index[d] = i
		}
	}
	b.rescale()
	return b
}

func (b *Band) rescale() {
	n := float64(len(b.domain))
	start, stop := b.r0, b.r1
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}
	b.step = (stop - start) / math.Max(1, n-b.padding+b.padding*2)
	if b.round {
		b.step = math.Floor(b.step)
	}
	start += (stop - start - b.step*(n-b.padding)) * 0.5
	b.bandwidth = b.step * (1 - b.padding)
	if b.round {
		start = math.Round(start)
		b.bandwidth = math.Round(b.bandwidth)
	}
	if reverse {
		// Walk the slots from the top of the range downwards.
		start = start + b.step*(n-1)
		b.step = -b.step
	}
	b.start = start
}

// Map returns the start of label's band, and false for labels outside the domain.
func (b *Band) Map(label string) (float64, bool) {
	i, ok := b.index[label]
	if !ok {
		return math.NaN(), false
	}
	return b.start + b.step*float64(i), true
}

// Bandwidth is the width of every band.
func (b *Band) Bandwidth() float64 {
	return b.bandwidth
}

// Step is the distance between the starts of adjacent bands.
func (b *Band) Step() float64 {
	return math.Abs(b.step)
}

// Domain returns the labels in slot order.
func (b *Band) Domain() []string {
	return append([]string(nil), b.domain...)
}
