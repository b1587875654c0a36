// Package barchart draws category counts as bars and redraws them in place.
//
// A Chart keeps the bars it drew last, keyed by label. Each Render reconciles that
// set with the new data: bars for new labels enter, bars for known labels update and
// animate from their old length, bars for missing labels exit.
package barchart

import (
	"fmt"
	"math"
	"sort"
	"time"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/render/scale"
)

type Orientation int

const (
	// Horizontal stacks categories top to bottom and grows bars to the right.
	Horizontal Orientation = iota
	// Vertical spreads categories left to right and grows bars upwards.
	Vertical
)

type Margin struct {
	Top, Right, Bottom, Left float64
}

type Config struct {
	Width          float64
	Height         float64
	Margin         Margin
	Color          string
	Orientation    Orientation
	BandPadding    float64
	Duration       time.Duration
	SortDescending bool
	AxisLabel      string
	Ticks          int
}

func DefaultConfig() Config {
	return Config{
		Width:       350,
		Height:      350,
		Margin:      Margin{Top: 10, Right: 10, Bottom: 60, Left: 40},
		Color:       "#b2ebf2",
		Orientation: Horizontal,
		BandPadding: 0.1,
		Duration:    750 * time.Millisecond,
		AxisLabel:   "Calls/Issues",
		Ticks:       5,
	}
}

type Rect struct {
	X, Y, Width, Height float64
}

// Bar is one drawn datum. From is the geometry the transition starts at.
type Bar struct {
	Label string
	Value float64
	Rect  Rect
	From  Rect
}

// Join lists the labels that entered, updated and exited on the last Render.
type Join struct {
	Enter  []string
	Update []string
	Exit   []string
}

type Chart struct {
	cfg    Config
	bars   map[string]*Bar
	order  []string
	band   *scale.Band
	linear *scale.Linear
	max    float64
}

func New(cfg Config) *Chart {
	return &Chart{cfg: cfg, bars: make(map[string]*Bar)}
}

func (c *Chart) Config() Config {
	return c.cfg
}

// SetColor changes the fill used from the next draw on.
func (c *Chart) SetColor(color string) {
	c.cfg.Color = color
}

// Resize changes the drawing area and redraws the current data.
func (c *Chart) Resize(width, height float64) (Join, error) {
	c.cfg.Width = width
	c.cfg.Height = height
	return c.Render(c.Data())
}

// Data returns the currently drawn data in draw order.
func (c *Chart) Data() []model.CategoryDatum {
	out := make([]model.CategoryDatum, len(c.order))
	for i, label := range c.order {
		out[i] = model.CategoryDatum{Label: label, Value: c.bars[label].Value}
	}
	return out
}

// Validate rejects data a chart cannot draw faithfully.
func Validate(data []model.CategoryDatum) error {
	seen := make(map[string]struct{}, len(data))
	for _, d := range data {
		if _, dup := seen[d.Label]; dup {
			return model.NewValidationError("categories", "duplicate label %q", d.Label)
		}
		seen[d.Label] = struct{}{}
		if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
			return model.NewValidationError("value", "category %q is not a finite number", d.Label)
		}
		if d.Value < 0 {
			return model.NewValidationError("value", "category %q is negative (%v)", d.Label, d.Value)
		}
	}
	return nil
}

func (c *Chart) inner() (float64, float64) {
	m := c.cfg.Margin
	w := math.Max(0, c.cfg.Width-m.Left-m.Right)
	h := math.Max(0, c.cfg.Height-m.Top-m.Bottom)
	return w, h
}

// Render draws data, reusing bars whose label was drawn before.
func (c *Chart) Render(data []model.CategoryDatum) (Join, error) {
	if err := Validate(data); err != nil {
		return Join{}, err
	}

	ordered := append([]model.CategoryDatum(nil), data...)
	if c.cfg.SortDescending {
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Value > ordered[j].Value })
	}

	labels := make([]string, len(ordered))
	c.max = 0
	for i, d := range ordered {
		labels[i] = d.Label
		c.max = math.Max(c.max, d.Value)
	}

	w, h := c.inner()
	if c.cfg.Orientation == Vertical {
		c.band = scale.NewBand(labels, 0, w, c.cfg.BandPadding, true)
		c.linear = scale.NewLinear(0, c.max, h, 0, true)
	} else {
		c.band = scale.NewBand(labels, 0, h, c.cfg.BandPadding, true)
		c.linear = scale.NewLinear(0, c.max, 0, w, true)
	}

	var join Join
	next := make(map[string]*Bar, len(ordered))
	for _, d := range ordered {
		target := c.layout(d.Value, d.Label, h)
		bar := &Bar{Label: d.Label, Value: d.Value, Rect: target}
		if prev, ok := c.bars[d.Label]; ok {
			bar.From = c.carry(prev.Rect, target)
			join.Update = append(join.Update, d.Label)
		} else {
			bar.From = c.collapsed(target, h)
			join.Enter = append(join.Enter, d.Label)
		}
		next[d.Label] = bar
	}
	for label := range c.bars {
		if _, ok := next[label]; !ok {
			join.Exit = append(join.Exit, label)
		}
	}
	sort.Strings(join.Exit)

	c.bars = next
	c.order = labels
	return join, nil
}

func (c *Chart) layout(value float64, label string, innerHeight float64) Rect {
	pos, _ := c.band.Map(label)
	bw := c.band.Bandwidth()
	if c.cfg.Orientation == Vertical {
		y := c.linear.Map(value)
		return Rect{X: pos, Y: y, Width: bw, Height: innerHeight - y}
	}
	return Rect{X: 0, Y: pos, Width: c.linear.Map(value), Height: bw}
}

// carry keeps the slot of the new layout and the length of the old one, so only
// the value dimension animates.
func (c *Chart) carry(prev, target Rect) Rect {
	if c.cfg.Orientation == Vertical {
		return Rect{X: target.X, Y: prev.Y, Width: target.Width, Height: prev.Height}
	}
	return Rect{X: target.X, Y: target.Y, Width: prev.Width, Height: target.Height}
}

func (c *Chart) collapsed(target Rect, innerHeight float64) Rect {
	if c.cfg.Orientation == Vertical {
		return Rect{X: target.X, Y: innerHeight, Width: target.Width}
	}
	return Rect{X: target.X, Y: target.Y, Height: target.Height}
}

// Bars returns the drawn bars in draw order.
func (c *Chart) Bars() []Bar {
	out := make([]Bar, len(c.order))
	for i, label := range c.order {
		out[i] = *c.bars[label]
	}
	return out
}

// Frame returns the bars as they look elapsed into the transition.
func (c *Chart) Frame(elapsed time.Duration) []Bar {
	t := 1.0
	if c.cfg.Duration > 0 {
		t = math.Max(0, math.Min(1, float64(elapsed)/float64(c.cfg.Duration)))
	}
	e := easeCubicInOut(t)

	bars := c.Bars()
	for i := range bars {
		bars[i].Rect = lerp(bars[i].From, bars[i].Rect, e)
	}
	return bars
}

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

func lerp(a, b Rect, t float64) Rect {
	mix := func(x, y float64) float64 { return x + (y-x)*t }
	return Rect{
		X:      mix(a.X, b.X),
		Y:      mix(a.Y, b.Y),
		Width:  mix(a.Width, b.Width),
		Height: mix(a.Height, b.Height),
	}
}

// Total is the sum of the drawn values.
func (c *Chart) Total() float64 {
	var sum float64
	for _, b := range c.bars {
		sum += b.Value
	}
	return sum
}

func (c *Chart) String() string {
	return fmt.Sprintf("barchart(%d bars, max %v)", len(c.order), c.max)
}
