package barchart

import (
	"fmt"
	"io"
	"strconv"

	"reporter_service/internal/render/svg"
)

// keySplines for a cubic in-out curve, the same easing Frame uses.
const cubicInOut = "0.645 0.045 0.355 1"

// WriteSVG writes the chart with its axes. Bars that changed carry an animate
// element running from their previous geometry to the new one.
func (c *Chart) WriteSVG(w io.Writer) error {
	cfg := c.cfg
	inW, inH := c.inner()

	out := svg.NewWriter(w)
	out.Start(cfg.Width, cfg.Height, svg.A("class", "bar-chart"))
	out.Open("g", svg.A("transform", fmt.Sprintf("translate(%s,%s)", svg.Num(cfg.Margin.Left), svg.Num(cfg.Margin.Top))))

	if len(c.order) > 0 {
		c.writeCategoryAxis(out, inH)
		c.writeValueAxis(out, inW, inH)
	}

	dur := strconv.FormatInt(cfg.Duration.Milliseconds(), 10) + "ms"
	for _, label := range c.order {
		b := c.bars[label]
		out.Open("rect",
			svg.A("class", "bar"),
			svg.A("data-label", b.Label),
			svg.A("data-value", formatValue(b.Value)),
			svg.A("x", b.Rect.X),
			svg.A("y", b.Rect.Y),
			svg.A("width", b.Rect.Width),
			svg.A("height", b.Rect.Height),
			svg.A("fill", cfg.Color),
		)
		out.Text("title", b.Label+": "+formatValue(b.Value))
		if cfg.Duration > 0 {
			animate(out, "x", b.From.X, b.Rect.X, dur)
			animate(out, "y", b.From.Y, b.Rect.Y, dur)
			animate(out, "width", b.From.Width, b.Rect.Width, dur)
			animate(out, "height", b.From.Height, b.Rect.Height, dur)
		}
		out.Close("rect")
	}

	out.Close("g")
	return out.End()
}

func animate(out *svg.Writer, attr string, from, to float64, dur string) {
	if svg.Num(from) == svg.Num(to) {
		return
	}
	out.Empty("animate",
		svg.A("attributeName", attr),
		svg.A("from", from),
		svg.A("to", to),
		svg.A("dur", dur),
		svg.A("fill", "freeze"),
		svg.A("calcMode", "spline"),
		svg.A("keyTimes", "0;1"),
		svg.A("keySplines", cubicInOut),
	)
}

func (c *Chart) writeCategoryAxis(out *svg.Writer, inH float64) {
	half := c.band.Bandwidth() / 2
	if c.cfg.Orientation == Vertical {
		out.Open("g", svg.A("class", "axis axis-category"), svg.A("transform", "translate(0,"+svg.Num(inH)+")"))
		for _, label := range c.order {
			x, _ := c.band.Map(label)
			out.Text("text", label,
				svg.A("transform", fmt.Sprintf("translate(%s,9) rotate(-45)", svg.Num(x+half))),
				svg.A("text-anchor", "end"),
				svg.A("dy", "0.71em"),
			)
		}
		out.Close("g")
		return
	}
	out.Open("g", svg.A("class", "axis axis-category"))
	for _, label := range c.order {
		y, _ := c.band.Map(label)
		out.Text("text", label,
			svg.A("x", -6.0),
			svg.A("y", y+half),
			svg.A("dy", "0.32em"),
			svg.A("text-anchor", "end"),
		)
	}
	out.Close("g")
}

func (c *Chart) writeValueAxis(out *svg.Writer, inW, inH float64) {
	ticks := c.linear.Ticks(c.cfg.Ticks)
	if c.cfg.Orientation == Vertical {
		out.Open("g", svg.A("class", "axis axis-value"))
		for _, t := range ticks {
			y := c.linear.Map(t)
			out.Empty("line", svg.A("x1", -6.0), svg.A("x2", 0.0), svg.A("y1", y), svg.A("y2", y), svg.A("stroke", "#000"))
			out.Text("text", formatValue(t), svg.A("x", -9.0), svg.A("y", y), svg.A("dy", "0.32em"), svg.A("text-anchor", "end"))
		}
		if c.cfg.AxisLabel != "" {
			out.Text("text", c.cfg.AxisLabel,
				svg.A("transform", fmt.Sprintf("translate(%s,%s) rotate(-90)", svg.Num(-c.cfg.Margin.Left+12), svg.Num(inH/2))),
				svg.A("text-anchor", "middle"),
			)
		}
		out.Close("g")
		return
	}
	out.Open("g", svg.A("class", "axis axis-value"), svg.A("transform", "translate(0,"+svg.Num(inH)+")"))
	for _, t := range ticks {
		x := c.linear.Map(t)
		out.Empty("line", svg.A("x1", x), svg.A("x2", x), svg.A("y1", 0.0), svg.A("y2", 6.0), svg.A("stroke", "#000"))
		out.Text("text", formatValue(t), svg.A("x", x), svg.A("y", 9.0), svg.A("dy", "0.71em"), svg.A("text-anchor", "middle"))
	}
	if c.cfg.AxisLabel != "" {
		out.Text("text", c.cfg.AxisLabel, svg.A("x", inW/2), svg.A("y", 40.0), svg.A("text-anchor", "middle"))
	}
	out.Close("g")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
