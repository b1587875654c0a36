package barchart

import (
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"reporter_service/internal/domain/model"
)

// WritePNG rasterises the current bars. The raster chart always draws vertical
// bars and does not animate.
func (c *Chart) WritePNG(w io.Writer) error {
	if len(c.order) == 0 {
		return model.NewValidationError("categories", "no bars to draw")
	}
	if c.max == 0 {
		return model.NewValidationError("categories", "every category count is zero")
	}

	fill := drawing.ColorFromHex(c.cfg.Color)
	bars := make([]chart.Value, 0, len(c.order))
	for _, label := range c.order {
		bars = append(bars, chart.Value{
			Label: label,
			Value: c.bars[label].Value,
			Style: chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		})
	}

	m := c.cfg.Margin
	inW, _ := c.inner()
	step := inW / float64(len(bars))
	barWidth := int(math.Max(1, math.Floor(step*(1-c.cfg.BandPadding))))
	spacing := int(math.Max(1, math.Floor(step*c.cfg.BandPadding)))

	graph := chart.BarChart{
		Title:      c.cfg.AxisLabel,
		Width:      int(c.cfg.Width),
		Height:     int(c.cfg.Height),
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    int(m.Top) + 20,
				Right:  int(m.Right),
				Bottom: int(m.Bottom),
				Left:   int(m.Left),
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: c.max},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

