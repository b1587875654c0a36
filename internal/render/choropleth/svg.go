package choropleth

import (
	"errors"
	"fmt"
	"io"

	"reporter_service/internal/render/svg"
)

var errNoScene = errors.New("choropleth: nothing rendered yet")

// WriteSVG writes the last scene: area paths, optional labels, the legend and,
// for print layouts, the two area tables to the right of the map.
func (r *Renderer) WriteSVG(w io.Writer) error {
	s := r.scene
	if s == nil {
		return errNoScene
	}
	width := s.Width
	if s.config.Tables {
		width += tableWidth * 2
	}

	out := svg.NewWriter(w)
	out.Start(width, s.Height, svg.A("class", "choropleth"))

	out.Open("g", svg.A("class", "areas"))
	for _, a := range s.Areas {
		attrs := []svg.Attr{
			svg.A("d", a.Path),
			svg.A("fill", a.Fill),
			svg.A("fill-opacity", FillOpacity),
			svg.A("fill-rule", "evenodd"),
			svg.A("stroke", StrokeColor),
			svg.A("stroke-opacity", StrokeOpacity),
			svg.A("stroke-width", StrokeWidth),
			svg.A("data-"+s.AreaProperty, a.ID),
			svg.A("data-count", formatCount(a.Count)),
		}
		if a.Tooltip == "" {
			out.Empty("path", attrs...)
			continue
		}
		out.Open("path", attrs...)
		out.Text("title", a.Tooltip)
		out.Close("path")
	}
	out.Close("g")

	if s.config.ShowLabels {
		out.Open("g", svg.A("class", "labels"), svg.A("font-size", 10.0), svg.A("text-anchor", "middle"))
		for _, a := range s.Areas {
			if !a.Label {
				continue
			}
			out.Text("text", a.ID, svg.A("x", a.Centroid.X), svg.A("y", a.Centroid.Y), svg.A("dy", "0.35em"))
		}
		out.Close("g")
	}

	writeLegend(out, s.Legend)
	if s.config.Tables {
		writeTables(out, s)
	}
	return out.End()
}

func writeLegend(out *svg.Writer, l Legend) {
	out.Open("g", svg.A("class", "legend"), svg.A("transform", "translate(0,"+svg.Num(l.Y)+")"))
	out.Text("text", l.Title, svg.A("x", 0.0), svg.A("y", -15.0), svg.A("font-weight", "bold"))
	for i, item := range l.Items {
		out.Open("g", svg.A("class", "legend-item"), svg.A("transform", fmt.Sprintf("translate(0,%s)", svg.Num(float64(i)*SwatchSize))))
		out.Empty("rect", svg.A("width", SwatchSize), svg.A("height", SwatchSize), svg.A("fill", item.Color))
		out.Text("text", item.Label, svg.A("x", 35.0), svg.A("y", 20.0))
		out.Close("g")
	}
	out.Close("g")
}

const (
	tableWidth = 140.0
	rowHeight  = 16.0
)

func writeTables(out *svg.Writer, s *Scene) {
	name := s.Geography.DisplayName()
	for col, rows := range s.Tables {
		x := s.Width + float64(col)*tableWidth
		out.Open("g", svg.A("class", "area-table"), svg.A("transform", fmt.Sprintf("translate(%s,20)", svg.Num(x))))
		out.Text("text", name, svg.A("x", 0.0), svg.A("y", 0.0), svg.A("font-weight", "bold"))
		out.Text("text", "Count", svg.A("x", 70.0), svg.A("y", 0.0), svg.A("font-weight", "bold"))
		for i, row := range rows {
			y := float64(i+1) * rowHeight
			out.Text("text", row.ID, svg.A("x", 0.0), svg.A("y", y))
			out.Text("text", formatCount(row.Count), svg.A("x", 70.0), svg.A("y", y))
		}
		out.Close("g")
	}
}
