package choropleth

import (
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// WritePNG rasterises the last scene with go-chart's PNG renderer. Tooltips have
// no raster form and are left out.
func (r *Renderer) WritePNG(w io.Writer) error {
	s := r.scene
	if s == nil {
		return errNoScene
	}
	width := s.Width
	if s.config.Tables {
		width += tableWidth * 2
	}

	rr, err := chart.PNG(int(width), int(s.Height))
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	rr.SetFont(font)

	rr.SetFillColor(drawing.ColorWhite)
	rr.SetStrokeColor(drawing.ColorWhite)
	rect(rr, 0, 0, width, s.Height)
	rr.Fill()

	stroke := drawing.ColorFromHex(StrokeColor).WithAlpha(alpha(StrokeOpacity))
	for _, a := range s.Areas {
		rr.SetFillColor(drawing.ColorFromHex(a.Fill).WithAlpha(alpha(FillOpacity)))
		rr.SetStrokeColor(stroke)
		rr.SetStrokeWidth(StrokeWidth)
		for _, ring := range a.Rings {
			for i, p := range ring {
				if i == 0 {
					rr.MoveTo(px(p.X), px(p.Y))
				} else {
					rr.LineTo(px(p.X), px(p.Y))
				}
			}
			rr.Close()
		}
		rr.FillStroke()
	}

	rr.SetFontColor(drawing.ColorBlack)
	if s.config.ShowLabels {
		rr.SetFontSize(8)
		for _, a := range s.Areas {
			if !a.Label {
				continue
			}
			box := rr.MeasureText(a.ID)
			rr.Text(a.ID, px(a.Centroid.X)-box.Width()/2, px(a.Centroid.Y)+box.Height()/2)
		}
	}

	l := s.Legend
	rr.SetFontSize(10)
	rr.Text(l.Title, 0, px(l.Y-15))
	for i, item := range l.Items {
		y := l.Y + float64(i)*SwatchSize
		c := drawing.ColorFromHex(item.Color)
		rr.SetFillColor(c)
		rr.SetStrokeColor(c)
		rect(rr, 0, y, SwatchSize, SwatchSize)
		rr.FillStroke()
		rr.SetFontColor(drawing.ColorBlack)
		rr.Text(item.Label, 35, px(y+20))
	}

	if s.config.Tables {
		name := s.Geography.DisplayName()
		for col, rows := range s.Tables {
			x := s.Width + float64(col)*tableWidth
			rr.Text(name, px(x), 20)
			rr.Text("Count", px(x+70), 20)
			for i, row := range rows {
				y := 20 + float64(i+1)*rowHeight
				rr.Text(row.ID, px(x), px(y))
				rr.Text(formatCount(row.Count), px(x+70), px(y))
			}
		}
	}

	return rr.Save(w)
}

func rect(rr chart.Renderer, x, y, w, h float64) {
	rr.MoveTo(px(x), px(y))
	rr.LineTo(px(x+w), px(y))
	rr.LineTo(px(x+w), px(y+h))
	rr.LineTo(px(x), px(y+h))
	rr.Close()
}

func px(v float64) int {
	return int(math.Round(v))
}

func alpha(opacity float64) uint8 {
	return uint8(math.Round(opacity * 255))
}
