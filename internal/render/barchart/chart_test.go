package barchart

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reporter_service/internal/domain/model"
)

func data(pairs ...interface{}) []model.CategoryDatum {
	var out []model.CategoryDatum
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, model.CategoryDatum{Label: pairs[i].(string), Value: float64(pairs[i+1].(int))})
	}
	return out
}

func TestRenderLaysOutHorizontalBars(t *testing.T) {
	c := New(DefaultConfig())
	join, err := c.Render(data("Pothole", 50, "Graffiti", 25, "Noise", 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"Pothole", "Graffiti", "Noise"}, join.Enter)
	assert.Empty(t, join.Update)
	assert.Empty(t, join.Exit)

	bars := c.Bars()
	require.Len(t, bars, 3)
	assert.Equal(t, Rect{X: 0, Y: 10, Width: 300, Height: 81}, bars[0].Rect)
	assert.Equal(t, Rect{X: 0, Y: 100, Width: 150, Height: 81}, bars[1].Rect)
	assert.Equal(t, Rect{X: 0, Y: 190, Width: 60, Height: 81}, bars[2].Rect)
	assert.Equal(t, 85.0, c.Total())
}

func TestFrameEasesFromZeroLength(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Render(data("Pothole", 50))
	require.NoError(t, err)

	start := c.Frame(0)
	assert.Equal(t, 0.0, start[0].Rect.Width)
	assert.Equal(t, c.Bars()[0].Rect.Y, start[0].Rect.Y)

	mid := c.Frame(375 * time.Millisecond)
	assert.InDelta(t, 150, mid[0].Rect.Width, 1e-9)

	early := c.Frame(100 * time.Millisecond)
	assert.Less(t, early[0].Rect.Width, 300*100.0/750, "cubic easing starts slow")

	end := c.Frame(time.Hour)
	assert.Equal(t, c.Bars()[0].Rect, end[0].Rect)
}

func TestRenderReconcilesByLabel(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Render(data("Pothole", 50, "Graffiti", 25, "Noise", 10))
	require.NoError(t, err)

	join, err := c.Render(data("Pothole", 100, "Graffiti", 25, "Trash", 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"Trash"}, join.Enter)
	assert.Equal(t, []string{"Pothole", "Graffiti"}, join.Update)
	assert.Equal(t, []string{"Noise"}, join.Exit)

	bars := c.Bars()
	graffiti := bars[1]
	assert.Equal(t, "Graffiti", graffiti.Label)
	assert.Equal(t, 150.0, graffiti.From.Width)
	assert.Equal(t, 75.0, graffiti.Rect.Width)
	assert.Equal(t, 0.0, bars[2].From.Width)

	labels := make([]string, 0, len(bars))
	for _, b := range c.Data() {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"Pothole", "Graffiti", "Trash"}, labels)
}

func TestRenderEmptyClearsChart(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Render(data("Pothole", 5))
	require.NoError(t, err)

	join, err := c.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pothole"}, join.Exit)
	assert.Empty(t, c.Bars())

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	assert.NotContains(t, buf.String(), "<rect")
}

func TestRenderRejectsBadData(t *testing.T) {
	cases := map[string][]model.CategoryDatum{
		"duplicate": {{Label: "a", Value: 1}, {Label: "a", Value: 2}},
		"nan":       {{Label: "a", Value: math.NaN()}},
		"inf":       {{Label: "a", Value: math.Inf(1)}},
		"negative":  {{Label: "a", Value: -1}},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			c := New(DefaultConfig())
			_, err := c.Render(d)
			require.Error(t, err)
			assert.True(t, model.IsValidation(err))
		})
	}
}

func TestVerticalBarsGrowFromBaseline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Orientation = Vertical
	c := New(cfg)
	_, err := c.Render(data("a", 10, "b", 5))
	require.NoError(t, err)

	bars := c.Bars()
	assert.Equal(t, 280.0, bars[0].Rect.Height)
	assert.Equal(t, 140.0, bars[1].Rect.Height)
	for _, b := range bars {
		assert.Equal(t, 280.0, b.Rect.Y+b.Rect.Height)
		assert.Equal(t, 280.0, b.From.Y)
		assert.Equal(t, 0.0, b.From.Height)
	}
}

func TestSortDescending(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SortDescending = true
	c := New(cfg)
	_, err := c.Render(data("low", 1, "high", 9, "mid", 5))
	require.NoError(t, err)
	got := []string{}
	for _, b := range c.Bars() {
		got = append(got, b.Label)
	}
	assert.Equal(t, []string{"high", "mid", "low"}, got)
}

func TestResizeAnimatesFromPreviousLength(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Render(data("Pothole", 50))
	require.NoError(t, err)

	join, err := c.Resize(450, 350)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pothole"}, join.Update)
	bar := c.Bars()[0]
	assert.Equal(t, 300.0, bar.From.Width)
	assert.Equal(t, 400.0, bar.Rect.Width)
}

func TestWriteSVG(t *testing.T) {
	c := New(DefaultConfig())
	_, err := c.Render(data("Pothole", 50, "Street & Alley", 25))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	out := buf.String()
	assert.Contains(t, out, `data-label="Pothole" data-value="50"`)
	assert.Contains(t, out, `fill="#b2ebf2"`)
	assert.Contains(t, out, `<animate attributeName="width" from="0" to="300" dur="750ms"`)
	assert.Contains(t, out, `Street &amp; Alley`)
	assert.Contains(t, out, `<title>Pothole: 50</title>`)
	assert.Contains(t, out, `>Calls/Issues</text>`)
}

func TestWritePNG(t *testing.T) {
	c := New(DefaultConfig())

	err := c.WritePNG(&bytes.Buffer{})
	assert.True(t, model.IsValidation(err))

	_, err = c.Render(data("a", 0, "b", 0))
	require.NoError(t, err)
	err = c.WritePNG(&bytes.Buffer{})
	assert.True(t, model.IsValidation(err))

	for _, d := range [][]model.CategoryDatum{
		data("Pothole", 50, "Graffiti", 25),
		data("Pothole", 4),
		data("Pothole", 4, "Graffiti", 4),
		data("Pothole", 4, "Graffiti", 0),
	} {
		_, err = c.Render(d)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, c.WritePNG(&buf), "%v", d)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
	}
}
