// Package choropleth colors area boundaries by their call/issue counts.
//
// A Renderer fits its projection to the first non-empty collection it draws and keeps
// it, so a filter change recolors the same map instead of moving it. Each Render
// builds a Scene; WriteSVG and WritePNG draw the last scene.
package choropleth

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/geo"
	"reporter_service/internal/render/palette"
	"reporter_service/internal/render/scale"
	"reporter_service/internal/render/svg"
)

// Fixed stroke and legend layout.
const (
	StrokeColor   = "#6F7070"
	StrokeOpacity = 0.8
	StrokeWidth   = 1.0
	FillOpacity   = 0.8
	SwatchSize    = 25.0
	LegendTop     = 0.7
)

type Config struct {
	Palette       string
	AreaProperty  string
	CountProperty string
	ShowLabels    bool
	HideList      []string
	Tooltips      bool
	Tables        bool
	Width         float64
	Height        float64
	// SplitAt divides the print tables; zero picks the default for the geography.
	SplitAt float64
}

func DefaultConfig() Config {
	return Config{
		Palette:       palette.Default,
		CountProperty: model.CountProperty,
		Tooltips:      true,
		Width:         960,
		Height:        600,
	}
}

// PrintConfig is the layout of the printable report: labels on, tooltips off,
// side tables on.
func PrintConfig(hide []string) Config {
	cfg := DefaultConfig()
	cfg.ShowLabels = true
	cfg.HideList = hide
	cfg.Tooltips = false
	cfg.Tables = true
	cfg.Width = 700
	cfg.Height = 800
	return cfg
}

// DefaultSplit returns the identifier the print tables break at.
func DefaultSplit(g model.Geography) float64 {
	if g == model.Zips {
		return 60630
	}
	return 25
}

type Area struct {
	ID       string
	Count    float64
	Fill     string
	Path     string
	Rings    [][]geo.Point
	Centroid geo.Point
	Label    bool
	Tooltip  string
}

type LegendItem struct {
	Color  string
	Lo, Hi float64
	Label  string
}

type Legend struct {
	Title string
	Y     float64
	Items []LegendItem
}

type TableRow struct {
	ID    string
	Count float64
}

type Scene struct {
	Width        float64
	Height       float64
	Geography    model.Geography
	AreaProperty string
	Max          float64
	Areas        []Area
	Legend       Legend
	// Tables holds the two print columns; both are nil unless tables are enabled.
	Tables [2][]TableRow
	config Config
}

type Renderer struct {
	cfg    Config
	colors []string
	proj   *geo.Mercator
	fitted bool
	scene  *Scene
}

// New returns a renderer; an unknown palette is a ValidationError.
func New(cfg Config) (*Renderer, error) {
	colors, err := palette.Colors(cfg.Palette)
	if err != nil {
		return nil, err
	}
	if cfg.CountProperty == "" {
		cfg.CountProperty = model.CountProperty
	}
	return &Renderer{cfg: cfg, colors: colors, proj: geo.NewMercator()}, nil
}

func (r *Renderer) Config() Config {
	return r.cfg
}

// SetPalette switches the color scheme used from the next Render on.
func (r *Renderer) SetPalette(name string) error {
	colors, err := palette.Colors(name)
	if err != nil {
		return err
	}
	r.cfg.Palette = name
	r.colors = colors
	return nil
}

// Resize changes the drawing area. The projection is refitted on the next Render.
func (r *Renderer) Resize(width, height float64) {
	r.cfg.Width = width
	r.cfg.Height = height
	r.proj = geo.NewMercator()
	r.fitted = false
}

// Projection returns the projection in use; it is only meaningful after a
// non-empty Render.
func (r *Renderer) Projection() geo.Mercator {
	return *r.proj
}

// Scene returns the last rendered scene or nil.
func (r *Renderer) Scene() *Scene {
	return r.scene
}

type parsed struct {
	id    string
	count float64
	polys []geo.Polygon
}

// Render replaces the current scene with one drawn from fc.
func (r *Renderer) Render(fc *model.FeatureCollection) (*Scene, error) {
	if fc == nil {
		return nil, &model.DataShapeError{Reason: "no feature collection"}
	}
	prop, err := r.areaProperty(fc)
	if err != nil {
		return nil, err
	}

	features := make([]parsed, 0, len(fc.Features))
	var all []geo.Polygon
	maxCount := 0.0
	for i, f := range fc.Features {
		id, err := f.AreaID(prop)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		count, err := f.Count(r.cfg.CountProperty)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", id, err)
		}
		polys, err := f.Geometry.Polygons()
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", id, err)
		}
		features = append(features, parsed{id: id, count: count, polys: polys})
		all = append(all, polys...)
		maxCount = math.Max(maxCount, count)
	}

	if !r.fitted && len(all) > 0 {
		r.proj.Fit(geo.ProjectedBounds(all), r.cfg.Width, r.cfg.Height, geo.DefaultFill)
		r.fitted = true
	}

	geog := model.GeographyForProperty(prop)
	q := scale.NewQuantize(0, maxCount, r.colors)
	hidden := make(map[string]struct{}, len(r.cfg.HideList))
	for _, id := range r.cfg.HideList {
		hidden[id] = struct{}{}
	}

	scene := &Scene{
		Width:        r.cfg.Width,
		Height:       r.cfg.Height,
		Geography:    geog,
		AreaProperty: prop,
		Max:          maxCount,
		Areas:        make([]Area, 0, len(features)),
		Legend:       legend(q, geog, r.cfg.Height),
		config:       r.cfg,
	}

	for _, f := range features {
		area := Area{
			ID:       f.id,
			Count:    f.count,
			Fill:     q.Color(f.count),
			Centroid: r.proj.Project(geo.Centroid(f.polys)),
		}
		for _, p := range f.polys {
			for _, ring := range p.Rings() {
				area.Rings = append(area.Rings, ring.Map(r.proj.Project))
			}
		}
		area.Path = pathData(area.Rings)
		if r.cfg.ShowLabels {
			_, skip := hidden[f.id]
			area.Label = !skip
		}
		if r.cfg.Tooltips {
			area.Tooltip = fmt.Sprintf("%s: %s / Count: %s", geog.DisplayName(), f.id, formatCount(f.count))
		}
		scene.Areas = append(scene.Areas, area)
	}

	if r.cfg.Tables {
		split := r.cfg.SplitAt
		if split == 0 {
			split = DefaultSplit(geog)
		}
		scene.Tables = tables(features, split)
	}

	r.scene = scene
	return scene, nil
}

// areaProperty returns the configured property or detects it from the first feature.
func (r *Renderer) areaProperty(fc *model.FeatureCollection) (string, error) {
	if r.cfg.AreaProperty != "" {
		return r.cfg.AreaProperty, nil
	}
	if len(fc.Features) == 0 {
		return model.Wards.AreaProperty(), nil
	}
	props := fc.Features[0].Properties
	for _, g := range []model.Geography{model.Zips, model.Wards} {
		if _, ok := props[g.AreaProperty()]; ok {
			return g.AreaProperty(), nil
		}
	}
	return "", &model.DataShapeError{Property: "ward|zip", Reason: "first feature names no area"}
}

func legend(q *scale.Quantize, geog model.Geography, height float64) Legend {
	l := Legend{Title: LegendTitle(geog), Y: height * LegendTop}
	for i, c := range q.Colors() {
		lo, hi := q.InvertExtent(i)
		l.Items = append(l.Items, LegendItem{
			Color: c,
			Lo:    lo,
			Hi:    hi,
			Label: fmt.Sprintf("%d-%d", int64(math.Floor(lo)), int64(math.Floor(hi))),
		})
	}
	return l
}

// LegendTitle names what the map counts.
func LegendTitle(geog model.Geography) string {
	if geog == model.Zips {
		return "Calls/Issues by Zip Code"
	}
	return "Calls/Issues by Ward"
}

func pathData(rings [][]geo.Point) string {
	var b strings.Builder
	for _, ring := range rings {
		for i, p := range ring {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			b.WriteString(svg.Num(p.X))
			b.WriteByte(',')
			b.WriteString(svg.Num(p.Y))
		}
		if len(ring) > 0 {
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func tables(features []parsed, split float64) [2][]TableRow {
	rows := make([]TableRow, len(features))
	for i, f := range features {
		rows[i] = TableRow{ID: f.id, Count: f.count}
	}
	sort.SliceStable(rows, func(i, j int) bool { return model.LessAreaID(rows[i].ID, rows[j].ID) })

	out := [2][]TableRow{{}, {}}
	for _, row := range rows {
		n, err := strconv.ParseFloat(row.ID, 64)
		if err == nil && n <= split {
			out[0] = append(out[0], row)
		} else {
			out[1] = append(out[1], row)
		}
	}
	return out
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
