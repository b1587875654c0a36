package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"reporter_service/internal/geo"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// Geometry keeps the raw coordinates so Polygon and MultiPolygon share one type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// DecodeFeatureCollection parses GeoJSON and checks the top-level shape.
func DecodeFeatureCollection(data []byte) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, &DataShapeError{Property: "features", Reason: err.Error()}
	}
	if fc.Type != "" && fc.Type != "FeatureCollection" {
		return nil, &DataShapeError{Property: "type", Reason: fmt.Sprintf("expected FeatureCollection, got %q", fc.Type)}
	}
	if fc.Type == "" && fc.Features == nil {
		return nil, &DataShapeError{Property: "features", Reason: "missing"}
	}
	return &fc, nil
}

// Clone copies the collection with fresh property maps; geometry is shared.
func (fc *FeatureCollection) Clone() *FeatureCollection {
	out := &FeatureCollection{Type: fc.Type, Features: make([]Feature, len(fc.Features))}
	for i, f := range fc.Features {
		props := make(map[string]interface{}, len(f.Properties)+1)
		for k, v := range f.Properties {
			props[k] = v
		}
		out.Features[i] = Feature{Type: f.Type, Properties: props, Geometry: f.Geometry}
	}
	return out
}

// AreaID returns the identifier stored under prop, formatting numeric values
// without a fractional part ("3", not "3.0").
func (f Feature) AreaID(prop string) (string, error) {
	v, ok := f.Properties[prop]
	if !ok || v == nil {
		return "", &DataShapeError{Property: prop, Reason: "missing area identifier"}
	}
	switch id := v.(type) {
	case string:
		if strings.TrimSpace(id) == "" {
			return "", &DataShapeError{Property: prop, Reason: "empty area identifier"}
		}
		return id, nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case json.Number:
		return id.String(), nil
	case int:
		return strconv.Itoa(id), nil
	}
	return "", &DataShapeError{Property: prop, Reason: fmt.Sprintf("unsupported identifier type %T", v)}
}

// Count returns the numeric value stored under prop. A missing property counts as 0.
func (f Feature) Count(prop string) (float64, error) {
	v, ok := f.Properties[prop]
	if !ok || v == nil {
		return 0, nil
	}
	var n float64
	switch c := v.(type) {
	case float64:
		n = c
	case int:
		n = float64(c)
	case json.Number:
		parsed, err := c.Float64()
		if err != nil {
			return 0, &DataShapeError{Property: prop, Reason: err.Error()}
		}
		n = parsed
	default:
		return 0, &DataShapeError{Property: prop, Reason: fmt.Sprintf("count is %T, not a number", v)}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, &DataShapeError{Property: prop, Reason: "count is not finite"}
	}
	return n, nil
}

// SetCount stores a count under prop.
func (f Feature) SetCount(prop string, n float64) {
	f.Properties[prop] = n
}

// Polygons decodes Polygon and MultiPolygon coordinates.
func (g Geometry) Polygons() ([]geo.Polygon, error) {
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, &DataShapeError{Property: "geometry", Reason: err.Error()}
		}
		p, err := toPolygon(coords)
		if err != nil {
			return nil, err
		}
		return []geo.Polygon{p}, nil
	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, &DataShapeError{Property: "geometry", Reason: err.Error()}
		}
		polys := make([]geo.Polygon, 0, len(coords))
		for _, c := range coords {
			p, err := toPolygon(c)
			if err != nil {
				return nil, err
			}
			polys = append(polys, p)
		}
		return polys, nil
	}
	return nil, &DataShapeError{Property: "geometry", Reason: fmt.Sprintf("unsupported geometry type %q", g.Type)}
}

func toPolygon(coords [][][]float64) (geo.Polygon, error) {
	if len(coords) == 0 {
		return geo.Polygon{}, &DataShapeError{Property: "geometry", Reason: "polygon without rings"}
	}
	rings := make([]geo.Ring, len(coords))
	for i, ring := range coords {
		r := make(geo.Ring, 0, len(ring))
		for _, pos := range ring {
			if len(pos) < 2 {
				return geo.Polygon{}, &DataShapeError{Property: "geometry", Reason: "position with fewer than 2 values"}
			}
			r = append(r, geo.Pt(pos[0], pos[1]))
		}
		rings[i] = r
	}
	return geo.Polygon{Outer: rings[0], Holes: rings[1:]}, nil
}

// PolygonGeometry encodes polygons back into a GeoJSON geometry.
func PolygonGeometry(polys []geo.Polygon) (Geometry, error) {
	encode := func(p geo.Polygon) [][][]float64 {
		rings := p.Rings()
		out := make([][][]float64, len(rings))
		for i, r := range rings {
			out[i] = make([][]float64, len(r))
			for j, v := range r {
				out[i][j] = []float64{v.X, v.Y}
			}
		}
		return out
	}

	var (
		raw []byte
		err error
		typ string
	)
	if len(polys) == 1 {
		typ = "Polygon"
		raw, err = json.Marshal(encode(polys[0]))
	} else {
		typ = "MultiPolygon"
		all := make([][][][]float64, len(polys))
		for i, p := range polys {
			all[i] = encode(p)
		}
		raw, err = json.Marshal(all)
	}
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to encode geometry: %w", err)
	}
	return Geometry{Type: typ, Coordinates: raw}, nil
}
