package core

import (
	"sort"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/geo"
)

// AreaIndex locates points in the areas of a boundary collection. Each area keeps
// its bounding box so most areas are rejected without a polygon test.
type AreaIndex struct {
	areas []indexedArea
}

type indexedArea struct {
	id     string
	bounds geo.Bounds
	polys  []geo.Polygon
}

func NewAreaIndex(fc *model.FeatureCollection, prop string) (*AreaIndex, error) {
	ix := &AreaIndex{areas: make([]indexedArea, 0, len(fc.Features))}
	for _, f := range fc.Features {
		id, err := f.AreaID(prop)
		if err != nil {
			return nil, err
		}
		polys, err := f.Geometry.Polygons()
		if err != nil {
			return nil, err
		}
		ix.areas = append(ix.areas, indexedArea{id: id, bounds: geo.BoundsOf(polys), polys: polys})
	}
	return ix, nil
}

// Locate returns the area containing the lon/lat point. Where areas overlap the
// first one in collection order wins.
func (ix *AreaIndex) Locate(lon, lat float64) (string, bool) {
	pt := geo.Pt(lon, lat)
	for _, a := range ix.areas {
		if !a.bounds.Contains(pt) {
			continue
		}
		for _, p := range a.polys {
			if p.Contains(pt) {
				return a.id, true
			}
		}
	}
	return "", false
}

// IDs returns the area identifiers, numbers in numeric order.
func (ix *AreaIndex) IDs() []string {
	ids := make([]string, len(ix.areas))
	for i, a := range ix.areas {
		ids[i] = a.id
	}
	sort.SliceStable(ids, func(i, j int) bool { return model.LessAreaID(ids[i], ids[j]) })
	return ids
}

// Len is the number of indexed areas.
func (ix *AreaIndex) Len() int {
	return len(ix.areas)
}
