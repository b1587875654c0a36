package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/geo"
)

// OverpassSelector says which OSM relations make up a geography and which tag
// carries the area identifier.
type OverpassSelector struct {
	Filter string
	IDTag  string
}

// DefaultOverpassSelectors match Chicago wards and zip code areas.
var DefaultOverpassSelectors = map[model.Geography]OverpassSelector{
	model.Wards: {Filter: `["boundary"="political"]["political_division"="ward"]`, IDTag: "ref"},
	model.Zips:  {Filter: `["boundary"="postal_code"]`, IDTag: "postal_code"},
}

// OverpassBoundaryRepository builds boundaries from OSM relations inside a named
// area, for deployments without boundary files.
type OverpassBoundaryRepository struct {
	client    *overpass.Client
	endpoint  string
	area      string
	selectors map[model.Geography]OverpassSelector
	timeout   time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[model.Geography]*model.FeatureCollection
}

func NewOverpassBoundaryRepository(endpoint, area string, timeout time.Duration, logger *zap.Logger) *OverpassBoundaryRepository {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &OverpassBoundaryRepository{
		client:    &client,
		endpoint:  endpoint,
		area:      area,
		selectors: DefaultOverpassSelectors,
		timeout:   timeout,
		logger:    logger,
		cache:     make(map[model.Geography]*model.FeatureCollection),
	}
}

func (r *OverpassBoundaryRepository) Boundaries(ctx context.Context, geog model.Geography) (*model.FeatureCollection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fc, ok := r.cache[geog]; ok {
		return fc, nil
	}

	sel, ok := r.selectors[geog]
	if !ok {
		return nil, model.NewValidationError("geog", "no overpass selector for %q", geog)
	}
	result, err := r.executeQuery(ctx, boundaryQuery(r.area, sel))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s boundaries: %w", geog, err)
	}
	fc, err := relationsToCollection(result, geog, sel.IDTag)
	if err != nil {
		return nil, err
	}
	r.cache[geog] = fc
	r.logger.Info("loaded boundaries from overpass", zap.String("geog", string(geog)), zap.Int("features", len(fc.Features)))
	return fc, nil
}

func boundaryQuery(area string, sel OverpassSelector) string {
	return fmt.Sprintf(`
		[out:json];
		area["name"=%q]["boundary"="administrative"]->.city;
		(
			relation%s(area.city);
		);
		out body;
		>;
		out skel qt;
	`, area, sel.Filter)
}

// executeQuery runs the query, giving up when ctx ends. The client itself has no
// context support, so an abandoned query finishes on its HTTP timeout.
func (r *OverpassBoundaryRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type reply struct {
		result overpass.Result
		err    error
	}
	done := make(chan reply, 1)
	go func() {
		result, err := r.client.Query(query)
		done <- reply{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, &model.NetworkError{Op: "overpass query", URL: r.endpoint, Timeout: true, Err: ctx.Err()}
	case rep := <-done:
		if rep.err != nil {
			return nil, &model.NetworkError{Op: "overpass query", URL: r.endpoint, Err: rep.err}
		}
		return &rep.result, nil
	}
}

// relationsToCollection turns boundary relations into one feature per relation.
// Relations without the id tag are skipped.
func relationsToCollection(result *overpass.Result, geog model.Geography, idTag string) (*model.FeatureCollection, error) {
	ids := make([]int64, 0, len(result.Relations))
	for id := range result.Relations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fc := &model.FeatureCollection{Type: "FeatureCollection", Features: []model.Feature{}}
	for _, id := range ids {
		rel := result.Relations[id]
		areaID := rel.Tags[idTag]
		if areaID == "" {
			continue
		}

		var outer, inner [][]geo.Point
		for _, m := range rel.Members {
			if m.Type != overpass.ElementTypeWay || m.Way == nil {
				continue
			}
			line := make([]geo.Point, 0, len(m.Way.Nodes))
			for _, n := range m.Way.Nodes {
				if n != nil {
					line = append(line, geo.Pt(n.Lon, n.Lat))
				}
			}
			if m.Role == "inner" {
				inner = append(inner, line)
			} else {
				outer = append(outer, line)
			}
		}

		outerRings, err := assembleRings(outer)
		if err != nil {
			return nil, &model.DataShapeError{Property: idTag, Reason: fmt.Sprintf("relation %d: %v", id, err)}
		}
		innerRings, err := assembleRings(inner)
		if err != nil {
			return nil, &model.DataShapeError{Property: idTag, Reason: fmt.Sprintf("relation %d: %v", id, err)}
		}

		geometry, err := model.PolygonGeometry(withHoles(outerRings, innerRings))
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, model.Feature{
			Type:       "Feature",
			Properties: map[string]interface{}{geog.AreaProperty(): areaID},
			Geometry:   geometry,
		})
	}
	return fc, nil
}

// assembleRings joins way segments end to end into closed rings. Segments may be
// reversed relative to each other.
func assembleRings(lines [][]geo.Point) ([]geo.Ring, error) {
	pending := make([][]geo.Point, 0, len(lines))
	for _, l := range lines {
		if len(l) >= 2 {
			pending = append(pending, l)
		}
	}

	var rings []geo.Ring
	for len(pending) > 0 {
		ring := append([]geo.Point(nil), pending[0]...)
		pending = pending[1:]
		for ring[0] != ring[len(ring)-1] {
			next := -1
			tail := ring[len(ring)-1]
			for i, l := range pending {
				switch tail {
				case l[0]:
					ring = append(ring, l[1:]...)
					next = i
				case l[len(l)-1]:
					for k := len(l) - 2; k >= 0; k-- {
						ring = append(ring, l[k])
					}
					next = i
				}
				if next >= 0 {
					break
				}
			}
			if next < 0 {
				return nil, fmt.Errorf("ring starting at %v is not closed", ring[0])
			}
			pending = append(pending[:next], pending[next+1:]...)
		}
		if len(ring) < 4 {
			return nil, fmt.Errorf("ring starting at %v has fewer than 3 corners", ring[0])
		}
		rings = append(rings, geo.Ring(ring))
	}
	return rings, nil
}

// withHoles makes one polygon per outer ring and gives each inner ring to the
// outer ring that contains it.
func withHoles(outer, inner []geo.Ring) []geo.Polygon {
	polys := make([]geo.Polygon, len(outer))
	for i, o := range outer {
		polys[i] = geo.Polygon{Outer: o}
	}
	for _, h := range inner {
		for i := range polys {
			if polys[i].Outer.Contains(h[0]) {
				polys[i].Holes = append(polys[i].Holes, h)
				break
			}
		}
	}
	return polys
}
