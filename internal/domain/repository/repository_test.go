package repository

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/serjvanilla/go-overpass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/geo"
)

func day(s string) time.Time {
	t, _ := time.Parse(model.DateLayout, s)
	return t
}

func TestBuildCallIssueQueryFilters(t *testing.T) {
	q := CallIssueQuery{
		Start:      day("2023-01-01"),
		End:        day("2023-12-31"),
		Categories: []string{"Pothole", "Graffiti"},
		Zips:       []string{"60614"},
	}
	query, args, err := buildCallIssueQuery(callsTable, q)
	require.NoError(t, err)

	assert.Contains(t, query, "FROM calls t")
	assert.Contains(t, query, "LEFT JOIN calls_categories l ON l.call_id = t.id")
	assert.Contains(t, query, "t.datetime_edit >= ? AND t.datetime_edit < ?")
	assert.Contains(t, query, "c2.name IN (?, ?)")
	assert.Contains(t, query, "a.zip IN (?)")
	assert.Equal(t, []interface{}{day("2023-01-01"), day("2024-01-01"), "Pothole", "Graffiti", "60614"}, args)

	bound := sqlx.Rebind(sqlx.DOLLAR, query)
	assert.Contains(t, bound, "t.datetime_edit >= $1")
	assert.Contains(t, bound, "a.zip IN ($5)")
}

func TestBuildCallIssueQueryWithoutFilters(t *testing.T) {
	query, args, err := buildCallIssueQuery(issuesTable, CallIssueQuery{})
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "t.title AS title")
	assert.Contains(t, query, "LEFT JOIN categories_issues l ON l.issue_id = t.id")
	assert.Empty(t, args)
}

func TestRowToModel(t *testing.T) {
	row := callIssueRow{
		ID:         7,
		CreatedAt:  day("2023-04-02"),
		Title:      sql.NullString{String: "Hole", Valid: true},
		Zip:        sql.NullString{String: "60614", Valid: true},
		Lat:        sql.NullFloat64{Float64: 41.9, Valid: true},
		Lon:        sql.NullFloat64{Float64: -87.6, Valid: true},
		Categories: pq.StringArray{"Pothole"},
	}
	ci := row.toModel("issue")
	assert.Equal(t, "issue", ci.Kind)
	assert.True(t, ci.HasLocation())
	assert.Equal(t, -87.6, *ci.Lon)
	assert.True(t, ci.UpdatedAt.IsZero())
	assert.Equal(t, []string{"Pothole"}, ci.Categories)

	row.Lon.Valid = false
	assert.False(t, row.toModel("call").HasLocation())
}

const wardFile = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"ward":"1"},
   "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`

func writeBoundaries(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chi_wards.geojson"), []byte(body), 0o644))
}

func TestFileBoundariesLoadOnce(t *testing.T) {
	dir := t.TempDir()
	writeBoundaries(t, dir, wardFile)
	repo := NewFileBoundaryRepository(dir, nil, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	results := make([]*model.FeatureCollection, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fc, err := repo.Boundaries(context.Background(), model.Wards)
			assert.NoError(t, err)
			results[i] = fc
		}(i)
	}
	wg.Wait()
	for _, fc := range results {
		assert.Same(t, results[0], fc)
	}
	require.Len(t, results[0].Features, 1)

	writeBoundaries(t, dir, `{"type":"FeatureCollection","features":[]}`)
	fc, err := repo.Boundaries(context.Background(), model.Wards)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1, "served from cache")

	repo.Invalidate(model.Wards)
	fc, err = repo.Boundaries(context.Background(), model.Wards)
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestInvalidateDuringLoadIsNotLost(t *testing.T) {
	dir := t.TempDir()
	writeBoundaries(t, dir, wardFile)
	repo := NewFileBoundaryRepository(dir, nil, zaptest.NewLogger(t))
	repo.loaded = func(geog model.Geography) {
		writeBoundaries(t, dir, `{"type":"FeatureCollection","features":[]}`)
		repo.Invalidate(geog)
	}

	fc, err := repo.Boundaries(context.Background(), model.Wards)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	repo.loaded = nil
	fc, err = repo.Boundaries(context.Background(), model.Wards)
	require.NoError(t, err)
	assert.Empty(t, fc.Features, "stale load must not be cached")
}

func TestFileBoundariesErrors(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileBoundaryRepository(dir, nil, zaptest.NewLogger(t))

	_, err := repo.Boundaries(context.Background(), model.Zips)
	assert.ErrorIs(t, err, os.ErrNotExist)

	writeBoundaries(t, dir, `{"type":"Topology"}`)
	_, err = repo.Boundaries(context.Background(), model.Wards)
	assert.True(t, model.IsDataShape(err))

	_, err = repo.Boundaries(context.Background(), model.Geography("counties"))
	assert.True(t, model.IsValidation(err))
}

func TestWatchInvalidatesChangedFile(t *testing.T) {
	dir := t.TempDir()
	writeBoundaries(t, dir, wardFile)
	repo := NewFileBoundaryRepository(dir, nil, zaptest.NewLogger(t))
	_, err := repo.Boundaries(context.Background(), model.Wards)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- repo.Watch(ctx) }()

	require.Eventually(t, func() bool {
		writeBoundaries(t, dir, `{"type":"FeatureCollection","features":[]}`)
		fc, err := repo.Boundaries(context.Background(), model.Wards)
		return err == nil && len(fc.Features) == 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestAssembleRings(t *testing.T) {
	a, b, c, d := geo.Pt(0, 0), geo.Pt(2, 0), geo.Pt(2, 2), geo.Pt(0, 2)

	// Two segments, the second stored backwards.
	rings, err := assembleRings([][]geo.Point{{a, b, c}, {a, d, c}})
	require.NoError(t, err)
	require.Len(t, rings, 1)
	assert.Equal(t, geo.Ring{a, b, c, d, a}, rings[0])

	closed, err := assembleRings([][]geo.Point{{a, b, c, a}})
	require.NoError(t, err)
	assert.Len(t, closed, 1)

	_, err = assembleRings([][]geo.Point{{a, b, c}})
	assert.Error(t, err)
}

func way(points ...geo.Point) *overpass.Way {
	w := &overpass.Way{}
	for _, p := range points {
		w.Nodes = append(w.Nodes, &overpass.Node{Lat: p.Y, Lon: p.X})
	}
	return w
}

func TestRelationsToCollection(t *testing.T) {
	a, b, c, d := geo.Pt(0, 0), geo.Pt(4, 0), geo.Pt(4, 4), geo.Pt(0, 4)
	h1, h2, h3 := geo.Pt(1, 1), geo.Pt(2, 1), geo.Pt(2, 2)

	rel := &overpass.Relation{Members: []overpass.RelationMember{
		{Type: overpass.ElementTypeWay, Role: "outer", Way: way(a, b, c)},
		{Type: overpass.ElementTypeWay, Role: "outer", Way: way(c, d, a)},
		{Type: overpass.ElementTypeWay, Role: "inner", Way: way(h1, h2, h3, h1)},
		{Type: overpass.ElementTypeNode, Role: "label"},
	}}
	rel.ID = 10
	rel.Tags = map[string]string{"postal_code": "60614"}

	unnamed := &overpass.Relation{}
	unnamed.ID = 11

	result := &overpass.Result{Relations: map[int64]*overpass.Relation{10: rel, 11: unnamed}}
	fc, err := relationsToCollection(result, model.Zips, "postal_code")
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	id, err := f.AreaID("zip")
	require.NoError(t, err)
	assert.Equal(t, "60614", id)

	polys, err := f.Geometry.Polygons()
	require.NoError(t, err)
	require.Len(t, polys, 1)
	assert.Len(t, polys[0].Holes, 1)
	assert.InDelta(t, 16-0.5, polys[0].Area(), 1e-9)
}
