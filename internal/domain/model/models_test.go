package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryDatumUnmarshal(t *testing.T) {
	var data []CategoryDatum
	err := json.Unmarshal([]byte(`[{"label":"Pothole","value":12},{"label":"Graffiti","value":"7"},{"label":2023,"value":" 1.5 "}]`), &data)
	require.NoError(t, err)
	assert.Equal(t, []CategoryDatum{
		{Label: "Pothole", Value: 12},
		{Label: "Graffiti", Value: 7},
		{Label: "2023", Value: 1.5},
	}, data)
}

func TestCategoryDatumRejectsNonNumeric(t *testing.T) {
	for _, body := range []string{
		`{"label":"Pothole","value":"lots"}`,
		`{"label":"Pothole","value":null}`,
		`{"label":"Pothole"}`,
		`{"label":"Pothole","value":[1]}`,
		`{"label":"Pothole","value":"NaN"}`,
		`{"value":3}`,
	} {
		var d CategoryDatum
		err := json.Unmarshal([]byte(body), &d)
		require.Error(t, err, body)
		assert.True(t, IsValidation(err), "%s: %v", body, err)
	}
}

func TestParseGeography(t *testing.T) {
	g, err := ParseGeography("")
	require.NoError(t, err)
	assert.Equal(t, Wards, g)

	g, err = ParseGeography("zips")
	require.NoError(t, err)
	assert.Equal(t, "zip", g.AreaProperty())
	assert.Equal(t, "zip_codes", g.QueryKey())
	assert.Equal(t, "Zip", g.DisplayName())

	_, err = ParseGeography("tracts")
	assert.True(t, IsValidation(err))

	assert.Equal(t, Zips, GeographyForProperty("zip"))
	assert.Equal(t, Wards, GeographyForProperty("ward"))
}

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"ward": "3", "call_issue_count": 4},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}},
    {"type": "Feature", "properties": {"ward": 27},
     "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[2,0],[3,0],[3,1],[2,1],[2,0]]],
        [[[4,0],[5,0],[5,1],[4,1],[4,0]], [[4.2,0.2],[4.4,0.2],[4.4,0.4],[4.2,0.2]]]
     ]}}
  ]
}`

func TestDecodeFeatureCollection(t *testing.T) {
	fc, err := DecodeFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	id, err := fc.Features[0].AreaID("ward")
	require.NoError(t, err)
	assert.Equal(t, "3", id)

	id, err = fc.Features[1].AreaID("ward")
	require.NoError(t, err)
	assert.Equal(t, "27", id)

	n, err := fc.Features[0].Count(CountProperty)
	require.NoError(t, err)
	assert.Equal(t, 4.0, n)

	n, err = fc.Features[1].Count(CountProperty)
	require.NoError(t, err)
	assert.Equal(t, 0.0, n, "missing count is zero")

	polys, err := fc.Features[1].Geometry.Polygons()
	require.NoError(t, err)
	require.Len(t, polys, 2)
	assert.Len(t, polys[1].Holes, 1)
}

func TestDecodeFeatureCollectionShapeErrors(t *testing.T) {
	_, err := DecodeFeatureCollection([]byte(`{"type":"Feature"}`))
	assert.True(t, IsDataShape(err))

	_, err = DecodeFeatureCollection([]byte(`[1,2]`))
	assert.True(t, IsDataShape(err))

	_, err = DecodeFeatureCollection([]byte(`{}`))
	assert.True(t, IsDataShape(err))
}

func TestFeatureShapeErrors(t *testing.T) {
	f := Feature{Properties: map[string]interface{}{"ward": true, "call_issue_count": "many"}}

	_, err := f.AreaID("ward")
	assert.True(t, IsDataShape(err))
	_, err = f.AreaID("zip")
	assert.True(t, IsDataShape(err))
	_, err = f.Count(CountProperty)
	assert.True(t, IsDataShape(err))

	_, err = Geometry{Type: "Point", Coordinates: json.RawMessage(`[1,2]`)}.Polygons()
	assert.True(t, IsDataShape(err))
}

func TestCloneCopiesProperties(t *testing.T) {
	fc, err := DecodeFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)

	clone := fc.Clone()
	clone.Features[0].SetCount(CountProperty, 99)

	orig, _ := fc.Features[0].Count(CountProperty)
	copied, _ := clone.Features[0].Count(CountProperty)
	assert.Equal(t, 4.0, orig)
	assert.Equal(t, 99.0, copied)
}

func TestPolygonGeometryRoundTrip(t *testing.T) {
	fc, err := DecodeFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)
	polys, err := fc.Features[1].Geometry.Polygons()
	require.NoError(t, err)

	g, err := PolygonGeometry(polys)
	require.NoError(t, err)
	assert.Equal(t, "MultiPolygon", g.Type)

	back, err := g.Polygons()
	require.NoError(t, err)
	assert.Equal(t, polys, back)
}

func TestErrorTaxonomy(t *testing.T) {
	netErr := &NetworkError{Op: "GET", URL: "http://x/filter-geo", Timeout: true, Err: assert.AnError}
	assert.True(t, IsNetwork(netErr))
	assert.True(t, Retryable(netErr))
	assert.ErrorIs(t, netErr, assert.AnError)
	assert.Contains(t, netErr.Error(), "timed out")

	assert.False(t, Retryable(NewValidationError("start_date", "bad")))
	assert.EqualError(t, NewValidationError("start_date", "must be %s", "YYYY-MM-DD"), "invalid start_date: must be YYYY-MM-DD")
}
