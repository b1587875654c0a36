package view

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/filter"
)

const oneWard = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"ward":"3","call_issue_count":12},
   "geometry":{"type":"Polygon","coordinates":[[[-87.8,41.8],[-87.6,41.8],[-87.6,41.9],[-87.8,41.9],[-87.8,41.8]]]}}]}`

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	queries []string
	started chan struct{}
	// block makes the first call wait for its context.
	block bool
	errs  []error
	geo   *model.FeatureCollection
	wards []model.CategoryDatum
}

func (f *fakeSource) next(ctx context.Context, p filter.Params) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.queries = append(f.queries, p.Encode())
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()

	if f.block && n == 1 {
		close(f.started)
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeSource) FilterGeo(ctx context.Context, p filter.Params) (*model.FeatureCollection, error) {
	if err := f.next(ctx, p); err != nil {
		return nil, err
	}
	return f.geo.Clone(), nil
}

func (f *fakeSource) FilterWards(ctx context.Context, p filter.Params) ([]model.CategoryDatum, error) {
	if err := f.next(ctx, p); err != nil {
		return nil, err
	}
	return f.wards, nil
}

func geoSource(t *testing.T) *fakeSource {
	fc, err := model.DecodeFeatureCollection([]byte(oneWard))
	require.NoError(t, err)
	return &fakeSource{geo: fc, started: make(chan struct{})}
}

func form(values url.Values) *filter.ValuesForm {
	return filter.NewValuesForm(values)
}

func TestSubmitDrawsMap(t *testing.T) {
	src := geoSource(t)
	c, err := NewController(MapMode, src, zaptest.NewLogger(t), 480, 300)
	require.NoError(t, err)

	err = c.Submit(context.Background(), form(url.Values{"color_choice": {"Greens"}, "wards": {"3"}}))
	require.NoError(t, err)

	st := c.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
	assert.Equal(t, "Greens", st.Palette)
	assert.Equal(t, "/filter-csv?color_choice=Greens&wards=3", st.Links.CSV)
	require.NotNil(t, st.Areas)
	assert.Equal(t, []string{"color_choice=Greens&wards=3"}, src.queries)

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	assert.Contains(t, buf.String(), `data-ward="3"`)
}

func TestInvalidFormSendsNothing(t *testing.T) {
	src := geoSource(t)
	c, err := NewController(MapMode, src, zaptest.NewLogger(t), 480, 300)
	require.NoError(t, err)

	err = c.Submit(context.Background(), form(url.Values{"start_date": {"yesterday"}, "color_choice": {"Blues"}}))
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
	assert.Zero(t, src.calls)

	st := c.State()
	assert.Contains(t, st.Err, "start_date")
	assert.False(t, st.Retryable)
	assert.False(t, st.Loading)
}

func TestNewerSubmitSupersedesOlder(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := geoSource(t)
	src.block = true
	c, err := NewController(MapMode, src, zaptest.NewLogger(t), 480, 300)
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		first <- c.Submit(context.Background(), form(url.Values{"color_choice": {"Blues"}, "wards": {"1"}}))
	}()
	<-src.started
	assert.True(t, c.State().Loading)

	err = c.Submit(context.Background(), form(url.Values{"color_choice": {"Reds"}, "wards": {"3"}}))
	require.NoError(t, err)
	assert.ErrorIs(t, <-first, ErrStale)

	st := c.State()
	assert.Equal(t, "Reds", st.Palette)
	assert.Equal(t, []string{"3"}, st.Criteria.Areas)
	assert.Empty(t, st.Err)
}

func TestFailuresAreRetryable(t *testing.T) {
	src := geoSource(t)
	src.errs = []error{&model.NetworkError{Op: "GET", URL: "/filter-geo", Timeout: true, Err: context.DeadlineExceeded}}
	c, err := NewController(MapMode, src, zaptest.NewLogger(t), 480, 300)
	require.NoError(t, err)

	err = c.Submit(context.Background(), form(url.Values{"color_choice": {"Blues"}}))
	require.Error(t, err)
	st := c.State()
	assert.False(t, st.Loading)
	assert.True(t, st.Retryable)
	assert.NotEmpty(t, st.Err)
	assert.Nil(t, st.Areas)

	require.NoError(t, c.Retry(context.Background()))
	st = c.State()
	assert.Empty(t, st.Err)
	assert.NotNil(t, st.Areas)
	assert.Equal(t, src.queries[0], src.queries[1])
}

func TestBadDataIsRetryable(t *testing.T) {
	src := geoSource(t)
	src.geo.Features[0].Properties["call_issue_count"] = "many"
	c, err := NewController(MapMode, src, zaptest.NewLogger(t), 480, 300)
	require.NoError(t, err)

	err = c.Submit(context.Background(), form(url.Values{"color_choice": {"Blues"}}))
	require.Error(t, err)
	assert.True(t, model.IsDataShape(err))
	assert.True(t, c.State().Retryable)
}

func TestRetryNeedsARequest(t *testing.T) {
	c, err := NewController(MapMode, geoSource(t), zaptest.NewLogger(t), 480, 300)
	require.NoError(t, err)
	assert.Error(t, c.Retry(context.Background()))
}

func TestResizeRedrawsLastDataset(t *testing.T) {
	c, err := NewController(MapMode, geoSource(t), zaptest.NewLogger(t), 480, 300)
	require.NoError(t, err)
	require.NoError(t, c.Resize(200, 100), "nothing drawn yet")

	require.NoError(t, c.Submit(context.Background(), form(url.Values{"color_choice": {"Oranges"}})))
	require.NoError(t, c.Resize(640, 400))

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	assert.Contains(t, buf.String(), `viewBox="0 0 640 400"`)
	assert.Equal(t, "Oranges", c.State().Palette)
}

func TestChartMode(t *testing.T) {
	src := &fakeSource{wards: []model.CategoryDatum{{Label: "Pothole", Value: 9}, {Label: "Graffiti", Value: 4}}}
	c, err := NewController(ChartMode, src, zaptest.NewLogger(t), 350, 350)
	require.NoError(t, err)

	f := form(url.Values{"color_choice": {"Greens"}}).WithOptions("wards", []string{"1", "2"})
	require.NoError(t, c.Submit(context.Background(), f))
	assert.Equal(t, []string{"color_choice=Greens&wards=1,2"}, src.queries)
	assert.Len(t, c.State().Totals, 2)

	var buf bytes.Buffer
	require.NoError(t, c.WriteSVG(&buf))
	assert.Contains(t, buf.String(), `fill="#edf8e9"`)

	src.errs = []error{errors.New("boom")}
	require.Error(t, c.Submit(context.Background(), f))
	assert.False(t, c.State().Retryable)
	assert.Len(t, c.State().Totals, 2, "the last good dataset stays")
}
