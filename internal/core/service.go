package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/domain/repository"
)

// CallIssueSource loads calls and issues and the category names they use.
type CallIssueSource interface {
	Find(ctx context.Context, q repository.CallIssueQuery) ([]model.CallIssue, error)
	CategoryNames(ctx context.Context) ([]string, error)
}

// ReportService aggregates calls and issues over area boundaries.
type ReportService struct {
	calls      CallIssueSource
	boundaries repository.BoundaryRepository
	recorder   repository.ReportRecorder
	logger     *zap.Logger
	now        func() time.Time
}

func NewReportService(
	calls CallIssueSource,
	boundaries repository.BoundaryRepository,
	recorder repository.ReportRecorder,
	logger *zap.Logger,
) *ReportService {
	if recorder == nil {
		recorder = repository.NopRecorder{}
	}
	return &ReportService{
		calls:      calls,
		boundaries: boundaries,
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// Resolve fills the open date bounds of c.
func (s *ReportService) Resolve(c model.FilterCriteria) model.FilterCriteria {
	c.StartDate, c.EndDate = DefaultRange(s.now(), c.StartDate, c.EndDate)
	if c.Geography == "" {
		c.Geography = model.Wards
	}
	return c
}

// load returns the calls and issues of resolved criteria. Zip selections are
// applied by the query.
func (s *ReportService) load(ctx context.Context, c model.FilterCriteria) ([]model.CallIssue, error) {
	q := repository.CallIssueQuery{
		Start:      c.StartDate,
		End:        c.EndDate,
		Categories: c.Categories,
	}
	if c.Geography == model.Zips {
		q.Zips = c.Areas
	}
	items, err := s.calls.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load calls and issues: %w", err)
	}
	return items, nil
}

func (s *ReportService) index(ctx context.Context, geog model.Geography) (*model.FeatureCollection, *AreaIndex, error) {
	fc, err := s.boundaries.Boundaries(ctx, geog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s boundaries: %w", geog, err)
	}
	ix, err := NewAreaIndex(fc, geog.AreaProperty())
	if err != nil {
		return nil, nil, fmt.Errorf("invalid %s boundaries: %w", geog, err)
	}
	return fc, ix, nil
}

func selection(areas []string) map[string]struct{} {
	if len(areas) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(areas))
	for _, a := range areas {
		set[a] = struct{}{}
	}
	return set
}

func selected(set map[string]struct{}, id string) bool {
	if set == nil {
		return true
	}
	_, ok := set[id]
	return ok
}

// AreaCounts returns a copy of the boundaries of c's geography with the number of
// calls and issues inside each area. Areas outside the selection count zero.
func (s *ReportService) AreaCounts(ctx context.Context, c model.FilterCriteria) (*model.FeatureCollection, error) {
	c = s.Resolve(c)
	fc, ix, err := s.index(ctx, c.Geography)
	if err != nil {
		return nil, err
	}
	items, err := s.load(ctx, c)
	if err != nil {
		return nil, err
	}

	want := selection(c.Areas)
	counts := make(map[string]float64, ix.Len())
	var unplaced int
	for _, item := range items {
		if !item.HasLocation() {
			unplaced++
			continue
		}
		id, ok := ix.Locate(*item.Lon, *item.Lat)
		if !ok {
			unplaced++
			continue
		}
		if selected(want, id) {
			counts[id]++
		}
	}

	prop := c.Geography.AreaProperty()
	out := fc.Clone()
	for _, f := range out.Features {
		id, err := f.AreaID(prop)
		if err != nil {
			return nil, err
		}
		f.SetCount(model.CountProperty, counts[id])
	}
	s.logger.Debug("counted calls and issues",
		zap.String("geog", string(c.Geography)),
		zap.Int("items", len(items)),
		zap.Int("unplaced", unplaced))
	return out, nil
}

// CountList flattens a counted collection into rows in collection order.
func CountList(fc *model.FeatureCollection, geog model.Geography) ([]model.AreaCount, error) {
	rows := make([]model.AreaCount, 0, len(fc.Features))
	for _, f := range fc.Features {
		id, err := f.AreaID(geog.AreaProperty())
		if err != nil {
			return nil, err
		}
		n, err := f.Count(model.CountProperty)
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.AreaCount{AreaID: id, Count: n})
	}
	return rows, nil
}

// located pairs each placed item with its ward, keeping only selected wards.
func (s *ReportService) located(ctx context.Context, c model.FilterCriteria) ([]model.DetailRow, *AreaIndex, error) {
	_, ix, err := s.index(ctx, model.Wards)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.load(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	var want map[string]struct{}
	if c.Geography == model.Wards {
		want = selection(c.Areas)
	}
	rows := make([]model.DetailRow, 0, len(items))
	for _, item := range items {
		var ward string
		if item.HasLocation() {
			ward, _ = ix.Locate(*item.Lon, *item.Lat)
		}
		if want != nil && !selected(want, ward) {
			continue
		}
		rows = append(rows, model.DetailRow{CallIssue: item, Ward: ward})
	}
	return rows, ix, nil
}

// CategoryTotals counts calls and issues per category over the selected wards, or
// every ward when none is selected. An item counts once for each of its categories;
// with a category filter only the filtered categories are counted.
func (s *ReportService) CategoryTotals(ctx context.Context, c model.FilterCriteria) ([]model.CategoryDatum, error) {
	c = s.Resolve(c)
	c.Geography = model.Wards
	rows, _, err := s.located(ctx, c)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	keep := selection(c.Categories)
	for _, row := range rows {
		if row.Ward == "" {
			continue
		}
		for _, cat := range row.Categories {
			if selected(keep, cat) {
				totals[cat]++
			}
		}
	}
	return toData(totals), nil
}

// WardBreakdown returns the category totals of every selected ward, wards in
// numeric order.
func (s *ReportService) WardBreakdown(ctx context.Context, c model.FilterCriteria) ([]model.WardSeries, error) {
	c = s.Resolve(c)
	c.Geography = model.Wards
	rows, ix, err := s.located(ctx, c)
	if err != nil {
		return nil, err
	}
	keep := selection(c.Categories)
	byWard := make(map[string]map[string]float64)
	for _, row := range rows {
		if row.Ward == "" {
			continue
		}
		if byWard[row.Ward] == nil {
			byWard[row.Ward] = make(map[string]float64)
		}
		for _, cat := range row.Categories {
			if selected(keep, cat) {
				byWard[row.Ward][cat]++
			}
		}
	}

	want := selection(c.Areas)
	var out []model.WardSeries
	for _, ward := range ix.IDs() {
		if !selected(want, ward) {
			continue
		}
		out = append(out, model.WardSeries{Ward: ward, Categories: toData(byWard[ward])})
	}
	return out, nil
}

func toData(totals map[string]float64) []model.CategoryDatum {
	data := make([]model.CategoryDatum, 0, len(totals))
	for label, n := range totals {
		data = append(data, model.CategoryDatum{Label: label, Value: n})
	}
	model.SortCategoryData(data)
	return data
}

// Details returns every call and issue of c with the ward it falls in.
func (s *ReportService) Details(ctx context.Context, c model.FilterCriteria) ([]model.DetailRow, error) {
	c = s.Resolve(c)
	rows, _, err := s.located(ctx, c)
	return rows, err
}

// Categories returns the names offered by the category select.
func (s *ReportService) Categories(ctx context.Context) ([]string, error) {
	names, err := s.calls.CategoryNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return names, nil
}

// AreaIDs returns the identifiers offered by the ward or zip select.
func (s *ReportService) AreaIDs(ctx context.Context, geog model.Geography) ([]string, error) {
	_, ix, err := s.index(ctx, geog)
	if err != nil {
		return nil, err
	}
	return ix.IDs(), nil
}

// PrintReport is everything the printable page shows.
type PrintReport struct {
	Title     string
	Period    string
	Generated time.Time
	Criteria  model.FilterCriteria
	Areas     *model.FeatureCollection
	Counts    []model.AreaCount
}

// Print counts c and labels the result for the printable page. The report is
// recorded when a recorder is configured; a failed recording is logged only.
func (s *ReportService) Print(ctx context.Context, c model.FilterCriteria) (*PrintReport, error) {
	c = s.Resolve(c)
	fc, err := s.AreaCounts(ctx, c)
	if err != nil {
		return nil, err
	}
	counts, err := CountList(fc, c.Geography)
	if err != nil {
		return nil, err
	}
	report := &PrintReport{
		Title:     c.ReportTitle,
		Period:    ReportPeriod(c.StartDate, c.EndDate),
		Generated: s.now(),
		Criteria:  c,
		Areas:     fc,
		Counts:    counts,
	}

	rec := model.ReportRecord{
		Title:      c.ReportTitle,
		Geography:  c.Geography,
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
		Categories: c.Categories,
		Areas:      c.Areas,
		Counts:     counts,
	}
	if err := s.recorder.RecordReport(ctx, rec); err != nil {
		s.logger.Warn("failed to record report", zap.Error(err))
	}
	return report, nil
}
