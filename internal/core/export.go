package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"reporter_service/internal/domain/model"
)

// AreaExport is the per-area count table offered as CSV.
type AreaExport struct {
	Criteria model.FilterCriteria
	Rows     []model.AreaCount
}

// AreaExport counts c for the area CSV.
func (s *ReportService) AreaExport(ctx context.Context, c model.FilterCriteria) (*AreaExport, error) {
	c = s.Resolve(c)
	fc, err := s.AreaCounts(ctx, c)
	if err != nil {
		return nil, err
	}
	rows, err := CountList(fc, c.Geography)
	if err != nil {
		return nil, err
	}
	return &AreaExport{Criteria: c, Rows: rows}, nil
}

// Filename is sa_export_<start>_<end>_<geog>.csv.
func (e *AreaExport) Filename() string {
	c := e.Criteria
	return fmt.Sprintf("sa_export_%s_%s_%s.csv",
		c.StartDate.Format(model.DateLayout), c.EndDate.Format(model.DateLayout), c.Geography)
}

// WriteCSV writes a parameter row, a header row and one row per area.
func (e *AreaExport) WriteCSV(w io.Writer) error {
	c := e.Criteria
	cw := csv.NewWriter(w)
	records := [][]string{
		{c.StartDate.Format(model.DateLayout), c.EndDate.Format(model.DateLayout), strings.Join(c.Categories, ","), string(c.Geography)},
		{c.Geography.AreaProperty(), model.CountProperty},
	}
	for _, row := range e.Rows {
		records = append(records, []string{row.AreaID, formatNumber(row.Count)})
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write area csv: %w", err)
	}
	return nil
}

// DetailColumns are the columns of the detail exports.
var DetailColumns = []string{
	"id", "call_issue", "created_at", "updated_at",
	"street", "unit_number", "city", "state", "zip", "lat", "lon",
	"ward", "categories", "title",
}

// DetailExport is one row per call or issue.
type DetailExport struct {
	Criteria model.FilterCriteria
	Rows     []model.DetailRow
}

func (s *ReportService) DetailExport(ctx context.Context, c model.FilterCriteria) (*DetailExport, error) {
	c = s.Resolve(c)
	rows, err := s.Details(ctx, c)
	if err != nil {
		return nil, err
	}
	return &DetailExport{Criteria: c, Rows: rows}, nil
}

// Filename returns the download name with the given extension.
func (e *DetailExport) Filename(ext string) string {
	c := e.Criteria
	return fmt.Sprintf("detail_export_%s_%s.%s",
		c.StartDate.Format(model.DateLayout), c.EndDate.Format(model.DateLayout), ext)
}

func detailRecord(r model.DetailRow) []string {
	var updated, lat, lon string
	if !r.UpdatedAt.IsZero() {
		updated = r.UpdatedAt.Format("2006-01-02 15:04:05")
	}
	if r.HasLocation() {
		lat = formatNumber(*r.Lat)
		lon = formatNumber(*r.Lon)
	}
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Kind,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
		updated,
		r.Street, r.UnitNumber, r.City, r.State, r.Zip,
		lat, lon,
		r.Ward,
		strings.Join(r.Categories, ", "),
		r.Title,
	}
}

func (e *DetailExport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DetailColumns); err != nil {
		return fmt.Errorf("failed to write detail csv: %w", err)
	}
	for _, r := range e.Rows {
		if err := cw.Write(detailRecord(r)); err != nil {
			return fmt.Errorf("failed to write detail csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DetailSheet is the worksheet name of the XLSX export.
const DetailSheet = "Details"

// WriteXLSX writes the same table as WriteCSV as a workbook. Ids and coordinates
// are stored as numbers.
func (e *DetailExport) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DetailSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, header := range DetailColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(DetailSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(DetailColumns))
	if err := f.SetColWidth(DetailSheet, "A", last, 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	for i, r := range e.Rows {
		values := make([]interface{}, len(DetailColumns))
		for j, v := range detailRecord(r) {
			values[j] = v
		}
		values[0] = r.ID
		if r.HasLocation() {
			values[9], values[10] = *r.Lat, *r.Lon
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(DetailSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
