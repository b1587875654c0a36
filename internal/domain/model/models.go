package model

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of start_date and end_date.
const DateLayout = "2006-01-02"

// CountProperty is the feature property that carries the per-area count.
const CountProperty = "call_issue_count"

type CategoryDatum struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// UnmarshalJSON accepts the value as a JSON number or a numeric string.
// Anything else is rejected instead of being coerced to zero.
func (d *CategoryDatum) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label json.RawMessage `json:"label"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	label, err := scalarString(raw.Label)
	if err != nil {
		return NewValidationError("label", "%v", err)
	}
	value, err := scalarNumber(raw.Value)
	if err != nil {
		return NewValidationError("value", "category %q: %v", label, err)
	}

	d.Label = label
	d.Value = value
	return nil
}

func scalarString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", errMissing
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", errNotScalar
}

func scalarNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errMissing
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errNotNumeric
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumeric
	}
	return f, nil
}

type scalarError string

func (e scalarError) Error() string { return string(e) }

const (
	errMissing    = scalarError("missing")
	errNotScalar  = scalarError("not a string or number")
	errNotNumeric = scalarError("not numeric")
)

// Geography selects the kind of area a report is aggregated over.
type Geography string

const (
	Wards Geography = "wards"
	Zips  Geography = "zips"
)

// ParseGeography maps the geog query value; empty means wards.
func ParseGeography(s string) (Geography, error) {
	switch Geography(strings.TrimSpace(s)) {
	case "", Wards:
		return Wards, nil
	case Zips:
		return Zips, nil
	}
	return "", NewValidationError("geog", "unknown geography %q", s)
}

// AreaProperty is the feature property holding the area identifier.
func (g Geography) AreaProperty() string {
	if g == Zips {
		return "zip"
	}
	return "ward"
}

// QueryKey is the query parameter that carries the selected areas.
func (g Geography) QueryKey() string {
	if g == Zips {
		return "zip_codes"
	}
	return "wards"
}

// DisplayName is used in legends and tooltips.
func (g Geography) DisplayName() string {
	if g == Zips {
		return "Zip"
	}
	return "Ward"
}

// GeographyForProperty is the inverse of AreaProperty.
func GeographyForProperty(prop string) Geography {
	if prop == "zip" {
		return Zips
	}
	return Wards
}

// FilterCriteria is the typed form state behind every report request.
// Zero dates mean the bound was not given.
type FilterCriteria struct {
	Geography   Geography
	Palette     string
	StartDate   time.Time
	EndDate     time.Time
	Categories  []string
	Areas       []string
	ReportTitle string
}

// CallIssue is a single call or issue with its address and category names.
type CallIssue struct {
	ID         int64
	Kind       string // "call" or "issue"
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Title      string
	Categories []string
	Street     string
	UnitNumber string
	City       string
	State      string
	Zip        string
	Lat        *float64
	Lon        *float64
}

// HasLocation reports whether the address was geocoded.
func (c CallIssue) HasLocation() bool {
	return c.Lat != nil && c.Lon != nil
}

// DetailRow is a CallIssue together with the ward it falls in.
type DetailRow struct {
	CallIssue
	Ward string
}

// AreaCount is one line of the area CSV export and the print tables.
type AreaCount struct {
	AreaID string  `json:"area"`
	Count  float64 `json:"count"`
}

// ReportRecord is what gets stored when a print report is generated.
type ReportRecord struct {
	Title      string
	Geography  Geography
	StartDate  time.Time
	EndDate    time.Time
	Categories []string
	Areas      []string
	Counts     []AreaCount
}

// WardSeries is the category breakdown of one ward.
type WardSeries struct {
	Ward       string          `json:"ward"`
	Categories []CategoryDatum `json:"categories"`
}

// LessAreaID orders numeric identifiers numerically, before any non-numeric ones,
// which sort as strings.
func LessAreaID(a, b string) bool {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// SortCategoryData orders data by value, largest first, then by label.
func SortCategoryData(data []CategoryDatum) {
	sort.SliceStable(data, func(i, j int) bool {
		if data[i].Value != data[j].Value {
			return data[i].Value > data[j].Value
		}
		return data[i].Label < data[j].Label
	})
}
