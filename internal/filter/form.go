// Package filter turns report form state into typed criteria and criteria into the
// query string every report endpoint shares.
package filter

import (
	"net/url"
	"strings"
)

// Form field names. They double as query parameter keys.
const (
	FieldPalette     = "color_choice"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldCategories  = "categories"
	FieldWards       = "wards"
	FieldZipCodes    = "zip_codes"
	FieldGeography   = "geog"
	FieldReportTitle = "report_title"
)

// Form is read-only access to the controls of a report form.
type Form interface {
	// Value returns a single-valued control, trimmed; "" when absent.
	Value(name string) string
	// Selected returns the chosen items of a multi-select control.
	Selected(name string) []string
	// Options returns every item a multi-select control offers.
	Options(name string) []string
}

// ValuesForm is a Form over submitted url.Values, with the select options the page
// was rendered with.
type ValuesForm struct {
	Values  url.Values
	Choices map[string][]string
}

func NewValuesForm(values url.Values) *ValuesForm {
	return &ValuesForm{Values: values, Choices: map[string][]string{}}
}

// WithOptions records the items offered by a multi-select control.
func (f *ValuesForm) WithOptions(name string, options []string) *ValuesForm {
	f.Choices[name] = options
	return f
}

func (f *ValuesForm) Value(name string) string {
	return strings.TrimSpace(f.Values.Get(name))
}

func (f *ValuesForm) Selected(name string) []string {
	var out []string
	for _, v := range f.Values[name] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (f *ValuesForm) Options(name string) []string {
	return append([]string(nil), f.Choices[name]...)
}
