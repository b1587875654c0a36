package filter

import (
	"net/url"
	"strings"

	"reporter_service/internal/domain/model"
)

// ListSep joins the items of a list parameter. Items are query-escaped, so a
// separator inside an item is sent as %2C.
const ListSep = ","

// Param is one key with one or more values.
type Param struct {
	Key    string
	Values []string
}

// Params is an ordered parameter list.
type Params []Param

// Build turns criteria into parameters in a fixed order. Unset values are left out,
// and so is geog when it is the default.
func Build(c model.FilterCriteria) Params {
	var p Params
	add := func(key string, values ...string) {
		if len(values) == 0 || (len(values) == 1 && values[0] == "") {
			return
		}
		p = append(p, Param{Key: key, Values: append([]string(nil), values...)})
	}

	add(FieldPalette, c.Palette)
	if !c.StartDate.IsZero() {
		add(FieldStartDate, c.StartDate.Format(model.DateLayout))
	}
	if !c.EndDate.IsZero() {
		add(FieldEndDate, c.EndDate.Format(model.DateLayout))
	}
	add(FieldCategories, c.Categories...)
	geog := c.Geography
	if geog == "" {
		geog = model.Wards
	}
	add(geog.QueryKey(), c.Areas...)
	if geog != model.Wards {
		add(FieldGeography, string(geog))
	}
	add(FieldReportTitle, c.ReportTitle)
	return p
}

// Encode renders the parameters as a query string without the leading '?'.
func (p Params) Encode() string {
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		for j, v := range param.Values {
			if j > 0 {
				b.WriteString(ListSep)
			}
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

func (p Params) String() string {
	return p.Encode()
}

// Get returns the values stored under key.
func (p Params) Get(key string) []string {
	for _, param := range p {
		if param.Key == key {
			return param.Values
		}
	}
	return nil
}

// Decode splits a raw query string into parameters, keeping list items apart.
func Decode(raw string) (Params, error) {
	raw = strings.TrimPrefix(raw, "?")
	var p Params
	if raw == "" {
		return p, nil
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, model.NewValidationError("", "malformed query key %q", key)
		}
		var values []string
		for _, item := range strings.Split(value, ListSep) {
			v, err := url.QueryUnescape(item)
			if err != nil {
				return nil, model.NewValidationError(k, "malformed value %q", item)
			}
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		p = append(p, Param{Key: k, Values: values})
	}
	return p, nil
}

// Parse reads a query string produced by Encode back into criteria. The palette is
// optional here.
func Parse(raw string) (model.FilterCriteria, error) {
	p, err := Decode(raw)
	if err != nil {
		return model.FilterCriteria{}, err
	}
	form := paramsForm(p)

	var c model.FilterCriteria
	if c.Geography, err = model.ParseGeography(form.Value(FieldGeography)); err != nil {
		return c, err
	}
	c.Palette = form.Value(FieldPalette)
	c.ReportTitle = form.Value(FieldReportTitle)
	c.Categories = form.Selected(FieldCategories)
	c.Areas = form.Selected(c.Geography.QueryKey())
	if c.StartDate, err = parseDate(FieldStartDate, form.Value(FieldStartDate)); err != nil {
		return c, err
	}
	if c.EndDate, err = parseDate(FieldEndDate, form.Value(FieldEndDate)); err != nil {
		return c, err
	}
	return c, validateQuery(c)
}

// paramsForm exposes decoded parameters as a Form. A single-valued control that
// arrives as a list keeps its separators.
type paramsForm Params

func (f paramsForm) Value(name string) string {
	return strings.Join(Params(f).Get(name), ListSep)
}

func (f paramsForm) Selected(name string) []string {
	return Params(f).Get(name)
}

func (f paramsForm) Options(string) []string {
	return nil
}

// Links are the export and print URLs for one set of parameters.
type Links struct {
	CSV       string
	DetailCSV string
	XLSX      string
	Print     string
}

// LinksFor builds the export links the page shows next to a report.
func LinksFor(p Params) Links {
	q := p.Encode()
	link := func(path string) string {
		if q == "" {
			return path
		}
		return path + "?" + q
	}
	return Links{
		CSV:       link("/filter-csv"),
		DetailCSV: link("/detail-csv"),
		XLSX:      link("/detail-xlsx"),
		Print:     link("/print"),
	}
}
