package filter

import (
	"strings"
	"time"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/render/palette"
)

// Variant selects how area selections are read.
type Variant int

const (
	// MapVariant reads the geography control and the matching area select.
	MapVariant Variant = iota
	// BreakdownVariant always reads wards; an empty selection means every ward
	// the select offers.
	BreakdownVariant
)

// ReadCriteria reads the form into criteria and validates them.
func ReadCriteria(form Form, variant Variant) (model.FilterCriteria, error) {
	var c model.FilterCriteria

	geog := model.Wards
	if variant == MapVariant {
		g, err := model.ParseGeography(form.Value(FieldGeography))
		if err != nil {
			return c, err
		}
		geog = g
	}
	c.Geography = geog
	c.Palette = form.Value(FieldPalette)
	c.ReportTitle = form.Value(FieldReportTitle)
	c.Categories = form.Selected(FieldCategories)
	c.Areas = form.Selected(geog.QueryKey())
	if variant == BreakdownVariant && len(c.Areas) == 0 {
		c.Areas = form.Options(geog.QueryKey())
	}

	var err error
	if c.StartDate, err = parseDate(FieldStartDate, form.Value(FieldStartDate)); err != nil {
		return c, err
	}
	if c.EndDate, err = parseDate(FieldEndDate, form.Value(FieldEndDate)); err != nil {
		return c, err
	}
	return c, Validate(c)
}

// Validate checks criteria coming from the form: a known palette is required,
// everything else is optional.
func Validate(c model.FilterCriteria) error {
	if c.Palette == "" {
		return model.NewValidationError(FieldPalette, "a color palette is required")
	}
	return validateQuery(c)
}

// validateQuery checks criteria arriving as a query, where the palette may be left
// to the renderer's default.
func validateQuery(c model.FilterCriteria) error {
	if c.Palette != "" && !palette.Known(c.Palette) {
		return model.NewValidationError(FieldPalette, "unknown palette %q", c.Palette)
	}
	if _, err := model.ParseGeography(string(c.Geography)); err != nil {
		return err
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.StartDate.After(c.EndDate) {
		return model.NewValidationError(FieldEndDate, "%s is before the start date %s",
			c.EndDate.Format(model.DateLayout), c.StartDate.Format(model.DateLayout))
	}
	for _, list := range [][]string{c.Categories, c.Areas} {
		for _, item := range list {
			trimmed := strings.TrimSpace(item)
			if trimmed == "" {
				return model.NewValidationError("", "empty item in a selection")
			}
			if trimmed != item {
				return model.NewValidationError("", "selection item %q has surrounding spaces", item)
			}
		}
	}
	return nil
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, model.NewValidationError(field, "%q is not a YYYY-MM-DD date", s)
	}
	return t, nil
}
