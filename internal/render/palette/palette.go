// Package palette is the static table of ColorBrewer sequential schemes.
package palette

import (
	"sort"

	"reporter_service/internal/domain/model"
)

// Steps is the number of classes every map uses.
const Steps = 5

// Default is the scheme used when a request does not pick one.
const Default = "Blues"

var schemes = map[string][Steps]string{
	"Blues":   {"#eff3ff", "#bdd7e7", "#6baed6", "#3182bd", "#08519c"},
	"Greens":  {"#edf8e9", "#bae4b3", "#74c476", "#31a354", "#006d2c"},
	"Greys":   {"#f7f7f7", "#cccccc", "#969696", "#636363", "#252525"},
	"Oranges": {"#feedde", "#fdbe85", "#fd8d3c", "#e6550d", "#a63603"},
	"Purples": {"#f2f0f7", "#cbc9e2", "#9e9ac8", "#756bb1", "#54278f"},
	"Reds":    {"#fee5d9", "#fcae91", "#fb6a4a", "#de2d26", "#a50f15"},
	"BuGn":    {"#edf8fb", "#b2e2e2", "#66c2a4", "#2ca25f", "#006d2c"},
	"BuPu":    {"#edf8fb", "#b3cde3", "#8c96c6", "#8856a7", "#810f7c"},
	"GnBu":    {"#f0f9e8", "#bae4bc", "#7bccc4", "#43a2ca", "#0868ac"},
	"OrRd":    {"#fef0d9", "#fdcc8a", "#fc8d59", "#e34a33", "#b30000"},
	"PuBu":    {"#f1eef6", "#bdc9e1", "#74a9cf", "#2b8cbe", "#045a8d"},
	"PuBuGn":  {"#f6eff7", "#bdc9e1", "#67a9cf", "#1c9099", "#016c59"},
	"PuRd":    {"#f1eef6", "#d7b5d8", "#df65b0", "#dd1c77", "#980043"},
	"RdPu":    {"#feebe2", "#fbb4b9", "#f768a1", "#c51b8a", "#7a0177"},
	"YlGn":    {"#ffffcc", "#c2e699", "#78c679", "#31a354", "#006837"},
	"YlGnBu":  {"#ffffcc", "#a1dab4", "#41b6c4", "#2c7fb8", "#253494"},
	"YlOrBr":  {"#ffffd4", "#fed98e", "#fe9929", "#d95f0e", "#993404"},
	"YlOrRd":  {"#ffffb2", "#fecc5c", "#fd8d3c", "#f03b20", "#bd0026"},
}

// Colors returns the 5-class colors of the named scheme, lightest first.
func Colors(name string) ([]string, error) {
	s, ok := schemes[name]
	if !ok {
		return nil, model.NewValidationError("color_choice", "unknown palette %q", name)
	}
	return s[:], nil
}

// Known reports whether name is in the table.
func Known(name string) bool {
	_, ok := schemes[name]
	return ok
}

// Names returns every scheme name in sorted order.
func Names() []string {
	names := make([]string, 0, len(schemes))
	for n := range schemes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BarColor is the single fill used for bar charts, the lightest class of the scheme.
func BarColor(name string) (string, error) {
	c, err := Colors(name)
	if err != nil {
		return "", err
	}
	return c[0], nil
}
