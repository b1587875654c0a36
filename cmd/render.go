package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reporter_service/internal/config"
	"reporter_service/internal/filter"
	"reporter_service/internal/infrastructure/reportclient"
	"reporter_service/internal/render/palette"
	"reporter_service/internal/view"
)

// filterFlags are the report form controls as flags.
type filterFlags struct {
	palette    string
	start      string
	end        string
	categories []string
	wards      []string
	zips       []string
	geog       string
	title      string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.palette, "palette", "", "color palette (default from config)")
	fs.StringVar(&f.start, "start", "", "start date, YYYY-MM-DD")
	fs.StringVar(&f.end, "end", "", "end date, YYYY-MM-DD")
	fs.StringArrayVar(&f.categories, "category", nil, "category to include (repeatable)")
	fs.StringArrayVar(&f.wards, "ward", nil, "ward to include (repeatable)")
	fs.StringArrayVar(&f.zips, "zip", nil, "zip code to include (repeatable)")
	fs.StringVar(&f.geog, "geog", "wards", "wards or zips")
	fs.StringVar(&f.title, "title", "", "report title")
}

// form returns the flags as submitted form values.
func (f *filterFlags) form() *filter.ValuesForm {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	p := f.palette
	if p == "" {
		p = cfg.Reports.DefaultPalette
	}
	if p == "" {
		p = palette.Default
	}
	set(filter.FieldPalette, p)
	set(filter.FieldStartDate, f.start)
	set(filter.FieldEndDate, f.end)
	set(filter.FieldGeography, f.geog)
	set(filter.FieldReportTitle, f.title)
	v[filter.FieldCategories] = f.categories
	v[filter.FieldWards] = f.wards
	v[filter.FieldZipCodes] = f.zips
	return filter.NewValuesForm(v)
}

func newClient() *reportclient.Client {
	return reportclient.New(cfg.Client.BaseURL, config.Duration(cfg.Client.Timeout))
}

var (
	renderFilters filterFlags
	renderOut     string
	renderWidth   float64
	renderHeight  float64
)

var renderCmd = &cobra.Command{
	Use:       "render map|chart",
	Short:     "Render a map or chart from a running server to SVG or PNG",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"map", "chart"},
	RunE:      runRender,
}

func init() {
	renderFilters.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file, .svg or .png (required)")
	renderCmd.Flags().Float64Var(&renderWidth, "width", 0, "drawing width (default per kind)")
	renderCmd.Flags().Float64Var(&renderHeight, "height", 0, "drawing height (default per kind)")
	_ = renderCmd.MarkFlagRequired("out")
}

func runRender(cmd *cobra.Command, args []string) error {
	mode, w, h := view.MapMode, 960.0, 600.0
	if args[0] == "chart" {
		mode, w, h = view.ChartMode, 350.0, 350.0
	}
	if renderWidth > 0 {
		w = renderWidth
	}
	if renderHeight > 0 {
		h = renderHeight
	}

	ext := strings.ToLower(filepath.Ext(renderOut))
	if ext != ".svg" && ext != ".png" {
		return fmt.Errorf("unsupported output %q, want .svg or .png", renderOut)
	}

	ctrl, err := view.NewController(mode, newClient(), logger, w, h)
	if err != nil {
		return err
	}
	if err := ctrl.Submit(cmd.Context(), renderFilters.form()); err != nil {
		return err
	}

	f, err := os.Create(renderOut)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()
	if ext == ".png" {
		err = ctrl.WritePNG(f)
	} else {
		err = ctrl.WriteSVG(f)
	}
	if err != nil {
		return err
	}

	st := ctrl.State()
	logger.Info("rendered report",
		zap.String("kind", args[0]),
		zap.String("out", renderOut),
		zap.String("csv", st.Links.CSV))
	return f.Close()
}
