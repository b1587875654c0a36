package api

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"reporter_service/internal/core"
	"reporter_service/internal/domain/model"
	"reporter_service/internal/filter"
	"reporter_service/internal/render/barchart"
	"reporter_service/internal/render/choropleth"
	"reporter_service/internal/render/palette"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeSVG  = "image/svg+xml"
	mimePNG  = "image/png"

	maxImageSide = 4000
)

// ReportService is what the handlers need from the report core.
type ReportService interface {
	AreaCounts(ctx context.Context, c model.FilterCriteria) (*model.FeatureCollection, error)
	CategoryTotals(ctx context.Context, c model.FilterCriteria) ([]model.CategoryDatum, error)
	WardBreakdown(ctx context.Context, c model.FilterCriteria) ([]model.WardSeries, error)
	AreaExport(ctx context.Context, c model.FilterCriteria) (*core.AreaExport, error)
	DetailExport(ctx context.Context, c model.FilterCriteria) (*core.DetailExport, error)
	Print(ctx context.Context, c model.FilterCriteria) (*core.PrintReport, error)
	Categories(ctx context.Context) ([]string, error)
	AreaIDs(ctx context.Context, geog model.Geography) ([]string, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	// DefaultPalette is used when a request names none.
	DefaultPalette string
	// HideLabels are area identifiers left unlabelled on the print map.
	HideLabels []string
}

type Handler struct {
	service ReportService
	pinger  Pinger
	opts    Options
	logger  *zap.Logger
}

// NewHandler wires the handlers. pinger may be nil.
func NewHandler(service ReportService, pinger Pinger, opts Options, logger *zap.Logger) *Handler {
	if opts.DefaultPalette == "" {
		opts.DefaultPalette = palette.Default
	}
	return &Handler{service: service, pinger: pinger, opts: opts, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/filter-geo", h.FilterGeo)
	e.GET("/filter-wards", h.FilterWards)
	e.GET("/breakdown-wards", h.BreakdownWards)
	e.GET("/filter-csv", h.FilterCSV)
	e.GET("/detail-csv", h.DetailCSV)
	e.GET("/detail-xlsx", h.DetailXLSX)
	e.GET("/print", h.Print)
	e.GET("/map.svg", h.MapSVG)
	e.GET("/map.png", h.MapPNG)
	e.GET("/chart.svg", h.ChartSVG)
	e.GET("/chart.png", h.ChartPNG)
	e.GET("/healthz", h.Health)
}

// criteria parses the shared report query string.
func criteria(c echo.Context) (model.FilterCriteria, error) {
	return filter.Parse(c.Request().URL.RawQuery)
}

func (h *Handler) paletteFor(c model.FilterCriteria) string {
	if c.Palette != "" {
		return c.Palette
	}
	return h.opts.DefaultPalette
}

// size reads the optional width and height parameters.
func size(c echo.Context, width, height float64) (float64, float64, error) {
	read := func(name string, def float64) (float64, error) {
		s := c.QueryParam(name)
		if s == "" {
			return def, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 || v > maxImageSide {
			return 0, model.NewValidationError(name, "must be a number in (0, %d]", maxImageSide)
		}
		return v, nil
	}
	w, err := read("width", width)
	if err != nil {
		return 0, 0, err
	}
	hgt, err := read("height", height)
	if err != nil {
		return 0, 0, err
	}
	return w, hgt, nil
}

func attachment(c echo.Context, contentType, filename string) {
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	c.Response().WriteHeader(http.StatusOK)
}

// FilterGeo returns the boundaries with their call and issue counts.
func (h *Handler) FilterGeo(c echo.Context) error {
	crit, err := criteria(c)
	if err != nil {
		return err
	}
	fc, err := h.service.AreaCounts(c.Request().Context(), crit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fc)
}

// FilterWards returns category totals over the selected wards.
func (h *Handler) FilterWards(c echo.Context) error {
	crit, err := criteria(c)
	if err != nil {
		return err
	}
	data, err := h.service.CategoryTotals(c.Request().Context(), crit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data)
}

func (h *Handler) BreakdownWards(c echo.Context) error {
	crit, err := criteria(c)
	if err != nil {
		return err
	}
	series, err := h.service.WardBreakdown(c.Request().Context(), crit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, series)
}

func (h *Handler) FilterCSV(c echo.Context) error {
	crit, err := criteria(c)
	if err != nil {
		return err
	}
	export, err := h.service.AreaExport(c.Request().Context(), crit)
	if err != nil {
		return err
	}
	attachment(c, mimeCSV, export.Filename())
	return export.WriteCSV(c.Response())
}

func (h *Handler) DetailCSV(c echo.Context) error {
	crit, err := criteria(c)
	if err != nil {
		return err
	}
	export, err := h.service.DetailExport(c.Request().Context(), crit)
	if err != nil {
		return err
	}
	attachment(c, mimeCSV, export.Filename("csv"))
	return export.WriteCSV(c.Response())
}

func (h *Handler) DetailXLSX(c echo.Context) error {
	crit, err := criteria(c)
	if err != nil {
		return err
	}
	export, err := h.service.DetailExport(c.Request().Context(), crit)
	if err != nil {
		return err
	}
	// Buffered so a failed workbook still gets an error response.
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf); err != nil {
		return err
	}
	attachment(c, mimeXLSX, export.Filename("xlsx"))
	_, err = buf.WriteTo(c.Response())
	return err
}

// drawMap renders fc with the palette of crit.
func (h *Handler) drawMap(fc *model.FeatureCollection, crit model.FilterCriteria, cfg choropleth.Config) (*choropleth.Renderer, error) {
	cfg.Palette = h.paletteFor(crit)
	r, err := choropleth.New(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := r.Render(fc); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *Handler) mapFor(c echo.Context) (*choropleth.Renderer, error) {
	crit, err := criteria(c)
	if err != nil {
		return nil, err
	}
	cfg := choropleth.DefaultConfig()
	if cfg.Width, cfg.Height, err = size(c, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	fc, err := h.service.AreaCounts(c.Request().Context(), crit)
	if err != nil {
		return nil, err
	}
	return h.drawMap(fc, crit, cfg)
}

func (h *Handler) MapSVG(c echo.Context) error {
	r, err := h.mapFor(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.WriteSVG(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, mimeSVG, buf.Bytes())
}

func (h *Handler) MapPNG(c echo.Context) error {
	r, err := h.mapFor(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.WritePNG(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, mimePNG, buf.Bytes())
}

func (h *Handler) chartFor(c echo.Context) (*barchart.Chart, error) {
	crit, err := criteria(c)
	if err != nil {
		return nil, err
	}
	cfg := barchart.DefaultConfig()
	if cfg.Width, cfg.Height, err = size(c, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	if c.QueryParam("orientation") == "vertical" {
		cfg.Orientation = barchart.Vertical
	}
	cfg.SortDescending = true
	if cfg.Color, err = palette.BarColor(h.paletteFor(crit)); err != nil {
		return nil, err
	}

	data, err := h.service.CategoryTotals(c.Request().Context(), crit)
	if err != nil {
		return nil, err
	}
	chart := barchart.New(cfg)
	if _, err := chart.Render(data); err != nil {
		return nil, err
	}
	return chart, nil
}

func (h *Handler) ChartSVG(c echo.Context) error {
	chart, err := h.chartFor(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := chart.WriteSVG(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, mimeSVG, buf.Bytes())
}

func (h *Handler) ChartPNG(c echo.Context) error {
	chart, err := h.chartFor(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := chart.WritePNG(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, mimePNG, buf.Bytes())
}

// Print renders the printable report page.
func (h *Handler) Print(c echo.Context) error {
	crit, err := criteria(c)
	if err != nil {
		return err
	}
	report, err := h.service.Print(c.Request().Context(), crit)
	if err != nil {
		return err
	}
	r, err := h.drawMap(report.Areas, report.Criteria, choropleth.PrintConfig(h.opts.HideLabels))
	if err != nil {
		return err
	}
	var svg bytes.Buffer
	if err := r.WriteSVG(&svg); err != nil {
		return err
	}

	page := printPage{
		Title:     report.Title,
		Period:    report.Period,
		Generated: report.Generated.Format("January 2, 2006"),
		Geography: report.Criteria.Geography.DisplayName(),
		Map:       template.HTML(svg.String()),
		Links:     filter.LinksFor(filter.Build(report.Criteria)),
	}
	return h.html(c, http.StatusOK, printTemplate, page)
}

// Index renders the report form and the map of the submitted criteria. An
// invalid form is shown again with the message inline.
func (h *Handler) Index(c echo.Context) error {
	ctx := c.Request().Context()
	categories, err := h.service.Categories(ctx)
	if err != nil {
		return err
	}
	wards, err := h.service.AreaIDs(ctx, model.Wards)
	if err != nil {
		return err
	}
	zips, err := h.service.AreaIDs(ctx, model.Zips)
	if err != nil {
		return err
	}

	values := c.QueryParams()
	page := indexPage{
		Palettes:   palette.Names(),
		Categories: categories,
		Wards:      wards,
		Zips:       zips,
		Form:       values,
	}

	var crit model.FilterCriteria
	if len(values) == 0 {
		crit = model.FilterCriteria{Geography: model.Wards, Palette: h.opts.DefaultPalette}
	} else {
		form := filter.NewValuesForm(values).
			WithOptions(filter.FieldCategories, categories).
			WithOptions(filter.FieldWards, wards).
			WithOptions(filter.FieldZipCodes, zips)
		crit, err = filter.ReadCriteria(form, filter.MapVariant)
		if err != nil {
			if !model.IsValidation(err) {
				return err
			}
			page.Error = err.Error()
			return h.html(c, http.StatusBadRequest, indexTemplate, page)
		}
	}
	page.Palette = crit.Palette
	page.Geography = string(crit.Geography)

	fc, err := h.service.AreaCounts(ctx, crit)
	if err != nil {
		return err
	}
	r, err := h.drawMap(fc, crit, choropleth.DefaultConfig())
	if err != nil {
		return err
	}
	var svg bytes.Buffer
	if err := r.WriteSVG(&svg); err != nil {
		return err
	}
	page.Map = template.HTML(svg.String())
	page.Links = filter.LinksFor(filter.Build(crit))
	return h.html(c, http.StatusOK, indexTemplate, page)
}

func (h *Handler) html(c echo.Context, status int, t *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func (h *Handler) Health(c echo.Context) error {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request().Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
