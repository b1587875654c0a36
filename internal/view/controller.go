// Package view holds the report page state and drives redraws from form submits.
package view

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/filter"
	"reporter_service/internal/render/barchart"
	"reporter_service/internal/render/choropleth"
	"reporter_service/internal/render/palette"
)

// ErrStale is returned for a response that arrived after a newer request was issued.
// Its data is dropped.
var ErrStale = errors.New("view: superseded by a newer request")

var errNothingToRetry = errors.New("view: no request to retry")

type Mode int

const (
	// MapMode fetches area counts and draws the choropleth.
	MapMode Mode = iota
	// ChartMode fetches category totals over wards and draws the bar chart.
	ChartMode
)

// Source fetches report data for a parameter list.
type Source interface {
	FilterGeo(ctx context.Context, p filter.Params) (*model.FeatureCollection, error)
	FilterWards(ctx context.Context, p filter.Params) ([]model.CategoryDatum, error)
}

// State is what the page shows. The last dataset is kept for redraws on resize.
type State struct {
	Palette   string
	Criteria  model.FilterCriteria
	Links     filter.Links
	Loading   bool
	Err       string
	Retryable bool
	Areas     *model.FeatureCollection
	Totals    []model.CategoryDatum
	Width     float64
	Height    float64
}

type Controller struct {
	mode   Mode
	src    Source
	logger *zap.Logger

	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
	last   *model.FilterCriteria
	state  State
	areas  *choropleth.Renderer
	chart  *barchart.Chart
}

func NewController(mode Mode, src Source, logger *zap.Logger, width, height float64) (*Controller, error) {
	c := &Controller{
		mode:   mode,
		src:    src,
		logger: logger,
		state:  State{Palette: palette.Default, Width: width, Height: height},
	}
	if mode == ChartMode {
		cfg := barchart.DefaultConfig()
		cfg.Width, cfg.Height = width, height
		cfg.SortDescending = true
		color, err := palette.BarColor(palette.Default)
		if err != nil {
			return nil, err
		}
		cfg.Color = color
		c.chart = barchart.New(cfg)
		return c, nil
	}
	cfg := choropleth.DefaultConfig()
	cfg.Width, cfg.Height = width, height
	r, err := choropleth.New(cfg)
	if err != nil {
		return nil, err
	}
	c.areas = r
	return c, nil
}

// State returns a copy of the current page state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit reads the form and fetches its data. An invalid form sets an inline
// error and sends nothing.
func (c *Controller) Submit(ctx context.Context, form filter.Form) error {
	variant := filter.MapVariant
	if c.mode == ChartMode {
		variant = filter.BreakdownVariant
	}
	criteria, err := filter.ReadCriteria(form, variant)
	if err != nil {
		c.mu.Lock()
		c.state.Err = err.Error()
		c.state.Retryable = false
		c.mu.Unlock()
		return err
	}
	return c.issue(ctx, criteria)
}

// Retry re-issues the last submitted request.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	if last == nil {
		return errNothingToRetry
	}
	return c.issue(ctx, *last)
}

type fetched struct {
	areas  *model.FeatureCollection
	totals []model.CategoryDatum
}

func (c *Controller) issue(ctx context.Context, criteria model.FilterCriteria) error {
	params := filter.Build(criteria)

	c.mu.Lock()
	c.token++
	token := c.token
	if c.cancel != nil {
		c.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.last = &criteria
	c.state.Criteria = criteria
	c.state.Links = filter.LinksFor(params)
	c.state.Loading = true
	c.state.Err = ""
	c.state.Retryable = false
	c.mu.Unlock()
	defer cancel()

	c.logger.Debug("fetching report data", zap.Uint64("token", token), zap.String("query", params.Encode()))
	data, err := c.fetch(reqCtx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		c.logger.Debug("dropping stale response", zap.Uint64("token", token), zap.Uint64("latest", c.token))
		return ErrStale
	}
	c.cancel = nil
	c.state.Loading = false
	if err == nil {
		err = c.apply(criteria, data)
	}
	if err != nil {
		c.state.Err = err.Error()
		c.state.Retryable = model.Retryable(err) || model.IsDataShape(err)
		c.logger.Warn("report request failed", zap.Error(err), zap.Bool("retryable", c.state.Retryable))
		return err
	}
	return nil
}

func (c *Controller) fetch(ctx context.Context, p filter.Params) (fetched, error) {
	if c.mode == ChartMode {
		totals, err := c.src.FilterWards(ctx, p)
		return fetched{totals: totals}, err
	}
	areas, err := c.src.FilterGeo(ctx, p)
	return fetched{areas: areas}, err
}

// apply redraws with freshly fetched data. Callers hold mu.
func (c *Controller) apply(criteria model.FilterCriteria, data fetched) error {
	name := criteria.Palette
	if name == "" {
		name = palette.Default
	}
	if c.mode == ChartMode {
		color, err := palette.BarColor(name)
		if err != nil {
			return err
		}
		c.chart.SetColor(color)
		if _, err := c.chart.Render(data.totals); err != nil {
			return err
		}
		c.state.Totals = data.totals
	} else {
		if err := c.areas.SetPalette(name); err != nil {
			return err
		}
		if _, err := c.areas.Render(data.areas); err != nil {
			return err
		}
		c.state.Areas = data.areas
	}
	c.state.Palette = name
	return nil
}

// Resize redraws the last dataset at a new size with the current palette.
func (c *Controller) Resize(width, height float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Width, c.state.Height = width, height
	if c.mode == ChartMode {
		_, err := c.chart.Resize(width, height)
		return err
	}
	c.areas.Resize(width, height)
	if c.state.Areas == nil {
		return nil
	}
	_, err := c.areas.Render(c.state.Areas)
	return err
}

// WriteSVG writes the current drawing.
func (c *Controller) WriteSVG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ChartMode {
		return c.chart.WriteSVG(w)
	}
	return c.areas.WriteSVG(w)
}

// WritePNG writes the current drawing as a PNG.
func (c *Controller) WritePNG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ChartMode {
		return c.chart.WritePNG(w)
	}
	return c.areas.WritePNG(w)
}
