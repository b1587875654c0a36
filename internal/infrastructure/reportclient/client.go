// Package reportclient fetches report data from a running reporter server.
package reportclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"reporter_service/internal/domain/model"
	"reporter_service/internal/filter"
)

// DefaultTimeout bounds every request unless the caller's context ends sooner.
const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) url(path string, p filter.Params) string {
	u := c.baseURL + path
	if q := p.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// get issues a GET and returns the open body of a 200 response. Transport
// failures and other statuses are NetworkErrors.
func (c *Client) get(ctx context.Context, path string, p filter.Params) (io.ReadCloser, error) {
	u := c.url(path, p)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &model.NetworkError{Op: "GET", URL: u, Timeout: isTimeout(err), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, &model.NetworkError{Op: "GET", URL: u, Err: statusError(resp)}
	}
	return resp.Body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

type errorBody struct {
	Error string `json:"error"`
}

func statusError(resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned status: %d", resp.StatusCode)
}

func (c *Client) getJSON(ctx context.Context, path string, p filter.Params, v interface{}) error {
	body, err := c.get(ctx, path, p)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return &model.DataShapeError{Property: path, Reason: err.Error()}
	}
	return nil
}

// FilterGeo fetches the counted boundaries for p.
func (c *Client) FilterGeo(ctx context.Context, p filter.Params) (*model.FeatureCollection, error) {
	body, err := c.get(ctx, "/filter-geo", p)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &model.NetworkError{Op: "read", URL: c.url("/filter-geo", p), Timeout: isTimeout(err), Err: err}
	}
	return model.DecodeFeatureCollection(data)
}

// FilterWards fetches category totals over the wards in p.
func (c *Client) FilterWards(ctx context.Context, p filter.Params) ([]model.CategoryDatum, error) {
	var data []model.CategoryDatum
	if err := c.getJSON(ctx, "/filter-wards", p, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// BreakdownWards fetches the per-ward category series for p.
func (c *Client) BreakdownWards(ctx context.Context, p filter.Params) ([]model.WardSeries, error) {
	var series []model.WardSeries
	if err := c.getJSON(ctx, "/breakdown-wards", p, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// Download copies an export (such as /filter-csv) into w.
func (c *Client) Download(ctx context.Context, path string, p filter.Params, w io.Writer) (int64, error) {
	body, err := c.get(ctx, path, p)
	if err != nil {
		return 0, err
	}
	defer body.Close()
	n, err := io.Copy(w, body)
	if err != nil {
		return n, &model.NetworkError{Op: "read", URL: c.url(path, p), Timeout: isTimeout(err), Err: err}
	}
	return n, nil
}
